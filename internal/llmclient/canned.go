package llmclient

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Canned is a Capability that replays a fixed response regardless of the
// prompt, used by `map-domain --dry-run` for CI smoke testing without a
// live API key, and by mapping engine tests.
type Canned struct {
	Response json.RawMessage
	Err      error
}

// Parse implements Capability.
func (c *Canned) Parse(_ context.Context, _ []Message, _ string, _ *jsonschema.Schema, _ CallOptions) (json.RawMessage, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Response, nil
}
