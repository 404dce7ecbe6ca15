// Package llmclient defines the narrow capability the mapping engine
// depends on to invoke a large language model with a schema-constrained
// output contract. The transport itself — HTTP plumbing, retries,
// authentication against ANTHROPIC_API_KEY — is outside this package's
// concern; callers inject an implementation of Capability the same way the
// source profiler's callers inject a raw file reader.
package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Message is one turn of the conversation handed to the model.
type Message struct {
	Role    string
	Content string
}

// CallOptions configures one structured-output invocation.
type CallOptions struct {
	Temperature float64
	MaxTokens   int
}

// DefaultCallOptions matches the temperature spec.md names for mapping
// calls: low temperature favors deterministic, reproducible proposals.
func DefaultCallOptions() CallOptions {
	return CallOptions{Temperature: 0.1, MaxTokens: 4096}
}

// Capability is the injected LLM collaborator. Parse must enforce that the
// response satisfies outputSchema via the transport's own structured-output
// mechanism (tool-use, JSON mode, or constrained decoding) — the mapping
// engine performs no JSON-repair retries in v1, per spec.md §9's design
// note on schema enforcement.
type Capability interface {
	Parse(ctx context.Context, messages []Message, system string, outputSchema *jsonschema.Schema, opts CallOptions) (json.RawMessage, error)
}

// SchemaFor reflects a Go struct into the JSON Schema handed to Capability
// as its output contract, mirroring the schema-generation idiom used for
// tool-call argument schemas elsewhere in the retrieved pack.
func SchemaFor(v any) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct:            true,
		DoNotReference:            true,
		RequiredFromJSONSchemaTags: true,
	}
	return r.Reflect(v)
}

// ParseInto runs cap.Parse and unmarshals the result into out, which must be
// a pointer. This is the call-site the mapping engine uses so the per-field
// jsonschema tags on mapping.Proposal stay the single source of truth for
// both the wire schema and the Go decode target.
func ParseInto(ctx context.Context, llm Capability, messages []Message, system string, out any, opts CallOptions) error {
	if reflect.ValueOf(out).Kind() != reflect.Ptr {
		return fmt.Errorf("llmclient: ParseInto requires a pointer destination")
	}
	schema := SchemaFor(out)
	raw, err := llm.Parse(ctx, messages, system, schema, opts)
	if err != nil {
		return fmt.Errorf("llmclient: transport call failed: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("llmclient: response did not satisfy schema: %w", err)
	}
	return nil
}
