package transform

import (
	"fmt"

	"github.com/sanmaysarada/astraea/internal/reference"
)

// Func is a pure transform function: given a raw source value and the
// reference store, it returns the submission value or an error. Functions
// that don't need the store (composition, date parsing) simply ignore it.
type Func func(store *reference.Store, raw string) (string, error)

// registry is the closed set of named transforms the mapping engine and
// pattern handlers may reference by name, following the same
// map-constructed-once-at-init shape the teacher uses for its platform and
// strategy lookup tables.
var registry = map[string]Func{
	"RECODE_SEX":      RecodeSex,
	"RECODE_RACE":     RecodeRace,
	"RECODE_ETHNIC":   RecodeEthnic,
	"NUMERIC_TO_YN":   func(_ *reference.Store, raw string) (string, error) { return NumericToYN(raw) },
	"PARSE_DATE_ISO": func(_ *reference.Store, raw string) (string, error) {
		iso, _, _, err := ParseStringDateToISO(raw)
		return iso, err
	},
	"IMPUTE_PARTIAL_DATE_FIRST": func(_ *reference.Store, raw string) (string, error) {
		iso, _, _, err := ImputePartialDate(raw, "first")
		return iso, err
	},
	"IMPUTE_PARTIAL_DATE_LAST": func(_ *reference.Store, raw string) (string, error) {
		iso, _, _, err := ImputePartialDate(raw, "last")
		return iso, err
	},
	"IMPUTE_PARTIAL_DATE_MID": func(_ *reference.Store, raw string) (string, error) {
		iso, _, _, err := ImputePartialDate(raw, "mid")
		return iso, err
	},
}

// Lookup returns the named transform function, or ok=false if name is not
// registered. Pattern handlers and the mini-DSL interpreter call the
// transform functions directly rather than through this lookup.
func Lookup(name string) (Func, bool) {
	f, ok := registry[name]
	return f, ok
}

// Names returns every registered transform name, for diagnostics and for
// validating a mapping proposal's referenced transform exists before
// execution.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}

// Apply runs the named transform, wrapping an unknown-name error with the
// variable context the caller is producing.
func Apply(name string, store *reference.Store, raw, forVariable string) (string, error) {
	f, ok := Lookup(name)
	if !ok {
		return "", fmt.Errorf("transform: unknown transform %q for variable %s", name, forVariable)
	}
	return f(store, raw)
}
