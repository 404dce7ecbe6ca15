package transform

import (
	"fmt"
	"strings"

	"github.com/sanmaysarada/astraea/internal/reference"
)

// RecodeAgainstCodelist maps a raw source value onto a codelist's submission
// value by case-insensitive match against the term key or its synonym. It
// returns the canonical submission value and true, or ("", false) when
// nothing in the codelist matches — non-extensible codelists treat that as
// a mapping failure the caller should surface; extensible codelists may
// choose to pass the raw value through unchanged instead.
func RecodeAgainstCodelist(cl *reference.Codelist, raw string) (string, bool) {
	if cl == nil {
		return "", false
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	lower := strings.ToLower(trimmed)

	for key, meta := range cl.Terms {
		if strings.ToLower(key) == lower {
			return meta.SubmissionValue, true
		}
		if meta.Synonym != "" && strings.ToLower(meta.Synonym) == lower {
			return meta.SubmissionValue, true
		}
	}
	return "", false
}

// sexSynonyms covers common EDC free-text spellings that fall outside the
// bundled codelist's own synonym field because they vary by source system
// rather than by CDISC definition.
var sexSynonyms = map[string]string{
	"male":   "M",
	"female": "F",
	"m":      "M",
	"f":      "F",
}

// RecodeSex maps a raw sex value onto the SEX codelist (C66731), trying the
// codelist's own terms/synonyms first and falling back to common EDC
// spellings before giving up.
func RecodeSex(store *reference.Store, raw string) (string, error) {
	cl := store.LookupCodelist("C66731")
	if v, ok := RecodeAgainstCodelist(cl, raw); ok {
		return v, nil
	}
	if v, ok := sexSynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return v, nil
	}
	return "", fmt.Errorf("transform: %q is not a recognized SEX value", raw)
}

// RecodeRace maps a raw race value onto the RACE codelist (C74457). RACE is
// extensible, so an unmatched value is passed through trimmed and uppercased
// rather than rejected — CDISC permits sponsor-defined extensions.
func RecodeRace(store *reference.Store, raw string) (string, error) {
	cl := store.LookupCodelist("C74457")
	if v, ok := RecodeAgainstCodelist(cl, raw); ok {
		return v, nil
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("transform: empty RACE value")
	}
	return strings.ToUpper(trimmed), nil
}

// RecodeEthnic maps a raw ethnicity value onto the ETHNIC codelist (C66790).
// ETHNIC is non-extensible: an unmatched value is a mapping failure.
func RecodeEthnic(store *reference.Store, raw string) (string, error) {
	cl := store.LookupCodelist("C66790")
	if v, ok := RecodeAgainstCodelist(cl, raw); ok {
		return v, nil
	}
	return "", fmt.Errorf("transform: %q is not a recognized ETHNIC value", raw)
}

// NumericToYN recodes a 0/1-style numeric or boolean-ish source flag to the
// SDTM Y/N codelist. Any of "1", "true", "yes", "y" (case-insensitive)
// becomes "Y"; "0", "false", "no", "n" becomes "N"; anything else fails.
func NumericToYN(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y":
		return "Y", nil
	case "0", "false", "no", "n":
		return "N", nil
	default:
		return "", fmt.Errorf("transform: %q is not a recognized Y/N flag", raw)
	}
}
