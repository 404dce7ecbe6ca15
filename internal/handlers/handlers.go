// Package handlers implements the closed dispatch table of per-variable
// pattern handlers the execution engine invokes once per row. Each handler
// is a pure function of its inputs; no handler holds state across calls.
package handlers

import (
	"fmt"
	"strings"

	"github.com/sanmaysarada/astraea/internal/dsl"
	"github.com/sanmaysarada/astraea/internal/mapping"
	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/sanmaysarada/astraea/internal/table"
	"github.com/sanmaysarada/astraea/internal/transform"
)

// CrossDomainContext is the immutable cross-domain state the execution
// engine assembles after DM executes and before any other domain runs.
type CrossDomainContext struct {
	RFSTDTCLookup map[string]string        // USUBJID -> RFSTDTC
	Datasets      map[string]*table.Table  // domain code -> executed/raw table, for MIN/MAX joins
}

func (c *CrossDomainContext) dataset(name string) *table.Table {
	if c == nil || c.Datasets == nil {
		return nil
	}
	return c.Datasets[strings.ToUpper(name)]
}

// Result is a handler's per-row outcome: a value, an optional non-fatal
// warning (e.g. SPLIT's unknown-keyword fallback), or a fatal error.
type Result struct {
	Value   string
	Warning string
}

// Handler computes one row's value for one enriched mapping.
type Handler func(row table.Row, m mapping.Mapping, ctx *CrossDomainContext, store *reference.Store) (Result, error)

// Dispatch is the closed pattern -> handler table, built once.
var Dispatch = map[mapping.Pattern]Handler{
	mapping.PatternAssign:       handleAssign,
	mapping.PatternDirect:       handleDirect,
	mapping.PatternRename:       handleDirect,
	mapping.PatternReformat:     handleReformat,
	mapping.PatternSplit:        handleSplit,
	mapping.PatternCombine:      handleCombine,
	mapping.PatternDerivation:   handleDerivation,
	mapping.PatternLookupRecode: handleLookupRecode,
}

// Lookup returns the handler for a mapping pattern, or ok=false for
// TRANSPOSE (a DataFrame-scope operation the execution engine runs before
// per-variable dispatch, not a per-row handler).
func Lookup(p mapping.Pattern) (Handler, bool) {
	h, ok := Dispatch[p]
	return h, ok
}

func handleAssign(_ table.Row, m mapping.Mapping, _ *CrossDomainContext, _ *reference.Store) (Result, error) {
	return Result{Value: m.AssignedValue}, nil
}

func handleDirect(row table.Row, m mapping.Mapping, _ *CrossDomainContext, _ *reference.Store) (Result, error) {
	v, ok := row[m.SourceVariable]
	if !ok {
		return Result{}, fmt.Errorf("handlers: source column %q absent", m.SourceVariable)
	}
	return Result{Value: v}, nil
}

func handleReformat(row table.Row, m mapping.Mapping, _ *CrossDomainContext, store *reference.Store) (Result, error) {
	call, err := dsl.Parse(m.DerivationRule)
	if err != nil {
		return Result{}, fmt.Errorf("handlers: REFORMAT for %s: %w", m.SDTMVariable, err)
	}
	raw := sourceValue(row, call)

	switch call.Keyword {
	case "ISO8601":
		iso, _, _, err := transform.ParseStringDateToISO(raw)
		if err != nil {
			return Result{}, fmt.Errorf("handlers: %s: %w", call.Keyword, err)
		}
		return Result{Value: iso}, nil
	case "PARTIAL_DATE":
		iso, _, _, err := transform.ImputePartialDate(raw, partialDateMethod(call, 1))
		if err != nil {
			return Result{}, fmt.Errorf("handlers: %s: %w", call.Keyword, err)
		}
		return Result{Value: iso}, nil
	case "NUMERIC_TO_YN":
		v, err := transform.NumericToYN(raw)
		if err != nil {
			return Result{}, err
		}
		return Result{Value: v}, nil
	default:
		return Result{}, fmt.Errorf("handlers: unknown REFORMAT keyword %q", call.Keyword)
	}
}

// handleSplit dispatches SUBSTRING/DELIMITER_PART/REGEX_GROUP. An
// unrecognized keyword falls back to passing the source column through
// unchanged with a warning — it must never produce a null column.
func handleSplit(row table.Row, m mapping.Mapping, _ *CrossDomainContext, _ *reference.Store) (Result, error) {
	call, err := dsl.Parse(m.DerivationRule)
	if err != nil {
		return Result{Value: row[m.SourceVariable], Warning: fmt.Sprintf("SPLIT: unparseable derivation rule, passing source through: %v", err)}, nil
	}

	switch call.Keyword {
	case "SUBSTRING":
		return splitSubstring(row, call)
	case "DELIMITER_PART":
		return splitDelimiterPart(row, call)
	case "REGEX_GROUP":
		return splitRegexGroup(row, call)
	default:
		return Result{Value: row[m.SourceVariable], Warning: fmt.Sprintf("SPLIT: unknown keyword %q, passing source through", call.Keyword)}, nil
	}
}

func handleCombine(row table.Row, m mapping.Mapping, _ *CrossDomainContext, _ *reference.Store) (Result, error) {
	call, err := dsl.Parse(m.DerivationRule)
	if err != nil {
		return Result{}, fmt.Errorf("handlers: COMBINE for %s: %w", m.SDTMVariable, err)
	}
	if call.Keyword != "CONCAT" {
		return Result{}, fmt.Errorf("handlers: COMBINE expects a CONCAT derivation, got %q", call.Keyword)
	}
	var b strings.Builder
	for _, arg := range call.Args {
		switch {
		case arg.IsStr:
			b.WriteString(arg.Str)
		case arg.Ref != nil:
			b.WriteString(row[arg.Ref.Column])
		default:
			return Result{}, fmt.Errorf("handlers: CONCAT does not support nested calls")
		}
	}
	return Result{Value: b.String()}, nil
}

func handleDerivation(row table.Row, m mapping.Mapping, ctx *CrossDomainContext, store *reference.Store) (Result, error) {
	call, err := dsl.Parse(m.DerivationRule)
	if err != nil {
		return Result{}, fmt.Errorf("handlers: DERIVATION for %s: %w", m.SDTMVariable, err)
	}
	fn, ok := LookupDerivation(call.Keyword)
	if !ok {
		return Result{}, fmt.Errorf("handlers: unknown derivation %q", call.Keyword)
	}
	return fn(row, m, ctx, store, call)
}

// handleLookupRecode recodes a source value through a controlled-terminology
// codelist, preferring a "_STD" standardized variant of the source column
// when both exist. A miss returns an empty value, not an error — the caller
// logs the miss as a finding rather than halting the pipeline.
func handleLookupRecode(row table.Row, m mapping.Mapping, _ *CrossDomainContext, store *reference.Store) (Result, error) {
	col := m.SourceVariable
	if std, ok := row[col+"_STD"]; ok && std != "" {
		col = col + "_STD"
	}
	raw := row[col]

	cl := store.LookupCodelist(m.CodelistCode)
	if cl == nil {
		return Result{}, fmt.Errorf("handlers: codelist %q not found for %s", m.CodelistCode, m.SDTMVariable)
	}
	v, ok := transform.RecodeAgainstCodelist(cl, raw)
	if !ok {
		return Result{Warning: fmt.Sprintf("LOOKUP_RECODE: %q not found in codelist %s", raw, m.CodelistCode)}, nil
	}
	return Result{Value: v}, nil
}

// partialDateMethod reads the imputation method ("first", "last", "mid")
// from a call's argument at argIndex, defaulting to "first" when the
// argument is absent or unrecognized — the conservative choice, since it
// never invents a date later than the source actually supports.
func partialDateMethod(call *dsl.Call, argIndex int) string {
	if len(call.Args) > argIndex && call.Args[argIndex].IsStr {
		switch method := strings.ToLower(strings.TrimSpace(call.Args[argIndex].Str)); method {
		case "first", "last", "mid":
			return method
		}
	}
	return "first"
}

// sourceValue resolves a derivation call's first argument to a row value:
// either a direct column reference, or (for calls with no column argument,
// e.g. a pure literal REFORMAT) the mapping's declared source variable.
func sourceValue(row table.Row, call *dsl.Call) string {
	if len(call.Args) > 0 && call.Args[0].Ref != nil {
		return row[call.Args[0].Ref.Column]
	}
	return ""
}
