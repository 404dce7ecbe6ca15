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

// DerivationFunc is one named derivation in the DERIVATION pattern's
// registry, evaluated against the parsed call's arguments.
type DerivationFunc func(row table.Row, m mapping.Mapping, ctx *CrossDomainContext, store *reference.Store, call *dsl.Call) (Result, error)

var derivationRegistry = map[string]DerivationFunc{
	"USUBJID":        derivedUSUBJID,
	"STUDY_DAY":      derivedStudyDay,
	"RACE_COMBINE":   derivedRaceCombine,
	"COUNTRY_ISO3166": derivedCountryISO3166,
	"MIN":            derivedMin,
	"MAX":            derivedMax,
	"PARTIAL_DATE":   derivedPartialDate,
}

// LookupDerivation returns the named derivation, or ok=false if unregistered.
func LookupDerivation(name string) (DerivationFunc, bool) {
	f, ok := derivationRegistry[name]
	return f, ok
}

// derivedUSUBJID composes USUBJID from explicit column-ref arguments
// (study, site, subject) if the derivation rule supplies them, falling back
// to the conventional STUDYID/SITEID/SUBJID row columns otherwise.
func derivedUSUBJID(row table.Row, _ mapping.Mapping, _ *CrossDomainContext, _ *reference.Store, call *dsl.Call) (Result, error) {
	studyID, siteID, subjectID := row["STUDYID"], row["SITEID"], row["SUBJID"]
	if len(call.Args) >= 2 {
		if call.Args[0].Ref != nil {
			studyID = row[call.Args[0].Ref.Column]
		}
		if len(call.Args) == 3 {
			if call.Args[1].Ref != nil {
				siteID = row[call.Args[1].Ref.Column]
			}
			if call.Args[2].Ref != nil {
				subjectID = row[call.Args[2].Ref.Column]
			}
		} else if call.Args[1].Ref != nil {
			subjectID = row[call.Args[1].Ref.Column]
			siteID = ""
		}
	}
	usubjid, err := transform.ComposeUSUBJID(studyID, siteID, subjectID)
	if err != nil {
		return Result{}, fmt.Errorf("handlers: USUBJID derivation: %w", err)
	}
	return Result{Value: usubjid}, nil
}

// derivedStudyDay computes --DY from a reference date (RFSTDTC, looked up
// by the row's USUBJID) and the row's own event date column.
func derivedStudyDay(row table.Row, m mapping.Mapping, ctx *CrossDomainContext, _ *reference.Store, call *dsl.Call) (Result, error) {
	if ctx == nil || ctx.RFSTDTCLookup == nil {
		return Result{}, fmt.Errorf("handlers: STUDY_DAY requires an RFSTDTC lookup")
	}
	usubjid := row["USUBJID"]
	ref, ok := ctx.RFSTDTCLookup[usubjid]
	if !ok || ref == "" {
		return Result{Warning: fmt.Sprintf("STUDY_DAY: no RFSTDTC for USUBJID %q", usubjid)}, nil
	}
	eventCol := m.SourceVariable
	if len(call.Args) > 0 && call.Args[0].Ref != nil {
		eventCol = call.Args[0].Ref.Column
	}
	day, err := transform.StudyDay(ref, row[eventCol])
	if err != nil {
		return Result{Warning: fmt.Sprintf("STUDY_DAY: %v", err)}, nil
	}
	return Result{Value: fmt.Sprintf("%d", day)}, nil
}

// derivedRaceCombine implements CDISC's checkbox-race convention: each
// argument is a checkbox column whose "Y" value names one selected race.
// Exactly one selection passes through as that race; more than one yields
// "MULTIPLE".
func derivedRaceCombine(row table.Row, _ mapping.Mapping, _ *CrossDomainContext, _ *reference.Store, call *dsl.Call) (Result, error) {
	var selected []string
	for _, arg := range call.Args {
		if arg.Ref == nil {
			continue
		}
		if strings.EqualFold(row[arg.Ref.Column], "Y") {
			parts := strings.Split(arg.Ref.Column, "_")
			selected = append(selected, strings.ToUpper(parts[len(parts)-1]))
		}
	}
	switch len(selected) {
	case 0:
		return Result{Value: ""}, nil
	case 1:
		return Result{Value: selected[0]}, nil
	default:
		return Result{Value: "MULTIPLE"}, nil
	}
}

// derivedPartialDate is the DERIVATION-pattern entry point for the
// partial-date builder (spec's §4.7 "partial-date builder"): the same
// imputation as REFORMAT's PARTIAL_DATE keyword, reachable when a domain
// wants it expressed as a named derivation rather than a reformat.
func derivedPartialDate(row table.Row, m mapping.Mapping, _ *CrossDomainContext, _ *reference.Store, call *dsl.Call) (Result, error) {
	col := m.SourceVariable
	if len(call.Args) > 0 && call.Args[0].Ref != nil {
		col = call.Args[0].Ref.Column
	}
	iso, _, _, err := transform.ImputePartialDate(row[col], partialDateMethod(call, 1))
	if err != nil {
		return Result{}, fmt.Errorf("handlers: PARTIAL_DATE derivation: %w", err)
	}
	return Result{Value: iso}, nil
}

// ValidCountryCodes is the set of ISO 3166-1 alpha-3 codes this bundled
// lookup recognizes, exported so the validation engine can check COUNTRY
// values produced by paths other than COUNTRY_ISO3166 itself.
var ValidCountryCodes = map[string]bool{
	"USA": true, "GBR": true, "DEU": true, "FRA": true, "JPN": true,
	"CAN": true, "AUS": true, "CHN": true, "IND": true, "BRA": true,
	"ESP": true, "ITA": true,
}

var countryISO3166 = map[string]string{
	"UNITED STATES":  "USA",
	"UNITED STATES OF AMERICA": "USA",
	"UNITED KINGDOM": "GBR",
	"GERMANY":        "DEU",
	"FRANCE":         "FRA",
	"JAPAN":          "JPN",
	"CANADA":         "CAN",
	"AUSTRALIA":      "AUS",
	"CHINA":          "CHN",
	"INDIA":          "IND",
	"BRAZIL":         "BRA",
	"SPAIN":          "ESP",
	"ITALY":          "ITA",
}

// derivedCountryISO3166 recodes a free-text country name to its ISO
// 3166-1 alpha-3 code, uppercasing and passing through unrecognized names
// since COUNTRY is not a controlled, closed codelist in the reference data.
func derivedCountryISO3166(row table.Row, m mapping.Mapping, _ *CrossDomainContext, _ *reference.Store, call *dsl.Call) (Result, error) {
	col := m.SourceVariable
	if len(call.Args) > 0 && call.Args[0].Ref != nil {
		col = call.Args[0].Ref.Column
	}
	raw := strings.ToUpper(strings.TrimSpace(row[col]))
	if code, ok := countryISO3166[raw]; ok {
		return Result{Value: code}, nil
	}
	return Result{Value: raw, Warning: fmt.Sprintf("COUNTRY_ISO3166: %q not in the bundled lookup, passed through", raw)}, nil
}

// derivedMin/derivedMax evaluate MIN(dataset.column WHERE col = "value" JOIN
// ON USUBJID): every row of the named cross-domain dataset sharing the
// current row's USUBJID, optionally filtered by a single "col = value"
// equality clause, reduced to the lexical min/max of the target column.
// Dates in ISO 8601 form sort lexically, which is the only ordering these
// derivations are used for.
func derivedMin(row table.Row, m mapping.Mapping, ctx *CrossDomainContext, store *reference.Store, call *dsl.Call) (Result, error) {
	return crossDomainMinMax(row, m, ctx, call, false)
}

func derivedMax(row table.Row, m mapping.Mapping, ctx *CrossDomainContext, store *reference.Store, call *dsl.Call) (Result, error) {
	return crossDomainMinMax(row, m, ctx, call, true)
}

func crossDomainMinMax(row table.Row, m mapping.Mapping, ctx *CrossDomainContext, call *dsl.Call, wantMax bool) (Result, error) {
	if len(call.Args) == 0 || call.Args[0].Ref == nil {
		return Result{}, fmt.Errorf("handlers: MIN/MAX requires a dataset.column argument")
	}
	ref := call.Args[0].Ref
	dsName, clause := splitDatasetAndClause(ref)
	ds := ctx.dataset(dsName)
	if ds == nil {
		return Result{Warning: fmt.Sprintf("MIN/MAX: dataset %q not available in cross-domain context", dsName)}, nil
	}

	filterCol, filterVal := parseWhereEquality(clause)
	usubjid := row["USUBJID"]

	var best string
	found := false
	for _, r := range ds.Rows {
		if r["USUBJID"] != usubjid {
			continue
		}
		if filterCol != "" && !strings.EqualFold(r[filterCol], filterVal) {
			continue
		}
		v := r[ref.Column]
		if v == "" {
			continue
		}
		if !found || (wantMax && v > best) || (!wantMax && v < best) {
			best = v
			found = true
		}
	}
	if !found {
		return Result{Warning: fmt.Sprintf("MIN/MAX: no matching rows in %s for USUBJID %q", dsName, usubjid)}, nil
	}
	return Result{Value: best}, nil
}

// splitDatasetAndClause separates a ColumnRef's embedded clause text (the
// parser keeps WHERE/JOIN ON as part of Column) from the actual column
// name, which is always the clause's first whitespace-delimited token.
func splitDatasetAndClause(ref *dsl.ColumnRef) (dataset, clause string) {
	fields := strings.Fields(ref.Column)
	if len(fields) > 0 {
		ref.Column = fields[0]
		clause = strings.Join(fields[1:], " ")
	}
	return ref.Dataset, clause
}

// parseWhereEquality extracts a "WHERE col = value" equality from the
// clause text, ignoring any trailing "JOIN ON ..." — the join key is always
// USUBJID in this pipeline, so it is not separately parsed.
func parseWhereEquality(clause string) (col, val string) {
	idx := strings.Index(strings.ToUpper(clause), "WHERE")
	if idx < 0 {
		return "", ""
	}
	rest := clause[idx+len("WHERE"):]
	if join := strings.Index(strings.ToUpper(rest), "JOIN"); join >= 0 {
		rest = rest[:join]
	}
	eq := strings.Index(rest, "=")
	if eq < 0 {
		return "", ""
	}
	col = strings.TrimSpace(rest[:eq])
	val = strings.Trim(strings.TrimSpace(rest[eq+1:]), `"`)
	return col, val
}
