// Package execution is the deterministic spec interpreter: it turns a
// reviewed DomainMappingSpec and raw source tables into a materialized
// SDTM-conformant table, through per-variable pattern handlers,
// cross-domain derivations, SUPPQUAL generation, and column finalization.
package execution

import (
	"fmt"
	"sort"

	"github.com/sanmaysarada/astraea/internal/errors"
	"github.com/sanmaysarada/astraea/internal/handlers"
	"github.com/sanmaysarada/astraea/internal/mapping"
	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/sanmaysarada/astraea/internal/table"
	"github.com/sanmaysarada/astraea/internal/transform"
)

const opExecute errors.Op = "execution.Execute"

// Warning is a non-fatal, per-row issue accumulated during execution. The
// validator, not the execution engine, decides severity; these are purely
// informational at this layer.
type Warning struct {
	SDTMVariable string
	RowIndex     int
	Message      string
}

// Params are execute's inputs (spec.md §4.8's execute(spec, raw_dfs,
// cross_domain_ctx?, study_id, site_col?, subject_col?)).
type Params struct {
	Spec           mapping.DomainMappingSpec
	RawTables      map[string]*table.Table // keyed by source_dataset filename
	Context        *handlers.CrossDomainContext
	StudyID        string
	SiteCol        string
	SubjectCol     string
	Preprocess     *PreprocessConfig // optional, domain-specific (EX filter, DS alignment)
	Secondaries    []*table.Table    // additional raw tables to concat in preprocessing
	Transpose      *TransposeSpec    // optional, Findings-domain reshape
	Store          *reference.Store
}

// Execute runs the full per-domain materialization pipeline and returns the
// resulting table plus every warning accumulated along the way. It never
// fails on a per-row handler error — those become warnings — but fails fast
// if the spec references a pattern with no registered handler.
func Execute(p Params) (*table.Table, []Warning, error) {
	domain := p.Store.GetDomainSpec(p.Spec.Domain)
	if domain == nil {
		return nil, nil, errors.E(opExecute, errors.KindConfig, fmt.Sprintf("unknown domain %q", p.Spec.Domain))
	}

	src := primaryTable(p)
	if p.Preprocess != nil {
		src = preprocess(src, p.Secondaries, *p.Preprocess)
	}
	if p.Transpose != nil {
		src = transpose(src, *p.Transpose)
	}

	out := &table.Table{Domain: p.Spec.Domain}
	var warnings []Warning

	for rowIdx, row := range src.Rows {
		outRow := make(table.Row)
		for _, m := range p.Spec.VariableMappings {
			if m.MappingPattern == "" {
				continue // synthetic required-coverage finding, not a real mapping
			}
			h, ok := handlers.Lookup(m.MappingPattern)
			if !ok {
				if m.MappingPattern == mapping.PatternTranspose {
					continue // handled at DataFrame scope above, not per-row
				}
				return nil, nil, errors.E(opExecute, errors.KindMapping, fmt.Sprintf("no handler registered for pattern %q", m.MappingPattern))
			}
			res, err := h(row, m, p.Context, p.Store)
			if err != nil {
				warnings = append(warnings, Warning{SDTMVariable: m.SDTMVariable, RowIndex: rowIdx, Message: err.Error()})
				outRow[m.SDTMVariable] = ""
				continue
			}
			if res.Warning != "" {
				warnings = append(warnings, Warning{SDTMVariable: m.SDTMVariable, RowIndex: rowIdx, Message: res.Warning})
			}
			outRow[m.SDTMVariable] = res.Value
		}
		out.Rows = append(out.Rows, outRow)
	}

	applyCrossDomainDY(out, domain, p.Context)

	if err := assignSeq(out, domain); err != nil {
		warnings = append(warnings, Warning{Message: err.Error()})
	}

	out.ColumnOrder = columnOrder(domain)
	optimizeWidths(out)

	return out, warnings, nil
}

func primaryTable(p Params) *table.Table {
	if len(p.Spec.SourceDatasets) > 0 {
		if t, ok := p.RawTables[p.Spec.SourceDatasets[0]]; ok {
			return t
		}
	}
	return &table.Table{Domain: p.Spec.Domain}
}

// applyCrossDomainDY computes every --DY variable present in the domain's
// reference spec but absent from the executed row, using the RFSTDTC
// lookup and the row's own --DTC value (SDTM convention: no Day 0).
func applyCrossDomainDY(out *table.Table, domain *reference.Domain, ctx *handlers.CrossDomainContext) {
	if ctx == nil || ctx.RFSTDTCLookup == nil {
		return
	}
	dyVar := domain.Code + "DY"
	dtcVar := domain.Code + "DTC"
	if domain.VariableByName(dyVar) == nil {
		return
	}
	for i, row := range out.Rows {
		if row[dyVar] != "" {
			continue
		}
		ref, ok := ctx.RFSTDTCLookup[row["USUBJID"]]
		if !ok || ref == "" || row[dtcVar] == "" {
			continue
		}
		if day, err := transform.StudyDay(ref, row[dtcVar]); err == nil {
			out.Rows[i][dyVar] = fmt.Sprintf("%d", day)
		}
	}
}

func columnOrder(domain *reference.Domain) []string {
	order := make([]string, len(domain.Variables))
	for i, v := range domain.Variables {
		order[i] = v.Name
	}
	return order
}

// optimizeWidths enforces the 200-byte XPT char-value cap per value; it
// does not need each column's overall width since this pipeline serializes
// to XPT (or another writer) separately, not into fixed-width buffers here.
func optimizeWidths(out *table.Table) {
	for _, col := range out.ColumnOrder {
		for i, row := range out.Rows {
			v := row[col]
			if len(v) <= transform.MaxCharBytes {
				continue
			}
			if _, truncated := transform.OptimizeCharWidth([]string{v}); len(truncated) > 0 {
				out.Rows[i][col] = truncated[0]
			}
		}
	}
}

// sortRowsByUSUBJID performs a stable USUBJID-then-insertion-order sort.
// --SEQ assignment does its own sorting and does not call it.
func sortRowsByUSUBJID(rows []table.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i]["USUBJID"] < rows[j]["USUBJID"]
	})
}
