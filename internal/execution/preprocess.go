package execution

import (
	"strings"

	"github.com/sanmaysarada/astraea/internal/table"
)

// AlignmentRule renames a suffixed variant of a column back to its
// canonical name when merging a secondary source, and records which
// category value identifies rows that came from that source.
type AlignmentRule struct {
	SuffixedColumn string // e.g. "DSDECOD2"
	CanonicalColumn string // e.g. "DSDECOD"
	CategoryColumn string // e.g. "DSCAT"
	CategoryValue   string // e.g. "PROTOCOL MILESTONE"
}

// PreprocessConfig configures step 1 of the execution pipeline: row
// filtering and multi-source column alignment, both spec-driven rather
// than inferred.
type PreprocessConfig struct {
	FilterColumn   string // e.g. "EXYN_STD"; rows where this equals FilterExclude are dropped
	FilterExclude  string // e.g. "N"
	PrimaryCategoryValue string // category value assigned to rows from the primary (non-suffixed) source
	Alignment      []AlignmentRule
}

// preprocess applies row filtering to the primary table, then renames and
// concatenates any secondary tables per Alignment, injecting a category
// column to distinguish sources. Row identity (map contents) is preserved
// across the concat — each output row is still traceable to exactly one
// input row.
func preprocess(primary *table.Table, secondaries []*table.Table, cfg PreprocessConfig) *table.Table {
	out := primary.Clone()

	if cfg.FilterColumn != "" {
		out = out.Filter(func(r table.Row) bool {
			return !strings.EqualFold(r[cfg.FilterColumn], cfg.FilterExclude)
		})
	}

	if len(cfg.Alignment) > 0 && cfg.PrimaryCategoryValue != "" {
		for i := range out.Rows {
			if _, ok := out.Rows[i][cfg.Alignment[0].CategoryColumn]; !ok {
				out.Rows[i][cfg.Alignment[0].CategoryColumn] = cfg.PrimaryCategoryValue
			}
		}
	}

	for _, sec := range secondaries {
		secClone := sec.Clone()
		for _, rule := range cfg.Alignment {
			for i, r := range secClone.Rows {
				if v, ok := r[rule.SuffixedColumn]; ok {
					r[rule.CanonicalColumn] = v
					delete(r, rule.SuffixedColumn)
				}
				r[rule.CategoryColumn] = rule.CategoryValue
				secClone.Rows[i] = r
			}
		}
		out.Rows = append(out.Rows, secClone.Rows...)
	}

	return out
}
