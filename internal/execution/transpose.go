package execution

import "github.com/sanmaysarada/astraea/internal/table"

// TransposeValueVar is one wide source column destined to become its own
// tall row, identified by a TESTCD/TEST pair.
type TransposeValueVar struct {
	SourceColumn string
	TestCD       string
	Test         string
	Unit         string
}

// TransposeSpec reshapes a wide per-subject-per-visit source table into the
// tall Findings-domain structure: one row per (subject, visit, test).
type TransposeSpec struct {
	IDVars        []string
	ValueVars     []TransposeValueVar
	ResultColumn  string // e.g. "LBORRES"
	TestCDColumn  string // e.g. "LBTESTCD"
	TestColumn    string // e.g. "LBTEST"
	UnitColumn    string // e.g. "LBORRESU"
}

// transpose applies a TransposeSpec to a wide source table. Rows whose
// value is null or empty are dropped rather than emitted as blank results.
func transpose(src *table.Table, spec TransposeSpec) *table.Table {
	out := &table.Table{Domain: src.Domain}
	for _, row := range src.Rows {
		for _, vv := range spec.ValueVars {
			val, ok := row[vv.SourceColumn]
			if !ok || val == "" {
				continue
			}
			nr := make(table.Row, len(spec.IDVars)+4)
			for _, id := range spec.IDVars {
				nr[id] = row[id]
			}
			nr[spec.TestCDColumn] = vv.TestCD
			nr[spec.TestColumn] = vv.Test
			nr[spec.ResultColumn] = val
			if vv.Unit != "" {
				nr[spec.UnitColumn] = vv.Unit
			}
			out.Rows = append(out.Rows, nr)
		}
	}
	return out
}
