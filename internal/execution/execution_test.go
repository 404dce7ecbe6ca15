package execution

import (
	"testing"

	"github.com/sanmaysarada/astraea/internal/handlers"
	"github.com/sanmaysarada/astraea/internal/mapping"
	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/sanmaysarada/astraea/internal/table"
)

func newStore(t *testing.T) *reference.Store {
	t.Helper()
	s, err := reference.NewStore()
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	return s
}

func TestExecuteDirectAndAssign(t *testing.T) {
	store := newStore(t)
	spec := mapping.DomainMappingSpec{
		Domain:         "DM",
		SourceDatasets: []string{"dm.csv"},
		VariableMappings: []mapping.Mapping{
			{Proposal: mapping.Proposal{SDTMVariable: "STUDYID", MappingPattern: mapping.PatternAssign, AssignedValue: "STUDY01"}},
			{Proposal: mapping.Proposal{SDTMVariable: "USUBJID", MappingPattern: mapping.PatternDirect, SourceVariable: "SUBJID"}},
			// synthetic required-coverage finding: must be skipped during execution
			{Proposal: mapping.Proposal{SDTMVariable: "SITEID"}},
		},
	}
	raw := map[string]*table.Table{
		"dm.csv": {Rows: []table.Row{{"SUBJID": "001"}, {"SUBJID": "002"}}},
	}

	out, warnings, err := Execute(Params{Spec: spec, RawTables: raw, Store: store})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %+v", warnings)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out.Rows))
	}
	if out.Rows[0]["STUDYID"] != "STUDY01" || out.Rows[0]["USUBJID"] != "001" {
		t.Errorf("unexpected row 0: %+v", out.Rows[0])
	}
}

func TestExecutePreprocessFiltersExcludedRows(t *testing.T) {
	store := newStore(t)
	spec := mapping.DomainMappingSpec{
		Domain:         "EX",
		SourceDatasets: []string{"ex.csv"},
		VariableMappings: []mapping.Mapping{
			{Proposal: mapping.Proposal{SDTMVariable: "EXTRT", MappingPattern: mapping.PatternDirect, SourceVariable: "EXTRT"}},
		},
	}
	raw := map[string]*table.Table{
		"ex.csv": {Rows: []table.Row{
			{"EXTRT": "DRUGA", "EXYN_STD": "Y"},
			{"EXTRT": "DRUGB", "EXYN_STD": "N"},
		}},
	}
	cfg := PreprocessConfig{FilterColumn: "EXYN_STD", FilterExclude: "N"}

	out, _, err := Execute(Params{Spec: spec, RawTables: raw, Store: store, Preprocess: &cfg})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(out.Rows) != 1 {
		t.Fatalf("expected 1 row after filtering, got %d", len(out.Rows))
	}
	if out.Rows[0]["EXTRT"] != "DRUGA" {
		t.Errorf("expected DRUGA retained, got %q", out.Rows[0]["EXTRT"])
	}
}

func TestExecuteAssignsSeqPerUSUBJID(t *testing.T) {
	store := newStore(t)
	spec := mapping.DomainMappingSpec{
		Domain:         "AE",
		SourceDatasets: []string{"ae.csv"},
		VariableMappings: []mapping.Mapping{
			{Proposal: mapping.Proposal{SDTMVariable: "USUBJID", MappingPattern: mapping.PatternDirect, SourceVariable: "USUBJID"}},
			{Proposal: mapping.Proposal{SDTMVariable: "AETERM", MappingPattern: mapping.PatternDirect, SourceVariable: "AETERM"}},
		},
	}
	raw := map[string]*table.Table{
		"ae.csv": {Rows: []table.Row{
			{"USUBJID": "S-1", "AETERM": "Headache"},
			{"USUBJID": "S-1", "AETERM": "Nausea"},
			{"USUBJID": "S-2", "AETERM": "Fatigue"},
		}},
	}

	out, _, err := Execute(Params{Spec: spec, RawTables: raw, Store: store})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	seqByUSUBJID := map[string][]string{}
	for _, r := range out.Rows {
		seqByUSUBJID[r["USUBJID"]] = append(seqByUSUBJID[r["USUBJID"]], r["AESEQ"])
	}
	if got := seqByUSUBJID["S-1"]; len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Errorf("expected AESEQ 1,2 for S-1, got %v", got)
	}
	if got := seqByUSUBJID["S-2"]; len(got) != 1 || got[0] != "1" {
		t.Errorf("expected AESEQ 1 for S-2, got %v", got)
	}
}

func TestExecuteUnknownPatternErrors(t *testing.T) {
	store := newStore(t)
	spec := mapping.DomainMappingSpec{
		Domain:         "DM",
		SourceDatasets: []string{"dm.csv"},
		VariableMappings: []mapping.Mapping{
			{Proposal: mapping.Proposal{SDTMVariable: "USUBJID", MappingPattern: "BOGUS"}},
		},
	}
	raw := map[string]*table.Table{"dm.csv": {Rows: []table.Row{{}}}}
	_, _, err := Execute(Params{Spec: spec, RawTables: raw, Store: store})
	if err == nil {
		t.Fatal("expected an error for an unregistered pattern")
	}
}

func TestGenerateSuppqualAndIntegrity(t *testing.T) {
	parent := &table.Table{Domain: "DM", Rows: []table.Row{
		{"USUBJID": "S-1", "DMSEQ": "1", "COMMENT_RAW": "enrolled early"},
		{"USUBJID": "S-2", "DMSEQ": "1", "COMMENT_RAW": ""},
	}}
	vars := []SuppVariable{{QNAM: "COMMENT", QLabel: "Sponsor Comment", SourceCol: "COMMENT_RAW", QOrig: SuppOriginCRF}}

	supp, err := GenerateSuppqual(parent, "DM", "DMSEQ", "STUDY01", vars)
	if err != nil {
		t.Fatalf("GenerateSuppqual error: %v", err)
	}
	if len(supp.Rows) != 1 {
		t.Fatalf("expected 1 supp row (empty value skipped), got %d", len(supp.Rows))
	}
	if supp.Rows[0]["QVAL"] != "enrolled early" || supp.Rows[0]["RDOMAIN"] != "DM" {
		t.Errorf("unexpected supp row: %+v", supp.Rows[0])
	}
}

func TestGenerateSuppqualRejectsLongQNAM(t *testing.T) {
	parent := &table.Table{Rows: []table.Row{{"USUBJID": "S-1", "DMSEQ": "1"}}}
	vars := []SuppVariable{{QNAM: "WAYTOOLONGQNAM", QLabel: "x", SourceCol: "x"}}
	_, err := GenerateSuppqual(parent, "DM", "DMSEQ", "STUDY01", vars)
	if err == nil {
		t.Fatal("expected an error for a QNAM exceeding 8 characters")
	}
}

func TestDeriveLCRenamesColumnsAndMirrorsSeq(t *testing.T) {
	lb := &table.Table{Domain: "LB", Rows: []table.Row{
		{"USUBJID": "S-1", "LBSEQ": "1", "LBTESTCD": "ALT", "LBORRES": "20"},
	}}
	lc, converted := DeriveLC(lb)
	if converted {
		t.Error("expected unit conversion flag to be false")
	}
	if len(lc.Rows) != 1 {
		t.Fatalf("expected LC row count to equal LB row count")
	}
	r := lc.Rows[0]
	if r["LCSEQ"] != "1" || r["LCTESTCD"] != "ALT" || r["LCORRES"] != "20" {
		t.Errorf("unexpected LC row: %+v", r)
	}
	if _, stillHasLB := r["LBTESTCD"]; stillHasLB {
		t.Error("expected LB-prefixed columns to be fully renamed")
	}
}

func TestCrossDomainContextWiring(t *testing.T) {
	// sanity check that execution composes with handlers.CrossDomainContext
	ctx := &handlers.CrossDomainContext{RFSTDTCLookup: map[string]string{"S-1": "2024-01-01"}}
	if ctx.RFSTDTCLookup["S-1"] != "2024-01-01" {
		t.Fatal("context wiring broken")
	}
}
