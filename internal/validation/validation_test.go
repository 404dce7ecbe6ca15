package validation

import (
	"testing"

	"github.com/sanmaysarada/astraea/internal/mapping"
	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/sanmaysarada/astraea/internal/table"
)

func newStore(t *testing.T) *reference.Store {
	t.Helper()
	s, err := reference.NewStore()
	if err != nil {
		t.Fatalf("reference.NewStore: %v", err)
	}
	return s
}

func TestRuleCTMembershipFlagsNonExtensibleMissAsError(t *testing.T) {
	store := newStore(t)
	dm := &table.Table{Domain: "DM", ColumnOrder: []string{"USUBJID", "SEX"}, Rows: []table.Row{
		{"USUBJID": "S-1", "SEX": "M"},
		{"USUBJID": "S-2", "SEX": "UNKNOWN"},
	}}
	spec := mapping.DomainMappingSpec{Domain: "DM", VariableMappings: []mapping.Mapping{
		{Proposal: mapping.Proposal{SDTMVariable: "SEX", CodelistCode: "C66731"}},
	}}
	ctx := EvalContext{Domains: map[string]DomainData{"DM": {Table: dm, Spec: spec}}, Store: store}

	results := ruleCTMembership.Evaluate(ctx)
	if len(results) != 1 {
		t.Fatalf("expected 1 finding, got %d: %+v", len(results), results)
	}
	if results[0].Severity != SeverityError {
		t.Errorf("expected ERROR for non-extensible codelist miss, got %v", results[0].Severity)
	}
}

func TestRulePresenceRequiredFlagsMissingAndEmpty(t *testing.T) {
	store := newStore(t)
	dm := &table.Table{Domain: "DM", ColumnOrder: []string{"STUDYID", "USUBJID"}, Rows: []table.Row{
		{"STUDYID": "STUDY01", "USUBJID": ""},
	}}
	ctx := EvalContext{Domains: map[string]DomainData{"DM": {Table: dm}}, Store: store}

	results := rulePresenceRequired.Evaluate(ctx)
	var sawEmptyUSUBJID bool
	for _, r := range results {
		if r.Variable == "USUBJID" {
			sawEmptyUSUBJID = true
		}
	}
	if !sawEmptyUSUBJID {
		t.Errorf("expected a finding for empty required USUBJID, got %+v", results)
	}
}

func TestRulePresenceDMDetectsDuplicateSubjectAndArmMismatch(t *testing.T) {
	dm := &table.Table{Domain: "DM", Rows: []table.Row{
		{"USUBJID": "S-1", "ARM": "A", "ARMCD": "A", "ACTARM": "B", "ACTARMCD": "B"},
		{"USUBJID": "S-1", "ARM": "A", "ARMCD": "A", "ACTARM": "A", "ACTARMCD": "A"},
	}}
	ctx := EvalContext{Domains: map[string]DomainData{"DM": {Table: dm}}}

	results := rulePresenceDM.Evaluate(ctx)
	var sawDupe, sawMismatch bool
	for _, r := range results {
		if r.Variable == "USUBJID" {
			sawDupe = true
		}
		if r.Variable == "ACTARM" {
			sawMismatch = true
		}
	}
	if !sawDupe {
		t.Error("expected duplicate-subject finding")
	}
	if !sawMismatch {
		t.Error("expected ACTARM/ARM mismatch finding")
	}
}

func TestRuleUSUBJIDSubsetOfDMFlagsOrphan(t *testing.T) {
	dm := &table.Table{Rows: []table.Row{{"USUBJID": "S-1"}}}
	ae := &table.Table{Rows: []table.Row{{"USUBJID": "S-99"}}}
	ctx := EvalContext{Domains: map[string]DomainData{
		"DM": {Table: dm}, "AE": {Table: ae},
	}}

	results := ruleUSUBJIDSubsetOfDM.Evaluate(ctx)
	if len(results) != 1 || results[0].Domain != "AE" {
		t.Fatalf("expected 1 AE finding, got %+v", results)
	}
}

func TestRuleSTUDYIDConstantFlagsDivergence(t *testing.T) {
	dm := &table.Table{Rows: []table.Row{{"STUDYID": "STUDY01"}}}
	ae := &table.Table{Rows: []table.Row{{"STUDYID": "STUDY02"}}}
	ctx := EvalContext{Domains: map[string]DomainData{
		"DM": {Table: dm}, "AE": {Table: ae},
	}}

	results := ruleSTUDYIDConstant.Evaluate(ctx)
	if len(results) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(results))
	}
}

func TestRuleVariableNameLengthFlagsOverlong(t *testing.T) {
	dm := &table.Table{ColumnOrder: []string{"USUBJID", "TOOLONGVARNAME"}}
	ctx := EvalContext{Domains: map[string]DomainData{"DM": {Table: dm}}}

	results := ruleVariableNameLength.Evaluate(ctx)
	if len(results) != 1 || results[0].Variable != "TOOLONGVARNAME" {
		t.Fatalf("expected 1 finding for overlong name, got %+v", results)
	}
}

func TestRuleDTCFormatFlagsInvalid(t *testing.T) {
	ae := &table.Table{ColumnOrder: []string{"AESTDTC"}, Rows: []table.Row{
		{"AESTDTC": "2024-01-15"},
		{"AESTDTC": "not-a-date"},
	}}
	ctx := EvalContext{Domains: map[string]DomainData{"AE": {Table: ae}}}

	results := ruleDTCFormat.Evaluate(ctx)
	if len(results) != 1 || results[0].AffectedCount != 1 {
		t.Fatalf("expected 1 finding affecting 1 row, got %+v", results)
	}
}

func TestRuleSEQUniquePerSubjectFlagsDuplicate(t *testing.T) {
	ae := &table.Table{ColumnOrder: []string{"AESEQ"}, Rows: []table.Row{
		{"USUBJID": "S-1", "AESEQ": "1"},
		{"USUBJID": "S-1", "AESEQ": "1"},
	}}
	ctx := EvalContext{Domains: map[string]DomainData{"AE": {Table: ae}}}

	results := ruleSEQUniquePerSubject.Evaluate(ctx)
	if len(results) != 1 {
		t.Fatalf("expected 1 finding, got %+v", results)
	}
}

func TestRuleSuppqualIntegrityFlagsBadRDOMAINAndDuplicate(t *testing.T) {
	supp := &table.Table{Domain: "SUPPAE", Rows: []table.Row{
		{"RDOMAIN": "ZZ", "QNAM": "QNAM1", "USUBJID": "S-1", "IDVARVAL": "1"},
		{"RDOMAIN": "AE", "QNAM": "QNAM1", "USUBJID": "S-1", "IDVARVAL": "1"},
		{"RDOMAIN": "AE", "QNAM": "QNAM1", "USUBJID": "S-1", "IDVARVAL": "1"},
	}}
	ctx := EvalContext{Domains: map[string]DomainData{"SUPPAE": {Table: supp}}}

	results := ruleSuppqualIntegrity.Evaluate(ctx)
	if len(results) != 2 {
		t.Fatalf("expected findings for bad RDOMAIN and duplicate triple, got %+v", results)
	}
}

func TestValidateAllRunsFullRegistryWithoutPanicking(t *testing.T) {
	store := newStore(t)
	dm := &table.Table{Domain: "DM", ColumnOrder: []string{"STUDYID", "USUBJID", "ARM", "ARMCD", "ACTARM", "ACTARMCD"}, Rows: []table.Row{
		{"STUDYID": "STUDY01", "USUBJID": "S-1", "ARM": "A", "ARMCD": "A", "ACTARM": "A", "ACTARMCD": "A"},
	}}
	ctx := EvalContext{Domains: map[string]DomainData{"DM": {Table: dm}}, Store: store}

	results := ValidateAll(ctx)
	summary := Summarize(results)
	if summary.Errors < 0 || summary.Warnings < 0 {
		t.Fatal("unreachable")
	}
}

func TestTRCRulesSkipWhenOutputDirEmpty(t *testing.T) {
	ctx := EvalContext{Domains: map[string]DomainData{}}
	if r := ruleTRCDMPresent.Evaluate(ctx); r != nil {
		t.Errorf("expected no TRC findings without OutputDir, got %+v", r)
	}
}

func TestTRCTSParamsFlagsMissingCritical(t *testing.T) {
	ts := &table.Table{Rows: []table.Row{
		{"TSPARMCD": "SSTDTC", "TSVAL": "2024-01-01"},
	}}
	ctx := EvalContext{OutputDir: "/tmp/does-not-matter", Domains: map[string]DomainData{"TS": {Table: ts}}}

	results := ruleTRCTSParams.Evaluate(ctx)
	if len(results) != 3 {
		t.Fatalf("expected 3 missing-critical-parameter findings, got %+v", results)
	}
}
