package packaging

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sanmaysarada/astraea/internal/mapping"
	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/sanmaysarada/astraea/internal/table"
	"github.com/sanmaysarada/astraea/internal/validation"
)

func demoSpec() mapping.DomainMappingSpec {
	return mapping.DomainMappingSpec{
		Domain:      "AE",
		DomainClass: reference.ClassEvents,
		VariableMappings: []mapping.Mapping{
			{
				Proposal: mapping.Proposal{
					SDTMVariable:   "AETERM",
					MappingPattern: mapping.PatternDirect,
					MappingLogic:   "copy ae_term verbatim",
				},
				SDTMDataType: reference.DataChar,
				Core:         reference.CoreReq,
				Origin:       mapping.OriginCRF,
			},
			{
				Proposal: mapping.Proposal{
					SDTMVariable:   "AESEV",
					MappingPattern: mapping.PatternLookupRecode,
					MappingLogic:   "recode severity text to CT",
					CodelistCode:   "AESEV",
				},
				SDTMDataType: reference.DataChar,
				Core:         reference.CoreExp,
				CodelistName: "Severity/Intensity Scale",
				Origin:       mapping.OriginDerived,
			},
		},
		SuppqualCandidates: []string{"AEFREE"},
	}
}

func demoTable() *table.Table {
	return &table.Table{
		Domain:      "AE",
		ColumnOrder: []string{"USUBJID", "AETERM", "AESEV"},
		Rows: []table.Row{
			{"USUBJID": "1", "AETERM": "HEADACHE", "AESEV": "MILD"},
			{"USUBJID": "2", "AETERM": "NAUSEA", "AESEV": "MODERATE"},
		},
	}
}

func TestBuildDefineXMLProducesWellFormedDocumentWithItemGroupAndCodeList(t *testing.T) {
	specs := map[string]mapping.DomainMappingSpec{"AE": demoSpec()}
	domains := map[string]*table.Table{"AE": demoTable()}

	out, err := BuildDefineXML("STUDY-001", specs, domains, []string{"AE"})
	if err != nil {
		t.Fatalf("BuildDefineXML: %v", err)
	}

	var doc odm
	if err := xml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("result did not parse as well-formed XML: %v", err)
	}
	if len(doc.Study.MetaDataVersion.ItemGroupDefs) != 1 {
		t.Fatalf("expected 1 ItemGroupDef, got %d", len(doc.Study.MetaDataVersion.ItemGroupDefs))
	}
	ig := doc.Study.MetaDataVersion.ItemGroupDefs[0]
	if ig.Name != "AE" || len(ig.ItemRefs) != 2 {
		t.Errorf("unexpected ItemGroupDef: %+v", ig)
	}
	if len(doc.Study.MetaDataVersion.CodeLists) != 1 {
		t.Fatalf("expected 1 CodeList for AESEV's codelist_code, got %d", len(doc.Study.MetaDataVersion.CodeLists))
	}
	if len(doc.Study.MetaDataVersion.MethodDefs) != 1 {
		t.Errorf("expected 1 MethodDef for the LOOKUP_RECODE pattern, got %d", len(doc.Study.MetaDataVersion.MethodDefs))
	}
	if len(doc.Study.MetaDataVersion.CommentDefs) != 1 {
		t.Errorf("expected 1 CommentDef for the SUPPQUAL candidate, got %d", len(doc.Study.MetaDataVersion.CommentDefs))
	}
}

func TestBuildFindingsValueListDefScansDistinctTestCodes(t *testing.T) {
	lb := &table.Table{
		Domain:      "LB",
		ColumnOrder: []string{"USUBJID", "LBTESTCD", "LBORRES"},
		Rows: []table.Row{
			{"USUBJID": "1", "LBTESTCD": "ALT", "LBORRES": "20"},
			{"USUBJID": "1", "LBTESTCD": "AST", "LBORRES": "18"},
			{"USUBJID": "2", "LBTESTCD": "ALT", "LBORRES": "22"},
		},
	}
	vld := buildFindingsValueListDef("LB", lb)
	if vld == nil {
		t.Fatal("expected a ValueListDef")
	}
	if len(vld.WhereClauseDefs) != 2 {
		t.Errorf("expected 2 distinct test codes, got %d", len(vld.WhereClauseDefs))
	}
}

func TestBuildCSDRGRendersAllThreeSections(t *testing.T) {
	ts := &table.Table{
		ColumnOrder: []string{"TSPARMCD", "TSVAL"},
		Rows: []table.Row{
			{"TSPARMCD": "TPHASE", "TSVAL": "Phase 3"},
		},
	}
	findings := []validation.RuleResult{
		{RuleID: "CT-001", Domain: "AE", Variable: "AESEV", Severity: validation.SeverityError, Message: "value not in codelist", AffectedCount: 2},
		{RuleID: "PRES-001", Domain: "AE", Variable: "AETERM", Severity: validation.SeverityWarning, Message: "ignored warning"},
	}
	specs := map[string]mapping.DomainMappingSpec{"AE": demoSpec()}

	doc := BuildCSDRG("STUDY-001", ts, specs, findings)

	if !strings.Contains(doc, "Phase 3") {
		t.Error("expected section 2 to surface the TS parameter value")
	}
	if !strings.Contains(doc, "CT-001") || strings.Contains(doc, "PRES-001") {
		t.Error("expected section 6 to include the ERROR finding and exclude the WARNING finding")
	}
	if !strings.Contains(doc, "AEFREE") {
		t.Error("expected section 8 to justify the SUPPQUAL candidate")
	}
}

type fakeSerializer struct {
	written map[string]*table.Table
}

func (f *fakeSerializer) WriteDataset(t *table.Table, path string) error {
	if f.written == nil {
		f.written = map[string]*table.Table{}
	}
	f.written[path] = t
	return nil
}

func TestExportWritesDatasetsDefineXMLAndCSDRG(t *testing.T) {
	root := t.TempDir()
	serializer := &fakeSerializer{}
	cfg := Config{
		StudyID:   "STUDY-001",
		OutputDir: root,
		Domains:   map[string]*table.Table{"AE": demoTable()},
		Specs:     map[string]mapping.DomainMappingSpec{"AE": demoSpec()},
		TS:        &table.Table{ColumnOrder: []string{"TSPARMCD", "TSVAL"}},
		Findings:  []validation.RuleResult{{RuleID: "CT-001", Domain: "AE", Severity: validation.SeverityError}},
		Serializer: serializer,
	}

	stats, err := Export(cfg)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if stats.DatasetsWritten != 1 {
		t.Errorf("expected 1 dataset written, got %d", stats.DatasetsWritten)
	}
	if stats.ErrorFindings != 1 {
		t.Errorf("expected 1 error finding carried into stats, got %d", stats.ErrorFindings)
	}

	wantDataset := filepath.Join(root, tabulationsDir, "ae.xpt")
	if _, ok := serializer.written[wantDataset]; !ok {
		t.Errorf("expected dataset written at %s, got %+v", wantDataset, serializer.written)
	}

	if _, err := os.Stat(filepath.Join(root, tabulationsDir, "define.xml")); err != nil {
		t.Errorf("expected define.xml to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "m5", "datasets", "tabulations", "csdrg.md")); err != nil {
		t.Errorf("expected csdrg.md to exist: %v", err)
	}
}
