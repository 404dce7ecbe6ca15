package reference

import "testing"

func TestNewStoreLoadsBundledData(t *testing.T) {
	s, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	if s == nil {
		t.Fatal("NewStore returned nil store")
	}
	if len(s.domains) == 0 {
		t.Error("expected at least one bundled domain")
	}
	if len(s.codelists) == 0 {
		t.Error("expected at least one bundled codelist")
	}
}

func TestGetDomainSpecDM(t *testing.T) {
	s, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	dm := s.GetDomainSpec("DM")
	if dm == nil {
		t.Fatal("expected DM domain to be bundled")
	}
	if dm.Class != ClassSpecialPurpose {
		t.Errorf("expected DM class Special-Purpose, got %q", dm.Class)
	}
	usubjid := dm.VariableByName("USUBJID")
	if usubjid == nil {
		t.Fatal("expected DM to define USUBJID")
	}
	if usubjid.Core != CoreReq {
		t.Errorf("expected USUBJID core Req, got %q", usubjid.Core)
	}

	req := dm.RequiredVariables()
	if len(req) == 0 {
		t.Error("expected at least one Req variable in DM")
	}
	for _, v := range req {
		if v.Core != CoreReq {
			t.Errorf("RequiredVariables returned non-Req variable %q", v.Name)
		}
	}
}

func TestGetDomainSpecUnknown(t *testing.T) {
	s, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	if d := s.GetDomainSpec("ZZ"); d != nil {
		t.Errorf("expected nil for unknown domain code, got %+v", d)
	}
}

func TestLookupCodelistSex(t *testing.T) {
	s, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	cl := s.LookupCodelist("C66731")
	if cl == nil {
		t.Fatal("expected C66731 (Sex) codelist to be bundled")
	}
	if cl.Extensible {
		t.Error("expected Sex codelist to be non-extensible")
	}
	if !cl.HasTerm("M") {
		t.Error("expected Sex codelist to contain M")
	}
	if cl.HasTerm("m") {
		t.Error("HasTerm should be case-sensitive")
	}
}

func TestValidateTerm(t *testing.T) {
	s, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	if !s.ValidateTerm("C66731", "F") {
		t.Error("expected F to validate against Sex codelist")
	}
	if s.ValidateTerm("C66731", "X") {
		t.Error("expected X to fail validation against Sex codelist")
	}
	if s.ValidateTerm("C00000", "anything") {
		t.Error("expected unknown codelist code to fail validation rather than panic")
	}
}

func TestGetCodelistForVariable(t *testing.T) {
	s, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	cl := s.GetCodelistForVariable("SEX")
	if cl == nil {
		t.Fatal("expected a codelist mapped from variable SEX")
	}
	if cl.Code != "C66731" {
		t.Errorf("expected SEX to map to C66731, got %q", cl.Code)
	}

	if s.GetCodelistForVariable("NOTAREALVAR") != nil {
		t.Error("expected nil codelist for an unmapped variable")
	}
}

func TestGetCodelistsForVariableMultiValued(t *testing.T) {
	s, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	all := s.GetCodelistsForVariable("LBSPEC")
	if len(all) < 2 {
		t.Fatalf("expected LBSPEC to be claimed by multiple bundled codelists, got %d", len(all))
	}
}
