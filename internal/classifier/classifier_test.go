package classifier

import (
	"testing"

	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/sanmaysarada/astraea/internal/study"
)

func TestClassifyProfileExactFilenameMatch(t *testing.T) {
	store, err := reference.NewStore()
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	profile := &study.DatasetProfile{
		Filename: "ae.csv",
		Variables: []study.VariableProfile{
			{Name: "SUBJID"}, {Name: "AETERM"}, {Name: "AEDECOD"},
		},
	}
	c := ClassifyProfile(profile, store)
	if c.TopDomain != "AE" {
		t.Errorf("expected top domain AE, got %q (score %.2f)", c.TopDomain, c.TopScore)
	}
	if c.TopScore != 1.0 {
		t.Errorf("expected exact filename match score 1.0, got %.2f", c.TopScore)
	}
}

func TestClassifyProfileSegmentBoundaryMatch(t *testing.T) {
	store, err := reference.NewStore()
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	profile := &study.DatasetProfile{
		Filename:  "raw_ex_export.csv",
		Variables: []study.VariableProfile{{Name: "SUBJID"}},
	}
	c := ClassifyProfile(profile, store)
	if c.TopDomain != "EX" {
		t.Errorf("expected top domain EX via segment match, got %q", c.TopDomain)
	}
}

func TestClassifyProfileUnclassified(t *testing.T) {
	store, err := reference.NewStore()
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	profile := &study.DatasetProfile{
		Filename:  "misc_export.csv",
		Variables: []study.VariableProfile{{Name: "RANDOMCOL1"}, {Name: "RANDOMCOL2"}},
	}
	c := ClassifyProfile(profile, store)
	if c.TopDomain != "" {
		t.Errorf("expected UNCLASSIFIED (empty TopDomain), got %q with score %.2f", c.TopDomain, c.TopScore)
	}
}

func TestMergeGroupsAndUnclassified(t *testing.T) {
	classifications := []Classification{
		{Filename: "ex.csv", TopDomain: "EX", TopScore: 1.0},
		{Filename: "ex_ole.csv", TopDomain: "EX", TopScore: 0.7},
		{Filename: "misc.csv", TopDomain: ""},
	}
	groups := MergeGroups(classifications)
	if len(groups["EX"]) != 2 {
		t.Errorf("expected 2 files grouped under EX, got %d", len(groups["EX"]))
	}
	unclassified := Unclassified(classifications)
	if len(unclassified) != 1 || unclassified[0] != "misc.csv" {
		t.Errorf("expected misc.csv unclassified, got %v", unclassified)
	}
}
