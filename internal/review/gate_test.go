package review

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sanmaysarada/astraea/internal/mapping"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "review.db")
	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// scriptedInput replays a fixed sequence of answers, ignoring the prompt text.
func scriptedInput(answers []string) InputFunc {
	i := 0
	return func(prompt string) (string, error) {
		if i >= len(answers) {
			return "", os.ErrClosed
		}
		a := answers[i]
		i++
		return a, nil
	}
}

func sampleSpec() mapping.DomainMappingSpec {
	return mapping.DomainMappingSpec{
		Domain:  "DM",
		StudyID: "STUDY01",
		VariableMappings: []mapping.Mapping{
			{Proposal: mapping.Proposal{SDTMVariable: "USUBJID", Confidence: 0.95}, ConfidenceLevel: mapping.ConfidenceHigh},
			{Proposal: mapping.Proposal{SDTMVariable: "RACE", Confidence: 0.5}, ConfidenceLevel: mapping.ConfidenceLow},
		},
	}
}

func TestReviewDomainBatchApproveHighThenCorrectLow(t *testing.T) {
	store := newTestStore(t)
	gate := &Gate{
		Store: store,
		Out:   &bytes.Buffer{},
		Clock: func() string { return "2024-01-01T00:00:00Z" },
		Input: scriptedInput([]string{
			"y",                // approve all HIGH
			"c",                // correct RACE
			"logic_change",     // correction type
			"RACE_RAW",         // source variable
			"recode checkbox",  // mapping logic
			"reviewer disagreed with auto-recode", // reason
		}),
	}

	dr, err := gate.ReviewDomain("sess-1", "STUDY01", sampleSpec(), "reviewer1")
	if err != nil {
		t.Fatalf("ReviewDomain error: %v", err)
	}
	if dr.Status != StatusCompleted {
		t.Errorf("expected completed status, got %s", dr.Status)
	}
	if dr.Decisions["USUBJID"].Status != DecisionApproved {
		t.Errorf("expected USUBJID approved, got %s", dr.Decisions["USUBJID"].Status)
	}
	raceDecision := dr.Decisions["RACE"]
	if raceDecision.Status != DecisionCorrected || raceDecision.CorrectionType != CorrectionLogicChange {
		t.Errorf("expected RACE corrected via logic_change, got %+v", raceDecision)
	}
	if raceDecision.CorrectedMapping == nil || raceDecision.CorrectedMapping.SourceVariable != "RACE_RAW" {
		t.Errorf("expected corrected mapping with updated source variable, got %+v", raceDecision.CorrectedMapping)
	}
	if len(dr.Corrections) != 1 {
		t.Fatalf("expected 1 recorded correction, got %d", len(dr.Corrections))
	}

	persisted, err := store.LoadDomainReview("sess-1", "DM")
	if err != nil {
		t.Fatalf("LoadDomainReview error: %v", err)
	}
	if persisted == nil || persisted.Status != StatusCompleted {
		t.Fatal("expected domain review persisted as completed")
	}

	corrections, err := store.CorrectionsFor("DM", "RACE")
	if err != nil {
		t.Fatalf("CorrectionsFor error: %v", err)
	}
	if len(corrections) != 1 {
		t.Fatalf("expected 1 persisted correction for DM/RACE, got %d", len(corrections))
	}
}

func TestReviewDomainQuitReturnsInterrupted(t *testing.T) {
	store := newTestStore(t)
	gate := &Gate{
		Store: store,
		Out:   &bytes.Buffer{},
		Input: scriptedInput([]string{"q"}),
	}

	_, err := gate.ReviewDomain("sess-2", "STUDY01", sampleSpec(), "reviewer1")
	if err == nil {
		t.Fatal("expected an Interrupted error on quit")
	}
	interrupted, ok := err.(*Interrupted)
	if !ok {
		t.Fatalf("expected *Interrupted, got %T", err)
	}
	if interrupted.SessionID != "sess-2" {
		t.Errorf("expected session id sess-2, got %s", interrupted.SessionID)
	}

	persisted, err := store.LoadDomainReview("sess-2", "DM")
	if err != nil {
		t.Fatalf("LoadDomainReview error: %v", err)
	}
	if persisted == nil {
		t.Fatal("expected partial progress to be persisted before quitting")
	}
}

func TestReviewDomainResumeSkipsDecided(t *testing.T) {
	store := newTestStore(t)
	spec := sampleSpec()

	if err := store.SaveDomainReview(DomainReview{
		SessionID:    "sess-3",
		Domain:       "DM",
		Status:       StatusInProgress,
		OriginalSpec: spec,
		Decisions: map[string]ReviewDecision{
			"USUBJID": {SDTMVariable: "USUBJID", Status: DecisionApproved},
		},
	}); err != nil {
		t.Fatalf("SaveDomainReview error: %v", err)
	}

	gate := &Gate{
		Store: store,
		Out:   &bytes.Buffer{},
		Input: scriptedInput([]string{"s"}), // skip RACE, USUBJID already decided
	}

	dr, err := gate.ReviewDomain("sess-3", "STUDY01", spec, "reviewer1")
	if err != nil {
		t.Fatalf("ReviewDomain error: %v", err)
	}
	if dr.Decisions["RACE"].Status != DecisionSkipped {
		t.Errorf("expected RACE skipped, got %s", dr.Decisions["RACE"].Status)
	}
	if dr.Status != StatusCompleted {
		t.Errorf("expected completed status on resume, got %s", dr.Status)
	}
}

func TestApplyCorrectionsRemovesRejectedAndSwapsCorrected(t *testing.T) {
	spec := sampleSpec()
	corrected := mapping.Mapping{Proposal: mapping.Proposal{SDTMVariable: "RACE", SourceVariable: "RACE_RAW"}}
	decisions := map[string]ReviewDecision{
		"USUBJID": {SDTMVariable: "USUBJID", Status: DecisionApproved},
		"RACE":    {SDTMVariable: "RACE", Status: DecisionCorrected, CorrectionType: CorrectionLogicChange, CorrectedMapping: &corrected},
	}
	out := ApplyCorrections(spec, decisions)
	if len(out.VariableMappings) != 2 {
		t.Fatalf("expected 2 mappings, got %d", len(out.VariableMappings))
	}
	var raceFound bool
	for _, m := range out.VariableMappings {
		if m.SDTMVariable == "RACE" {
			raceFound = true
			if m.SourceVariable != "RACE_RAW" {
				t.Errorf("expected corrected RACE mapping applied, got source %q", m.SourceVariable)
			}
		}
	}
	if !raceFound {
		t.Error("expected RACE present after correction applied")
	}

	rejected := map[string]ReviewDecision{
		"RACE": {SDTMVariable: "RACE", Status: DecisionCorrected, CorrectionType: CorrectionReject},
	}
	out2 := ApplyCorrections(spec, rejected)
	for _, m := range out2.VariableMappings {
		if m.SDTMVariable == "RACE" {
			t.Error("expected rejected RACE mapping to be removed")
		}
	}
}
