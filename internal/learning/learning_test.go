package learning

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "learning.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIngestIsIdempotentByContentID(t *testing.T) {
	s := newTestStore(t)
	ex := Example{Domain: "AE", SDTMVariable: "AETERM", SourceVariable: "ae_term",
		MappingPattern: "DIRECT", MappingLogic: "copy ae_term", Outcome: OutcomeAccepted}

	first, err := s.Ingest(ex)
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	second, err := s.Ingest(ex)
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected stable content id, got %q then %q", first.ID, second.ID)
	}

	all, err := s.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected re-ingestion to upsert, got %d rows", len(all))
	}
}

func TestMetricsAggregatesPerVariable(t *testing.T) {
	s := newTestStore(t)
	for _, ex := range []Example{
		{Domain: "AE", SDTMVariable: "AESEV", SourceVariable: "sev1", MappingLogic: "a", Outcome: OutcomeAccepted},
		{Domain: "AE", SDTMVariable: "AESEV", SourceVariable: "sev2", MappingLogic: "b", Outcome: OutcomeCorrected},
		{Domain: "AE", SDTMVariable: "AESEV", SourceVariable: "sev3", MappingLogic: "c", Outcome: OutcomeRejected},
	} {
		if _, err := s.Ingest(ex); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}

	metrics, err := s.Metrics()
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if len(metrics) != 1 {
		t.Fatalf("expected 1 aggregated metric, got %d", len(metrics))
	}
	m := metrics[0]
	if m.Total != 3 || m.Accepted != 1 || m.Corrected != 1 || m.Rejected != 1 {
		t.Errorf("unexpected aggregation: %+v", m)
	}
	if rate := m.AccuracyRate(); rate < 0.33 || rate > 0.34 {
		t.Errorf("expected accuracy rate ~0.33, got %v", rate)
	}
}

func TestOptimizerFlagsLowAccuracyWithEnoughSamples(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 6; i++ {
		outcome := OutcomeRejected
		if i == 0 {
			outcome = OutcomeAccepted
		}
		ex := Example{
			Domain: "CM", SDTMVariable: "CMROUTE",
			SourceVariable: "route", MappingLogic: "x",
			Outcome: outcome, Reason: "ambiguous free text",
		}
		ex.ID = ""
		ex.SourceVariable = ex.SourceVariable + string(rune('0'+i))
		if _, err := s.Ingest(ex); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}

	opt := &Optimizer{Store: s}
	suggestions, err := opt.Suggestions()
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d: %+v", len(suggestions), suggestions)
	}
	if suggestions[0].SDTMVariable != "CMROUTE" {
		t.Errorf("expected CMROUTE flagged, got %q", suggestions[0].SDTMVariable)
	}
	if suggestions[0].TopCorrection != "ambiguous free text" {
		t.Errorf("expected top correction reason surfaced, got %q", suggestions[0].TopCorrection)
	}
}

func TestOptimizerIgnoresSmallSampleSizes(t *testing.T) {
	s := newTestStore(t)
	ex := Example{Domain: "LB", SDTMVariable: "LBORRES", SourceVariable: "r1",
		MappingLogic: "x", Outcome: OutcomeRejected}
	if _, err := s.Ingest(ex); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	opt := &Optimizer{Store: s}
	suggestions, err := opt.Suggestions()
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(suggestions) != 0 {
		t.Errorf("expected no suggestions below minSampleSize, got %+v", suggestions)
	}
}

func TestRetrieverLearnedExamplesWithoutEmbedderFallsBackToRecency(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Ingest(Example{Domain: "DM", SDTMVariable: "SEX", SourceVariable: "gender",
		MappingLogic: "recode gender", CorrectedLogic: "recode gender to M/F/U", Reason: "U term missing",
		Outcome: OutcomeCorrected}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	r := &Retriever{Store: s}
	examples, err := r.LearnedExamples("DM", "SEX", 5)
	if err != nil {
		t.Fatalf("LearnedExamples: %v", err)
	}
	if len(examples) != 1 {
		t.Fatalf("expected 1 learned example, got %d", len(examples))
	}
	if !examples[0].IsCorrection || examples[0].Wrong != "recode gender" {
		t.Errorf("unexpected learned example: %+v", examples[0])
	}
}

func TestContentIDStableAcrossCalls(t *testing.T) {
	a := ContentID("AE", "AETERM", "ae_term", "copy")
	b := ContentID("AE", "AETERM", "ae_term", "copy")
	if a != b {
		t.Error("expected ContentID to be deterministic")
	}
	c := ContentID("AE", "AETERM", "ae_term", "different logic")
	if a == c {
		t.Error("expected different mapping logic to produce a different content id")
	}
}
