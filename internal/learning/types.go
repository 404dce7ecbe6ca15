// Package learning closes the human-in-the-loop feedback loop (spec.md
// §4.11): every accepted, corrected, or rejected mapping decision is
// ingested as an example, retrievable later by keyword and by embedding
// similarity so the mapping engine's prompts can cite precedent from this
// study's own review history.
package learning

import "time"

// Outcome is the closed decision outcome an ingested example records.
type Outcome string

const (
	OutcomeAccepted Outcome = "ACCEPTED"
	OutcomeCorrected Outcome = "CORRECTED"
	OutcomeRejected Outcome = "REJECTED"
)

// Example is one human review decision, ingested for future retrieval.
type Example struct {
	ID             string // content-addressed, stable across re-ingestion
	Domain         string
	SDTMVariable   string
	SourceVariable string
	MappingPattern string
	MappingLogic   string
	Outcome        Outcome
	CorrectedLogic string // populated only when Outcome == OutcomeCorrected
	Reason         string
	StudyID        string
	IngestedAt     time.Time
	Embedding      []float32 // nil until SetEmbedding populates it
}

// SearchText is the text indexed for keyword retrieval and embedded for
// similarity search: enough context that a match is explainable.
func (e Example) SearchText() string {
	s := e.Domain + " " + e.SDTMVariable + " " + e.SourceVariable + " " + e.MappingPattern + " " + e.MappingLogic
	if e.CorrectedLogic != "" {
		s += " " + e.CorrectedLogic
	}
	if e.Reason != "" {
		s += " " + e.Reason
	}
	return s
}

// AccuracyMetrics summarizes how often a domain or variable's proposed
// mappings survived review unmodified.
type AccuracyMetrics struct {
	Domain         string
	SDTMVariable   string
	Total          int
	Accepted       int
	Corrected      int
	Rejected       int
}

// AccuracyRate is Accepted / Total, or 0 when Total is 0.
func (m AccuracyMetrics) AccuracyRate() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Accepted) / float64(m.Total)
}
