// Package review implements the two-tier, persistent, resumable review gate:
// a human reviewer approves or corrects each proposed mapping before
// execution, with every decision persisted immediately so a crash loses at
// most one decision.
package review

import "github.com/sanmaysarada/astraea/internal/mapping"

// Status is a DomainReview's closed lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
)

// DecisionStatus is one ReviewDecision's closed outcome.
type DecisionStatus string

const (
	DecisionApproved  DecisionStatus = "approved"
	DecisionCorrected DecisionStatus = "corrected"
	DecisionSkipped   DecisionStatus = "skipped"
)

// CorrectionType is the closed set of ways a reviewer may correct a mapping.
type CorrectionType string

const (
	CorrectionSourceChange      CorrectionType = "source_change"
	CorrectionLogicChange       CorrectionType = "logic_change"
	CorrectionPatternChange     CorrectionType = "pattern_change"
	CorrectionCTChange          CorrectionType = "ct_change"
	CorrectionConfidenceOverride CorrectionType = "confidence_override"
	CorrectionReject            CorrectionType = "reject"
	CorrectionAdd               CorrectionType = "add"
)

// ReviewDecision is the reviewer's verdict on one SDTM variable's mapping.
type ReviewDecision struct {
	SDTMVariable     string
	Status           DecisionStatus
	CorrectionType   CorrectionType // empty unless Status == corrected
	CorrectedMapping *mapping.Mapping
}

// Valid reports whether the decision satisfies spec.md §3's DomainReview
// invariant: status=corrected implies correction_type is present, and
// corrected_mapping is present unless correction_type is reject.
func (d ReviewDecision) Valid() bool {
	if d.Status != DecisionCorrected {
		return true
	}
	if d.CorrectionType == "" {
		return false
	}
	if d.CorrectionType == CorrectionReject {
		return true
	}
	return d.CorrectedMapping != nil
}

// HumanCorrection is the learning-substrate-facing signal recorded whenever
// a reviewer corrects a mapping.
type HumanCorrection struct {
	SessionID        string
	StudyID          string
	Domain           string
	SDTMVariable     string
	CorrectionType   CorrectionType
	OriginalMapping  mapping.Mapping
	CorrectedMapping *mapping.Mapping
	Reason           string
	Reviewer         string
	Timestamp        string
	Invalidated      bool
}

// DomainReview is the per-domain review state: the original spec plus every
// decision and correction recorded against it.
type DomainReview struct {
	SessionID      string
	Domain         string
	Status         Status
	OriginalSpec   mapping.DomainMappingSpec
	Decisions      map[string]ReviewDecision // keyed by sdtm_variable
	Corrections    []HumanCorrection
}

// ReviewSession tracks a reviewer's progress across an ordered list of
// domains. The review gate is its sole mutator.
type ReviewSession struct {
	SessionID         string
	StudyID           string
	CreatedAt         string
	UpdatedAt         string
	Status            SessionStatus
	Domains           []string
	CurrentDomainIndex int
}

// SessionStatus is a ReviewSession's closed lifecycle state.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned"
)

// Interrupted is the structured interruption raised when the reviewer
// chooses "quit". It carries the session id so the caller can resume later;
// it is not an application error — review state up to the last decision is
// already durably persisted when this is raised.
type Interrupted struct {
	SessionID string
}

func (e *Interrupted) Error() string {
	return "review interrupted, session " + e.SessionID + " may be resumed"
}
