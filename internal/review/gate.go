package review

import (
	"fmt"
	"io"
	"strings"

	"github.com/sanmaysarada/astraea/internal/mapping"
)

// InputFunc reads one line of reviewer input for a given prompt. Production
// callers wire a terminal reader; tests inject a canned sequence so the
// review logic runs without a terminal.
type InputFunc func(prompt string) (string, error)

// Gate runs the two-tier interactive review flow: HIGH-confidence mappings
// are batch-approvable in one prompt, MEDIUM/LOW mappings are walked one at
// a time. Every decision is persisted to Store before the next prompt is
// shown, so an interruption never loses more than the decision in flight.
type Gate struct {
	Store *Store
	Input InputFunc
	Out   io.Writer
	Clock func() string // RFC3339 timestamp, injected for determinism
}

// ReviewDomain walks one domain's DomainMappingSpec to completion or until
// the reviewer quits. On quit it returns *Interrupted carrying sessionID;
// the session and every decision made so far are already durably persisted.
func (g *Gate) ReviewDomain(sessionID, studyID string, spec mapping.DomainMappingSpec, reviewer string) (*DomainReview, error) {
	dr, err := g.Store.LoadDomainReview(sessionID, spec.Domain)
	if err != nil {
		return nil, err
	}
	if dr == nil {
		dr = &DomainReview{
			SessionID:    sessionID,
			Domain:       spec.Domain,
			Status:       StatusInProgress,
			OriginalSpec: spec,
			Decisions:    make(map[string]ReviewDecision),
		}
	} else if dr.Decisions == nil {
		dr.Decisions = make(map[string]ReviewDecision)
	}
	if dr.Status == StatusCompleted || dr.Status == StatusSkipped {
		return dr, nil
	}
	dr.Status = StatusInProgress

	high, rest := splitByConfidence(spec.VariableMappings, dr.Decisions)

	if len(high) > 0 {
		if err := g.batchApproveHigh(dr, high); err != nil {
			return dr, err
		}
	}

	for _, m := range rest {
		if _, decided := dr.Decisions[m.SDTMVariable]; decided {
			continue
		}
		if err := g.walkOne(dr, studyID, m, reviewer); err != nil {
			return dr, err
		}
	}

	dr.Status = StatusCompleted
	if err := g.Store.SaveDomainReview(*dr); err != nil {
		return dr, err
	}
	return dr, nil
}

func splitByConfidence(mappings []mapping.Mapping, decided map[string]ReviewDecision) (high, rest []mapping.Mapping) {
	for _, m := range mappings {
		if _, already := decided[m.SDTMVariable]; already {
			continue
		}
		if m.ConfidenceLevel == mapping.ConfidenceHigh {
			high = append(high, m)
		} else {
			rest = append(rest, m)
		}
	}
	return high, rest
}

func (g *Gate) batchApproveHigh(dr *DomainReview, high []mapping.Mapping) error {
	fmt.Fprintf(g.Out, "\n%d HIGH-confidence mapping(s) for domain %s:\n", len(high), dr.Domain)
	for _, m := range high {
		fmt.Fprintf(g.Out, "  %-10s %-14s %-10s conf=%.2f  %s\n", m.SDTMVariable, m.MappingPattern, m.SourceVariable, m.Confidence, m.MappingLogic)
	}
	answer, err := g.prompt("Approve all HIGH-confidence mappings? [Y/n/r=review individually/q=quit]: ")
	if err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "q", "quit":
		if err := g.Store.SaveDomainReview(*dr); err != nil {
			return err
		}
		return &Interrupted{SessionID: dr.SessionID}
	case "r", "review":
		for _, m := range high {
			if err := g.walkOne(dr, dr.StudyIDOrEmpty(), m, ""); err != nil {
				return err
			}
		}
		return nil
	default:
		for _, m := range high {
			dr.Decisions[m.SDTMVariable] = ReviewDecision{SDTMVariable: m.SDTMVariable, Status: DecisionApproved}
		}
		return g.Store.SaveDomainReview(*dr)
	}
}

// walkOne prompts the reviewer on a single mapping, persisting the resulting
// decision (and any correction) immediately.
func (g *Gate) walkOne(dr *DomainReview, studyID string, m mapping.Mapping, reviewer string) error {
	fmt.Fprintf(g.Out, "\n--- %s / %s ---\n", dr.Domain, m.SDTMVariable)
	fmt.Fprintf(g.Out, "pattern:    %s\n", m.MappingPattern)
	fmt.Fprintf(g.Out, "source:     %s.%s\n", m.SourceDataset, m.SourceVariable)
	fmt.Fprintf(g.Out, "logic:      %s\n", m.MappingLogic)
	fmt.Fprintf(g.Out, "confidence: %.2f (%s)\n", m.Confidence, m.ConfidenceLevel)
	fmt.Fprintf(g.Out, "rationale:  %s\n", m.Rationale)
	for _, n := range m.Notes {
		fmt.Fprintf(g.Out, "note:       %s\n", n)
	}

	answer, err := g.prompt("[a]pprove / [c]orrect / [r]eject / [s]kip / [q]uit: ")
	if err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "q", "quit":
		if err := g.Store.SaveDomainReview(*dr); err != nil {
			return err
		}
		return &Interrupted{SessionID: dr.SessionID}

	case "s", "skip":
		dr.Decisions[m.SDTMVariable] = ReviewDecision{SDTMVariable: m.SDTMVariable, Status: DecisionSkipped}

	case "r", "reject":
		reason, err := g.prompt("reason for rejecting: ")
		if err != nil {
			return err
		}
		decision := ReviewDecision{SDTMVariable: m.SDTMVariable, Status: DecisionCorrected, CorrectionType: CorrectionReject}
		if !decision.Valid() {
			return fmt.Errorf("invalid rejection decision for %s", m.SDTMVariable)
		}
		dr.Decisions[m.SDTMVariable] = decision
		dr.Corrections = append(dr.Corrections, HumanCorrection{
			SessionID: dr.SessionID, StudyID: studyID, Domain: dr.Domain, SDTMVariable: m.SDTMVariable,
			CorrectionType: CorrectionReject, OriginalMapping: m, Reason: reason, Reviewer: reviewer,
			Timestamp: g.now(),
		})
		if err := g.Store.RecordCorrection(dr.Corrections[len(dr.Corrections)-1]); err != nil {
			return err
		}

	case "c", "correct":
		ctype, corrected, reason, err := g.collectCorrection(m)
		if err != nil {
			return err
		}
		decision := ReviewDecision{SDTMVariable: m.SDTMVariable, Status: DecisionCorrected, CorrectionType: ctype, CorrectedMapping: &corrected}
		if !decision.Valid() {
			return fmt.Errorf("invalid correction decision for %s", m.SDTMVariable)
		}
		dr.Decisions[m.SDTMVariable] = decision
		dr.Corrections = append(dr.Corrections, HumanCorrection{
			SessionID: dr.SessionID, StudyID: studyID, Domain: dr.Domain, SDTMVariable: m.SDTMVariable,
			CorrectionType: ctype, OriginalMapping: m, CorrectedMapping: &corrected, Reason: reason,
			Reviewer: reviewer, Timestamp: g.now(),
		})
		if err := g.Store.RecordCorrection(dr.Corrections[len(dr.Corrections)-1]); err != nil {
			return err
		}

	default: // approve
		dr.Decisions[m.SDTMVariable] = ReviewDecision{SDTMVariable: m.SDTMVariable, Status: DecisionApproved}
	}

	return g.Store.SaveDomainReview(*dr)
}

// collectCorrection prompts for the corrected mapping's fields, defaulting
// any blank answer to the original value.
func (g *Gate) collectCorrection(m mapping.Mapping) (CorrectionType, mapping.Mapping, string, error) {
	ctypeRaw, err := g.prompt("correction type [source_change/logic_change/pattern_change/ct_change/confidence_override/add]: ")
	if err != nil {
		return "", mapping.Mapping{}, "", err
	}
	ctype := CorrectionType(strings.TrimSpace(ctypeRaw))

	sourceVar, err := g.promptDefault("source variable", m.SourceVariable)
	if err != nil {
		return "", mapping.Mapping{}, "", err
	}
	logic, err := g.promptDefault("mapping logic", m.MappingLogic)
	if err != nil {
		return "", mapping.Mapping{}, "", err
	}
	reason, err := g.prompt("reason for correction: ")
	if err != nil {
		return "", mapping.Mapping{}, "", err
	}

	corrected := m
	corrected.SourceVariable = sourceVar
	corrected.MappingLogic = logic
	corrected.ConfidenceLevel = mapping.ConfidenceHigh
	corrected.Confidence = 1.0

	return ctype, corrected, reason, nil
}

func (g *Gate) prompt(text string) (string, error) {
	if g.Input == nil {
		return "", fmt.Errorf("review: no input callback injected")
	}
	return g.Input(text)
}

func (g *Gate) promptDefault(label, current string) (string, error) {
	answer, err := g.prompt(fmt.Sprintf("%s [%s]: ", label, current))
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return current, nil
	}
	return answer, nil
}

func (g *Gate) now() string {
	if g.Clock != nil {
		return g.Clock()
	}
	return ""
}

// StudyIDOrEmpty returns the study id from the domain review's original
// spec, used when a caller (such as the batch-approve review fallback) has
// no studyID in scope.
func (dr *DomainReview) StudyIDOrEmpty() string {
	return dr.OriginalSpec.StudyID
}

// ApplyCorrections materializes a domain review's decisions into the final
// variable_mappings list: corrected mappings replace the original, rejected
// variables are removed, approved and skipped variables are retained as-is.
func ApplyCorrections(spec mapping.DomainMappingSpec, decisions map[string]ReviewDecision) mapping.DomainMappingSpec {
	out := spec
	out.VariableMappings = nil

	for _, m := range spec.VariableMappings {
		d, decided := decisions[m.SDTMVariable]
		if !decided {
			out.VariableMappings = append(out.VariableMappings, m)
			continue
		}
		switch d.Status {
		case DecisionCorrected:
			if d.CorrectionType == CorrectionReject {
				continue
			}
			if d.CorrectedMapping != nil {
				out.VariableMappings = append(out.VariableMappings, *d.CorrectedMapping)
			} else {
				out.VariableMappings = append(out.VariableMappings, m)
			}
		default: // approved, skipped
			out.VariableMappings = append(out.VariableMappings, m)
		}
	}
	return out
}
