package learning

import "sort"

// lowAccuracyThreshold below which a variable is flagged for prompt
// attention: below half its proposals surviving review unmodified is a
// signal the mapping prompt's guidance for that variable needs work, not
// that reviewers are simply being thorough.
const lowAccuracyThreshold = 0.5

// minSampleSize is the smallest number of reviewed proposals a variable
// needs before its accuracy rate is trusted; below this, the metric is
// noise rather than a pattern worth acting on.
const minSampleSize = 5

// Suggestion flags one (domain, variable) pair whose review history
// indicates the mapping prompt should carry more explicit guidance.
type Suggestion struct {
	Domain        string
	SDTMVariable  string
	AccuracyRate  float64
	SampleSize    int
	TopCorrection string // the most common correction reason observed, if any
}

// Optimizer inspects accumulated review outcomes and proposes which
// variables' prompt guidance is worth revising. It never edits a prompt
// itself: the decision to change prompt text stays a human (or a
// downstream mapping-context change), this only surfaces where the data
// points.
type Optimizer struct {
	Store *Store
}

// Suggestions returns every (domain, variable) pair whose accuracy rate is
// below lowAccuracyThreshold with enough samples to trust it, ordered worst
// accuracy first.
func (o *Optimizer) Suggestions() ([]Suggestion, error) {
	metrics, err := o.Store.Metrics()
	if err != nil {
		return nil, err
	}
	all, err := o.Store.All()
	if err != nil {
		return nil, err
	}

	var out []Suggestion
	for _, m := range metrics {
		if m.Total < minSampleSize || m.AccuracyRate() >= lowAccuracyThreshold {
			continue
		}
		out = append(out, Suggestion{
			Domain: m.Domain, SDTMVariable: m.SDTMVariable,
			AccuracyRate: m.AccuracyRate(), SampleSize: m.Total,
			TopCorrection: topCorrectionReason(all, m.Domain, m.SDTMVariable),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccuracyRate < out[j].AccuracyRate })
	return out, nil
}

// topCorrectionReason returns the most frequently cited correction reason
// for a variable, or "" if none were recorded.
func topCorrectionReason(examples []Example, domain, sdtmVariable string) string {
	counts := map[string]int{}
	for _, ex := range examples {
		if ex.Domain != domain || ex.SDTMVariable != sdtmVariable {
			continue
		}
		if ex.Outcome == OutcomeCorrected || ex.Outcome == OutcomeRejected {
			if ex.Reason != "" {
				counts[ex.Reason]++
			}
		}
	}
	best, bestCount := "", 0
	for reason, n := range counts {
		if n > bestCount {
			best, bestCount = reason, n
		}
	}
	return best
}
