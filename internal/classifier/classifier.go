// Package classifier scores each profiled source dataset against every
// bundled SDTM domain using filename and variable-overlap heuristics, and
// groups datasets that plausibly belong to the same domain.
package classifier

import (
	"sort"
	"strings"

	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/sanmaysarada/astraea/internal/study"
)

// sharedIdentifiers are excluded from the variable-overlap signal: every
// domain carries them, so their presence says nothing about which domain a
// dataset belongs to.
var sharedIdentifiers = map[string]bool{
	"STUDYID": true, "DOMAIN": true, "USUBJID": true, "SUBJID": true, "SITEID": true,
}

// minClassifiableScore is the floor below which a dataset is UNCLASSIFIED.
const minClassifiableScore = 0.3

// DomainScore is one dataset's score against one candidate domain.
type DomainScore struct {
	DomainCode string
	Score      float64
}

// Classification is the classifier's verdict for one dataset.
type Classification struct {
	Filename    string
	TopDomain   string // "" when UNCLASSIFIED
	TopScore    float64
	AllScores   []DomainScore
}

// ClassifyProfile scores profile against every bundled domain and returns
// the per-domain scores plus the winning classification.
func ClassifyProfile(profile *study.DatasetProfile, store *reference.Store) Classification {
	codes := store.DomainCodes()
	sort.Strings(codes)

	scores := make([]DomainScore, 0, len(codes))
	for _, code := range codes {
		domain := store.GetDomainSpec(code)
		if domain == nil {
			continue
		}
		score := combinedScore(profile, domain)
		scores = append(scores, DomainScore{DomainCode: code, Score: score})
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })

	c := Classification{Filename: profile.Filename, AllScores: scores}
	if len(scores) > 0 && scores[0].Score >= minClassifiableScore {
		c.TopDomain = scores[0].DomainCode
		c.TopScore = scores[0].Score
	}
	return c
}

func combinedScore(profile *study.DatasetProfile, domain *reference.Domain) float64 {
	fn := filenameScore(profile.Filename, domain.Code)
	ov := overlapScore(profile, domain)
	if fn > ov {
		return fn
	}
	return ov
}

// filenameScore: exact 2-letter stem ⇒ 1.0; segment-boundary match (the
// domain code appears as a whole segment delimited by "_", "-", or a string
// edge) ⇒ 0.7; otherwise 0.
func filenameScore(filename, domainCode string) float64 {
	stem := filename
	if idx := strings.LastIndex(stem, "."); idx >= 0 {
		stem = stem[:idx]
	}
	upperStem := strings.ToUpper(stem)
	upperCode := strings.ToUpper(domainCode)

	if upperStem == upperCode {
		return 1.0
	}

	segments := strings.FieldsFunc(upperStem, func(r rune) bool { return r == '_' || r == '-' })
	for _, seg := range segments {
		if seg == upperCode {
			return 0.7
		}
	}
	return 0
}

// overlapScore is the fraction of domain-specific variables (excluding
// shared identifiers) whose uppercase prefix appears among the profile's
// column names.
func overlapScore(profile *study.DatasetProfile, domain *reference.Domain) float64 {
	var domainSpecific []string
	for _, v := range domain.Variables {
		if sharedIdentifiers[strings.ToUpper(v.Name)] {
			continue
		}
		domainSpecific = append(domainSpecific, strings.ToUpper(v.Name))
	}
	if len(domainSpecific) == 0 {
		return 0
	}

	matched := 0
	for _, dv := range domainSpecific {
		for _, pv := range profile.Variables {
			if strings.HasPrefix(strings.ToUpper(pv.Name), dv) || strings.HasPrefix(dv, strings.ToUpper(pv.Name)) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(domainSpecific))
}

// MergeGroups groups classifications sharing the same top-scoring domain,
// proposing each group as a candidate multi-source merge (e.g. "ex" and
// "ex_ole" both scoring highest against EX).
func MergeGroups(classifications []Classification) map[string][]string {
	groups := make(map[string][]string)
	for _, c := range classifications {
		if c.TopDomain == "" {
			continue
		}
		groups[c.TopDomain] = append(groups[c.TopDomain], c.Filename)
	}
	return groups
}

// Unclassified returns the filenames with no domain scoring above the
// classifiable floor.
func Unclassified(classifications []Classification) []string {
	var out []string
	for _, c := range classifications {
		if c.TopDomain == "" {
			out = append(out, c.Filename)
		}
	}
	return out
}
