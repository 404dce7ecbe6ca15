package transform

import "strings"

// VisitDef is one row of a study's visit schedule: the raw source visit
// label, its canonical SDTM VISIT name, and its ordinal VISITNUM.
type VisitDef struct {
	RawLabel string
	Visit    string
	VisitNum float64
}

// VisitMap resolves a raw source visit label to its canonical SDTM VISIT
// name and VISITNUM, matching case-insensitively and trimming whitespace —
// EDC systems are inconsistent about casing on visit labels far more often
// than they differ in the label text itself.
type VisitMap struct {
	byLabel map[string]VisitDef
}

// NewVisitMap builds a lookup map from a study's visit schedule.
func NewVisitMap(defs []VisitDef) *VisitMap {
	m := &VisitMap{byLabel: make(map[string]VisitDef, len(defs))}
	for _, d := range defs {
		m.byLabel[strings.ToLower(strings.TrimSpace(d.RawLabel))] = d
	}
	return m
}

// Resolve returns the VisitDef for raw, or ok=false if the study's visit
// schedule has no entry for it.
func (m *VisitMap) Resolve(raw string) (VisitDef, bool) {
	d, ok := m.byLabel[strings.ToLower(strings.TrimSpace(raw))]
	return d, ok
}
