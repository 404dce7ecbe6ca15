package transform

import (
	"fmt"
	"strings"
)

// ComposeUSUBJID builds the unique subject identifier by joining the study
// ID, optionally the site ID, and the subject ID with a hyphen, skipping any
// empty component. USUBJID must be globally unique across the submission,
// so siteID should be included whenever the source subject identifier is
// only unique within a site.
func ComposeUSUBJID(studyID, siteID, subjectID string) (string, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return "", fmt.Errorf("transform: empty subject id")
	}
	studyID = strings.TrimSpace(studyID)
	if studyID == "" {
		return "", fmt.Errorf("transform: empty study id")
	}
	siteID = strings.TrimSpace(siteID)

	parts := make([]string, 0, 3)
	parts = append(parts, studyID)
	if siteID != "" {
		parts = append(parts, siteID)
	}
	parts = append(parts, subjectID)
	return strings.Join(parts, "-"), nil
}

// Epoch resolves which trial epoch a date falls into, given a list of
// epochs ordered by start date. An epoch's window is [start, nextStart) —
// the next epoch's start date is strictly exclusive from the prior epoch, so
// a date equal to the boundary belongs to the epoch that begins on it, never
// the one that ends on it. When dateISO falls before the first epoch's start
// (or cannot be parsed), ok is false; any date on or after the last epoch's
// start resolves to the last epoch.
type EpochWindow struct {
	Name      string
	StartISO  string
}

func ResolveEpoch(windows []EpochWindow, dateISO string) (name string, ok bool) {
	if len(windows) == 0 {
		return "", false
	}
	target, err := parseISODateOnly(dateISO)
	if err != nil {
		return "", false
	}

	best := -1
	for i, w := range windows {
		start, werr := parseISODateOnly(w.StartISO)
		if werr != nil {
			continue
		}
		if !target.Before(start) {
			if best == -1 {
				best = i
			} else {
				bestStart, _ := parseISODateOnly(windows[best].StartISO)
				if start.After(bestStart) {
					best = i
				}
			}
		}
	}
	if best == -1 {
		return "", false
	}
	return windows[best].Name, true
}
