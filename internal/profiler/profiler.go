// Package profiler reads a raw tabular dataset's rows plus an external
// column-metadata map and emits a DatasetProfile: per-variable statistics,
// sample values, and a detection of whether the dataset already arrives in
// SDTM-preformatted shape. The raw reader itself (tabular-with-metadata file
// parsing) is out of scope — this package only consumes the already-read
// rows and the metadata map the reader produces.
package profiler

import (
	"sort"
	"strings"

	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/sanmaysarada/astraea/internal/study"
)

// ColumnMeta is the external reader's metadata for one column.
type ColumnMeta struct {
	Label string
	DType string
}

// edcSystemColumns are vendor bookkeeping identifiers that carry no
// clinical meaning and should never reach the LLM-facing context.
var edcSystemColumns = map[string]bool{
	"SUBJECTID": true, "SITEID": true, "FOLDERID": true, "FOLDERNAME": true,
	"FOLDERSEQ": true, "FORMID": true, "FORMNAME": true, "FORMSEQ": true,
	"RECORDID": true, "RECORDPOSITION": true, "SAVETS": true, "MINCREATED": true,
	"MAXUPDATED": true, "INSTANCENAME": true, "INSTANCEID": true,
}

const sampleValueLimit = 5

// ProfileDataset scans rows (each a column-name → raw-string-value map, in
// row order) against the reader's column metadata and produces a
// DatasetProfile. Column order in the output follows the metadata map's
// iteration-independent sorted order, so profiles are deterministic across
// runs regardless of map iteration.
func ProfileDataset(filename string, rows []map[string]string, meta map[string]ColumnMeta, store *reference.Store) study.DatasetProfile {
	names := make([]string, 0, len(meta))
	for name := range meta {
		names = append(names, name)
	}
	sort.Strings(names)

	variables := make([]study.VariableProfile, 0, len(names))
	for _, name := range names {
		variables = append(variables, profileVariable(name, meta[name], rows))
	}

	profile := study.DatasetProfile{
		Filename:       filename,
		RowCount:       len(rows),
		Variables:      variables,
		DomainMetadata: map[string]string{},
	}
	profile.IsSDTMPreformatted = detectPreformatted(&profile, store)
	return profile
}

func profileVariable(name string, meta ColumnMeta, rows []map[string]string) study.VariableProfile {
	seen := make(map[string]bool)
	var samples []string
	missing := 0

	for _, row := range rows {
		v, ok := row[name]
		if !ok || strings.TrimSpace(v) == "" {
			missing++
			continue
		}
		if !seen[v] {
			seen[v] = true
			if len(samples) < sampleValueLimit {
				samples = append(samples, v)
			}
		}
	}

	return study.VariableProfile{
		Name:              name,
		Label:             meta.Label,
		DType:             meta.DType,
		NUnique:           len(seen),
		NMissing:          missing,
		SampleValues:      samples,
		IsEDCSystemColumn: edcSystemColumns[strings.ToUpper(name)],
	}
}

// findingsSuffixes are the column-name suffixes characteristic of SDTM
// Findings-class domains; three or more sharing a common 2-letter prefix is
// strong evidence the dataset already arrived SDTM-shaped.
var findingsSuffixes = []string{"TESTCD", "TEST", "ORRES", "STRESC", "STRESN"}

func detectPreformatted(p *study.DatasetProfile, store *reference.Store) bool {
	if dv := p.VariableByName("DOMAIN"); dv != nil {
		for _, code := range store.DomainCodes() {
			for _, sample := range dv.SampleValues {
				if strings.EqualFold(sample, code) {
					return true
				}
			}
		}
	}

	prefixCounts := make(map[string]int)
	for _, v := range p.Variables {
		upper := strings.ToUpper(v.Name)
		for _, suffix := range findingsSuffixes {
			if strings.HasSuffix(upper, suffix) && len(upper) > len(suffix)+1 {
				prefix := upper[:2]
				if strings.HasPrefix(upper, prefix) {
					prefixCounts[prefix]++
				}
			}
		}
	}
	for _, count := range prefixCounts {
		if count >= 3 {
			return true
		}
	}
	return false
}
