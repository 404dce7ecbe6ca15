// Package packaging assembles the three submission artifacts spec.md §6
// names: define.xml (ODM 1.3.2 + define-2.0), the cSDRG narrative, and the
// eCTD directory layout that ties them to the serialized domain datasets.
package packaging

import (
	"github.com/sanmaysarada/astraea/internal/mapping"
	"github.com/sanmaysarada/astraea/internal/table"
	"github.com/sanmaysarada/astraea/internal/validation"
)

// DatasetSerializer writes one domain's table to its on-wire transport
// format. spec.md §1 treats XPT writers as a pluggable external
// serializer; packaging only calls this interface, it never encodes XPT
// itself.
type DatasetSerializer interface {
	WriteDataset(t *table.Table, path string) error
}

// Config is the packager's input: every domain table plus its reviewed
// mapping spec, the trial-design TS table (for cSDRG section 2 and the
// FDA-TRC gate), and the accumulated validation findings.
type Config struct {
	StudyID       string
	OutputDir     string // submission root; datasets land at {OutputDir}/m5/datasets/tabulations/sdtm
	Domains       map[string]*table.Table
	Specs         map[string]mapping.DomainMappingSpec
	TS            *table.Table
	Findings      []validation.RuleResult
	Serializer    DatasetSerializer
}

// Stats summarizes one packaging run.
type Stats struct {
	DatasetsWritten int
	SuppqualWritten int
	ErrorFindings   int
	WarningFindings int
}

// tabulationsDir is the eCTD-relative path datasets and define.xml live
// under, per spec.md §4.12/§6: {root}/m5/datasets/tabulations/sdtm.
const tabulationsDir = "m5/datasets/tabulations/sdtm"
