package trialdesign

import (
	"fmt"

	"github.com/sanmaysarada/astraea/internal/table"
)

// ArmConfig is one study arm (TA/TA.ARMCD).
type ArmConfig struct {
	ArmCD string
	Arm   string
}

// ElementConfig is one trial element a subject passes through within an arm
// (TA.ETCD ordering plus TE's element definitions).
type ElementConfig struct {
	ETCD        string
	Element     string
	ArmCD       string
	Order       int
	TEStartRule string
	TEEndRule   string
}

// VisitConfig is one planned visit (TV).
type VisitConfig struct {
	VisitNum int
	Visit    string
	ArmCD    string // empty if the visit is common to all arms
}

// CriterionConfig is one inclusion/exclusion criterion (TI).
type CriterionConfig struct {
	IETestCD string
	IETest   string
	IECat    string // "INCLUSION" or "EXCLUSION"
}

// TrialDesignConfig is the sponsor-supplied configuration BuildTA/TE/TV/TI
// render directly; none of it is inferred from raw data.
type TrialDesignConfig struct {
	StudyID    string
	Arms       []ArmConfig
	Elements   []ElementConfig
	Visits     []VisitConfig
	Criteria   []CriterionConfig
}

// BuildTA renders one row per configured (arm, element) pair, in
// configuration order, with TAETORD taken from Element.Order.
func BuildTA(cfg TrialDesignConfig) *table.Table {
	out := &table.Table{Domain: "TA"}
	for _, e := range cfg.Elements {
		out.Rows = append(out.Rows, table.Row{
			"STUDYID": cfg.StudyID,
			"ARMCD":   e.ArmCD,
			"ETCD":    e.ETCD,
			"ELEMENT": e.Element,
			"TAETORD": fmt.Sprintf("%d", e.Order),
		})
	}
	return out
}

// BuildTE renders one row per distinct element definition.
func BuildTE(cfg TrialDesignConfig) *table.Table {
	out := &table.Table{Domain: "TE"}
	seen := make(map[string]bool)
	for _, e := range cfg.Elements {
		if seen[e.ETCD] {
			continue
		}
		seen[e.ETCD] = true
		out.Rows = append(out.Rows, table.Row{
			"STUDYID":  cfg.StudyID,
			"ETCD":     e.ETCD,
			"ELEMENT":  e.Element,
			"TESTRL":   e.TEStartRule,
			"TEENRL":   e.TEEndRule,
		})
	}
	return out
}

// BuildTV renders one row per planned visit.
func BuildTV(cfg TrialDesignConfig) *table.Table {
	out := &table.Table{Domain: "TV"}
	for _, v := range cfg.Visits {
		out.Rows = append(out.Rows, table.Row{
			"STUDYID":  cfg.StudyID,
			"VISITNUM": fmt.Sprintf("%d", v.VisitNum),
			"VISIT":    v.Visit,
			"ARMCD":    v.ArmCD,
		})
	}
	return out
}

// BuildTI renders one row per inclusion/exclusion criterion.
func BuildTI(cfg TrialDesignConfig) *table.Table {
	out := &table.Table{Domain: "TI"}
	for _, c := range cfg.Criteria {
		out.Rows = append(out.Rows, table.Row{
			"STUDYID":  cfg.StudyID,
			"IETESTCD": c.IETestCD,
			"IETEST":   c.IETest,
			"IECAT":    c.IECat,
		})
	}
	return out
}
