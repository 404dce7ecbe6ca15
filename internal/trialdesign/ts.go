// Package trialdesign builds the config-driven Trial Design domains (TS,
// SV, TA, TE, TV, TI) and the out-of-scope RELREC stub. None of these
// invoke the LLM; every row comes from a TSConfig/TrialDesignConfig or from
// DM-derived values.
package trialdesign

import (
	"fmt"

	"github.com/sanmaysarada/astraea/internal/table"
)

// fdaRequiredTSParams is the >=26-code FDA-required parameter set spec.md
// §4.10 enumerates. ValidateTSCompleteness reports any absent from here.
var fdaRequiredTSParams = []string{
	"SSTDTC", "SENDTC", "SPONSOR", "TITLE", "INDIC", "TRT", "STYPE",
	"SDTMVER", "TPHASE", "PLANSUB", "RANDOM", "SEXPOP", "TBLIND", "TCNTRL",
	"NARMS", "OBJPRIM", "FCNTRY", "AGEMIN", "AGEMAX", "ADDON", "DCUTDTC",
	"DCUTDESC", "TTYPE", "STOPRULE", "LENGTH", "CURTRT",
}

// tsCriticalParams is the rejection-critical subset the FDA-TRC rules
// escalate from WARNING to ERROR when missing.
var tsCriticalParams = map[string]bool{
	"SSTDTC": true, "SDTMVER": true, "STYPE": true, "TITLE": true,
}

// TSParam is one TSConfig-supplied trial summary parameter.
type TSParam struct {
	Code string // TSPARMCD
	Name string // TSPARM
	Val  string // TSVAL
}

// TSConfig carries the study-level trial-summary parameters a sponsor
// supplies up front; SSTDTC/SENDTC are appended from DM rather than
// supplied here.
type TSConfig struct {
	StudyID string
	Params  []TSParam
}

// BuildTS emits one row per configured parameter plus DM-derived
// SSTDTC/SENDTC (study start/end date, the min/max RFSTDTC across all
// subjects).
func BuildTS(cfg TSConfig, dm *table.Table) *table.Table {
	out := &table.Table{Domain: "TS"}
	seq := 0
	add := func(code, name, val string) {
		seq++
		out.Rows = append(out.Rows, table.Row{
			"STUDYID":  cfg.StudyID,
			"TSSEQ":    fmt.Sprintf("%d", seq),
			"TSPARMCD": code,
			"TSPARM":   name,
			"TSVAL":    val,
		})
	}

	for _, p := range cfg.Params {
		add(p.Code, p.Name, p.Val)
	}

	if dm != nil {
		if min, max, ok := rfstdtcRange(dm); ok {
			add("SSTDTC", "Study Start Date", min)
			add("SENDTC", "Study End Date", max)
		}
	}

	return out
}

func rfstdtcRange(dm *table.Table) (min, max string, ok bool) {
	for _, row := range dm.Rows {
		v := row["RFSTDTC"]
		if v == "" {
			continue
		}
		if !ok || v < min {
			min = v
		}
		if !ok || v > max {
			max = v
		}
		ok = true
	}
	return min, max, ok
}

// ValidateTSCompleteness reports which FDA-required parameters are absent.
// It assigns no severity; callers decide it from the two lists. The
// validation engine does not call it.
func ValidateTSCompleteness(ts *table.Table) (missing []string, criticalMissing []string) {
	present := make(map[string]bool)
	for _, row := range ts.Rows {
		present[row["TSPARMCD"]] = true
	}
	for _, code := range fdaRequiredTSParams {
		if !present[code] {
			missing = append(missing, code)
			if tsCriticalParams[code] {
				criticalMissing = append(criticalMissing, code)
			}
		}
	}
	return missing, criticalMissing
}
