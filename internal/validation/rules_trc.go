package validation

import (
	"os"
	"path/filepath"
	"strings"
)

// tsCriticalFDATRC are the TS parameters the FDA Technical Rejection
// Criteria gate checks for individually.
var tsCriticalFDATRC = []string{"SSTDTC", "SDTMVER", "STYPE", "TITLE"}

// ruleTRCDMPresent requires DM to be present: a submission without DM
// cannot be validated against Technical Rejection Criteria at all.
var ruleTRCDMPresent = Rule{
	ID:          "TRC-001",
	Description: "DM must be present for FDA Technical Rejection Criteria",
	Category:    CategoryFDATRC,
	Evaluate: func(ctx EvalContext) []RuleResult {
		if ctx.OutputDir == "" {
			return nil
		}
		if _, ok := ctx.Domains["DM"]; !ok {
			return []RuleResult{{
				RuleID: "TRC-001", Domain: "DM",
				Severity: SeverityError, Category: CategoryFDATRC,
				Message: "DM domain is required and absent",
			}}
		}
		return nil
	},
}

// ruleTRCTSParams requires TS to be present with each critical parameter
// populated, per individual rule ids so a reviewer can see exactly which
// parameter failed.
var ruleTRCTSParams = Rule{
	ID:          "TRC-002",
	Description: "TS must carry SSTDTC, SDTMVER, STYPE, and TITLE",
	Category:    CategoryFDATRC,
	Evaluate: func(ctx EvalContext) []RuleResult {
		if ctx.OutputDir == "" {
			return nil
		}
		ts, ok := ctx.Domains["TS"]
		if !ok {
			return []RuleResult{{
				RuleID: "TRC-002", Domain: "TS",
				Severity: SeverityError, Category: CategoryFDATRC,
				Message: "TS domain is required and absent",
			}}
		}
		present := map[string]bool{}
		for _, row := range ts.Table.Rows {
			if row["TSVAL"] != "" {
				present[row["TSPARMCD"]] = true
			}
		}
		var out []RuleResult
		for _, p := range tsCriticalFDATRC {
			if !present[p] {
				out = append(out, RuleResult{
					RuleID: "TRC-002-" + p, Domain: "TS", Variable: p,
					Severity: SeverityError, Category: CategoryFDATRC,
					Message: "required TS parameter " + p + " is missing or empty",
				})
			}
		}
		return out
	},
}

// ruleTRCDefineXMLPresent requires define.xml to exist alongside the
// generated domain datasets.
var ruleTRCDefineXMLPresent = Rule{
	ID:          "TRC-003",
	Description: "define.xml must be present in the output directory",
	Category:    CategoryFDATRC,
	Evaluate: func(ctx EvalContext) []RuleResult {
		if ctx.OutputDir == "" {
			return nil
		}
		if _, err := os.Stat(filepath.Join(ctx.OutputDir, "define.xml")); err != nil {
			return []RuleResult{{
				RuleID: "TRC-003",
				Severity: SeverityError, Category: CategoryFDATRC,
				Message: "define.xml is absent from the output directory",
			}}
		}
		return nil
	},
}

// ruleTRCSTUDYIDConsistent requires STUDYID to match ctx.StudyID across
// every domain, the cross-domain sibling of CONS-002 scoped specifically to
// the submission's declared study identifier.
var ruleTRCSTUDYIDConsistent = Rule{
	ID:          "TRC-004",
	Description: "STUDYID must match the declared study identifier",
	Category:    CategoryFDATRC,
	Evaluate: func(ctx EvalContext) []RuleResult {
		if ctx.OutputDir == "" || ctx.StudyID == "" {
			return nil
		}
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			mismatches := 0
			for _, row := range dd.Table.Rows {
				if v := row["STUDYID"]; v != "" && v != ctx.StudyID {
					mismatches++
				}
			}
			if mismatches > 0 {
				out = append(out, RuleResult{
					RuleID: "TRC-004", Domain: domainCode, Variable: "STUDYID",
					Severity: SeverityError, Category: CategoryFDATRC,
					Message:       "STUDYID does not match declared study identifier " + ctx.StudyID,
					AffectedCount: mismatches,
				})
			}
		}
		return out
	},
}

// ruleTRCFilenamesLowercase requires every serialized dataset filename in
// the output directory to be lowercase with a .xpt extension.
var ruleTRCFilenamesLowercase = Rule{
	ID:          "TRC-005",
	Description: "dataset filenames must be lowercase .xpt",
	Category:    CategoryFDATRC,
	Evaluate: func(ctx EvalContext) []RuleResult {
		if ctx.OutputDir == "" {
			return nil
		}
		entries, err := os.ReadDir(ctx.OutputDir)
		if err != nil {
			return nil
		}
		var out []RuleResult
		for _, e := range entries {
			name := e.Name()
			if !strings.HasSuffix(name, ".xpt") {
				continue
			}
			if name != strings.ToLower(name) {
				out = append(out, RuleResult{
					RuleID: "TRC-005", Variable: name,
					Severity: SeverityError, Category: CategoryFDATRC,
					Message: "dataset filename must be lowercase",
				})
			}
		}
		return out
	},
}
