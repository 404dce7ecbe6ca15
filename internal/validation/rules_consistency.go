package validation

import "strconv"

// ruleUSUBJIDSubsetOfDM requires every USUBJID referenced outside DM to
// exist in DM.
var ruleUSUBJIDSubsetOfDM = Rule{
	ID:          "CONS-001",
	Description: "USUBJID values in non-DM domains must exist in DM",
	Category:    CategoryConsistency,
	Evaluate: func(ctx EvalContext) []RuleResult {
		dm, ok := ctx.Domains["DM"]
		if !ok {
			return nil
		}
		known := make(map[string]bool, len(dm.Table.Rows))
		for _, row := range dm.Table.Rows {
			known[row["USUBJID"]] = true
		}
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			if domainCode == "DM" {
				continue
			}
			orphans := 0
			for _, row := range dd.Table.Rows {
				if u := row["USUBJID"]; u != "" && !known[u] {
					orphans++
				}
			}
			if orphans > 0 {
				out = append(out, RuleResult{
					RuleID: "CONS-001", Domain: domainCode, Variable: "USUBJID",
					Severity: SeverityError, Category: CategoryConsistency,
					Message:       "USUBJID not found in DM",
					AffectedCount: orphans,
				})
			}
		}
		return out
	},
}

// ruleSTUDYIDConstant requires STUDYID to be the same single value across
// every domain.
var ruleSTUDYIDConstant = Rule{
	ID:          "CONS-002",
	Description: "STUDYID must be constant across all domains",
	Category:    CategoryConsistency,
	Evaluate: func(ctx EvalContext) []RuleResult {
		values := map[string]bool{}
		for _, dd := range ctx.Domains {
			for _, row := range dd.Table.Rows {
				if v := row["STUDYID"]; v != "" {
					values[v] = true
				}
			}
		}
		if len(values) > 1 {
			return []RuleResult{{
				RuleID: "CONS-002", Variable: "STUDYID",
				Severity: SeverityError, Category: CategoryConsistency,
				Message:       "STUDYID is not constant across domains",
				AffectedCount: len(values),
			}}
		}
		return nil
	},
}

// ruleDYSignConsistency checks that --DY is negative before RFSTDTC and
// non-negative on/after it, per SDTM-IG's day-number convention. A
// mismatch is a WARNING since --DY is frequently assigned by upstream
// tooling this converter does not fully control.
var ruleDYSignConsistency = Rule{
	ID:          "CONS-003",
	Description: "--DY sign must match whether --DTC falls before or on/after RFSTDTC",
	Category:    CategoryConsistency,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			dyVar := domainCode + "DY"
			dtcVar := domainCode + "DTC"
			if !dd.Table.HasColumn(dyVar) || !dd.Table.HasColumn(dtcVar) {
				continue
			}
			mismatches := 0
			for _, row := range dd.Table.Rows {
				dyStr := row[dyVar]
				if dyStr == "" {
					continue
				}
				dy, err := strconv.Atoi(dyStr)
				if err != nil {
					continue
				}
				rfstdtc := row["RFSTDTC"]
				dtc := row[dtcVar]
				if rfstdtc == "" || dtc == "" {
					continue
				}
				before := dtc < rfstdtc
				if before && dy >= 0 {
					mismatches++
				}
				if !before && dy < 0 {
					mismatches++
				}
			}
			if mismatches > 0 {
				out = append(out, RuleResult{
					RuleID: "CONS-003", Domain: domainCode, Variable: dyVar,
					Severity: SeverityWarning, Category: CategoryConsistency,
					Message:       dyVar + " sign inconsistent with " + dtcVar + " relative to RFSTDTC",
					AffectedCount: mismatches,
				})
			}
		}
		return out
	},
}
