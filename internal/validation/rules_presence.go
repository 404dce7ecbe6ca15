package validation

import "github.com/sanmaysarada/astraea/internal/reference"

// rulePresenceRequired flags Req variables missing from a domain's output
// or null/empty in any row.
var rulePresenceRequired = Rule{
	ID:          "PRES-001",
	Description: "Req core variables must be present and populated in every row",
	Category:    CategoryPresence,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			spec := ctx.Store.GetDomainSpec(domainCode)
			if spec == nil {
				continue
			}
			mapped := make(map[string]bool, len(dd.Table.ColumnOrder))
			for _, c := range dd.Table.ColumnOrder {
				mapped[c] = true
			}
			for _, v := range spec.RequiredVariables() {
				if !mapped[v.Name] {
					out = append(out, RuleResult{
						RuleID: "PRES-001", Domain: domainCode, Variable: v.Name,
						Severity: SeverityError, Category: CategoryPresence,
						Message: "required variable not present in output",
					})
					continue
				}
				missing := 0
				for _, row := range dd.Table.Rows {
					if row[v.Name] == "" {
						missing++
					}
				}
				if missing > 0 {
					out = append(out, RuleResult{
						RuleID: "PRES-001", Domain: domainCode, Variable: v.Name,
						Severity: SeverityError, Category: CategoryPresence,
						Message:       "required variable has empty values",
						AffectedCount: missing,
					})
				}
			}
		}
		return out
	},
}

// rulePresenceExpected flags Exp variables missing from the output as
// warnings rather than errors. Empty values in a present Exp column are not
// flagged.
var rulePresenceExpected = Rule{
	ID:          "PRES-002",
	Description: "Exp core variables should be present",
	Category:    CategoryPresence,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			spec := ctx.Store.GetDomainSpec(domainCode)
			if spec == nil {
				continue
			}
			mapped := make(map[string]bool, len(dd.Table.ColumnOrder))
			for _, c := range dd.Table.ColumnOrder {
				mapped[c] = true
			}
			for _, v := range spec.Variables {
				if v.Core != reference.CoreExp {
					continue
				}
				if !mapped[v.Name] {
					out = append(out, RuleResult{
						RuleID: "PRES-002", Domain: domainCode, Variable: v.Name,
						Severity: SeverityWarning, Category: CategoryPresence,
						Message: "expected variable not present in output",
					})
				}
			}
		}
		return out
	},
}

// rulePresenceUSUBJID requires USUBJID non-null on every row of every
// domain, and requires every domain to have at least one record.
var rulePresenceUSUBJID = Rule{
	ID:          "PRES-003",
	Description: "USUBJID must be populated on every record; every domain must have at least one record",
	Category:    CategoryPresence,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			if len(dd.Table.Rows) == 0 {
				out = append(out, RuleResult{
					RuleID: "PRES-003", Domain: domainCode,
					Severity: SeverityWarning, Category: CategoryPresence,
					Message: "domain has no records",
				})
				continue
			}
			missing := 0
			for _, row := range dd.Table.Rows {
				if row["USUBJID"] == "" {
					missing++
				}
			}
			if missing > 0 {
				out = append(out, RuleResult{
					RuleID: "PRES-003", Domain: domainCode, Variable: "USUBJID",
					Severity: SeverityError, Category: CategoryPresence,
					Message:       "USUBJID missing on record(s)",
					AffectedCount: missing,
				})
			}
		}
		return out
	},
}

// rulePresenceDM checks DM-specific shape: one row per USUBJID, the four
// arm variables present, and ACTARM equal to ARM for every subject (a
// warning, since the two legitimately diverge after randomization changes).
var rulePresenceDM = Rule{
	ID:          "PRES-004",
	Description: "DM must have exactly one row per subject and complete arm variables",
	Category:    CategoryPresence,
	Evaluate: func(ctx EvalContext) []RuleResult {
		dd, ok := ctx.Domains["DM"]
		if !ok {
			return nil
		}
		var out []RuleResult
		seen := map[string]int{}
		for _, row := range dd.Table.Rows {
			seen[row["USUBJID"]]++
		}
		dupes := 0
		for _, n := range seen {
			if n > 1 {
				dupes++
			}
		}
		if dupes > 0 {
			out = append(out, RuleResult{
				RuleID: "PRES-004", Domain: "DM", Variable: "USUBJID",
				Severity: SeverityError, Category: CategoryPresence,
				Message:       "subject(s) have more than one DM record",
				AffectedCount: dupes,
			})
		}
		armMissing, actarmMismatch := 0, 0
		for _, row := range dd.Table.Rows {
			if row["ARM"] == "" || row["ARMCD"] == "" || row["ACTARM"] == "" || row["ACTARMCD"] == "" {
				armMissing++
			}
			if row["ACTARM"] != row["ARM"] {
				actarmMismatch++
			}
		}
		if armMissing > 0 {
			out = append(out, RuleResult{
				RuleID: "PRES-004", Domain: "DM", Variable: "ARM",
				Severity: SeverityError, Category: CategoryPresence,
				Message:       "ARM/ARMCD/ACTARM/ACTARMCD must all be populated",
				AffectedCount: armMissing,
			})
		}
		if actarmMismatch > 0 {
			out = append(out, RuleResult{
				RuleID: "PRES-004", Domain: "DM", Variable: "ACTARM",
				Severity: SeverityWarning, Category: CategoryPresence,
				Message:       "ACTARM differs from ARM",
				AffectedCount: actarmMismatch,
			})
		}
		return out
	},
}

// rulePopulationFlagsAbsent flags any ADaM-style population flag variable
// (*FL) that leaked into DM: these belong in ADaM, never in SDTM DM.
var rulePopulationFlagsAbsent = Rule{
	ID:          "FDA-012",
	Description: "DM must not carry ADaM population-flag variables",
	Category:    CategoryFDABusiness,
	Evaluate: func(ctx EvalContext) []RuleResult {
		dd, ok := ctx.Domains["DM"]
		if !ok {
			return nil
		}
		var out []RuleResult
		for _, c := range dd.Table.ColumnOrder {
			if len(c) >= 2 && c[len(c)-2:] == "FL" {
				out = append(out, RuleResult{
					RuleID: "FDA-012", Domain: "DM", Variable: c,
					Severity: SeverityError, Category: CategoryFDABusiness,
					Message: "population-flag variable must not appear in DM",
				})
			}
		}
		return out
	},
}
