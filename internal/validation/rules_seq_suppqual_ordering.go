package validation

import "regexp"

// ruleSEQUniquePerSubject requires --SEQ to be unique within each USUBJID.
var ruleSEQUniquePerSubject = Rule{
	ID:          "SEQ-001",
	Description: "--SEQ must be unique within each subject",
	Category:    CategoryConsistency,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			seqVar := domainCode + "SEQ"
			if !dd.Table.HasColumn(seqVar) {
				continue
			}
			seen := map[string]bool{}
			dupes := 0
			for _, row := range dd.Table.Rows {
				key := row["USUBJID"] + "\x00" + row[seqVar]
				if seen[key] {
					dupes++
				}
				seen[key] = true
			}
			if dupes > 0 {
				out = append(out, RuleResult{
					RuleID: "SEQ-001", Domain: domainCode, Variable: seqVar,
					Severity: SeverityError, Category: CategoryConsistency,
					Message:       seqVar + " duplicated within a subject",
					AffectedCount: dupes,
				})
			}
		}
		return out
	},
}

var validRDOMAINs = map[string]bool{
	"DM": true, "AE": true, "CM": true, "EX": true, "LB": true, "LC": true,
	"VS": true, "MH": true, "DS": true, "SE": true, "SV": true,
}

var qnamPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,7}$`)

// ruleSuppqualIntegrity requires RDOMAIN to name a real domain, QNAM to
// match the XPT-safe naming pattern, and (USUBJID, IDVARVAL, QNAM) to be
// unique within a SUPPQUAL dataset.
var ruleSuppqualIntegrity = Rule{
	ID:          "SUPP-001",
	Description: "SUPPQUAL records must reference a valid domain, a well-formed QNAM, and be free of duplicates",
	Category:    CategorySuppqual,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			if len(domainCode) < 4 || domainCode[:4] != "SUPP" {
				continue
			}
			badRDOMAIN, badQNAM := 0, 0
			seen := map[string]bool{}
			dupes := 0
			for _, row := range dd.Table.Rows {
				if !validRDOMAINs[row["RDOMAIN"]] {
					badRDOMAIN++
				}
				if !qnamPattern.MatchString(row["QNAM"]) {
					badQNAM++
				}
				key := row["USUBJID"] + "\x00" + row["IDVARVAL"] + "\x00" + row["QNAM"]
				if seen[key] {
					dupes++
				}
				seen[key] = true
			}
			if badRDOMAIN > 0 {
				out = append(out, RuleResult{
					RuleID: "SUPP-001", Domain: domainCode, Variable: "RDOMAIN",
					Severity: SeverityError, Category: CategorySuppqual,
					Message: "RDOMAIN does not reference a valid domain", AffectedCount: badRDOMAIN,
				})
			}
			if badQNAM > 0 {
				out = append(out, RuleResult{
					RuleID: "SUPP-001", Domain: domainCode, Variable: "QNAM",
					Severity: SeverityError, Category: CategorySuppqual,
					Message: "QNAM is not a valid XPT identifier", AffectedCount: badQNAM,
				})
			}
			if dupes > 0 {
				out = append(out, RuleResult{
					RuleID: "SUPP-001", Domain: domainCode,
					Severity: SeverityError, Category: CategorySuppqual,
					Message: "duplicate (USUBJID, IDVARVAL, QNAM) combination", AffectedCount: dupes,
				})
			}
		}
		return out
	},
}

// ruleVariableOrdering warns when a domain's output column order diverges
// from the reference spec's declared variable order.
var ruleVariableOrdering = Rule{
	ID:          "ORD-001",
	Description: "output variable order should follow the reference spec's declared order",
	Category:    CategoryOrdering,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			spec := ctx.Store.GetDomainSpec(domainCode)
			if spec == nil {
				continue
			}
			rank := make(map[string]int, len(spec.Variables))
			for _, v := range spec.Variables {
				rank[v.Name] = v.Order
			}
			last := -1
			outOfOrder := 0
			for _, c := range dd.Table.ColumnOrder {
				r, ok := rank[c]
				if !ok {
					continue
				}
				if r < last {
					outOfOrder++
				}
				last = r
			}
			if outOfOrder > 0 {
				out = append(out, RuleResult{
					RuleID: "ORD-001", Domain: domainCode,
					Severity: SeverityWarning, Category: CategoryOrdering,
					Message:       "output column order diverges from reference spec order",
					AffectedCount: outOfOrder,
				})
			}
		}
		return out
	},
}
