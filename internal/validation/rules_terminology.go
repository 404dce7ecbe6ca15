package validation

// ruleCTMembership checks every variable bound to a codelist for
// codelist-membership: non-extensible misses are ERROR, extensible misses
// are WARNING.
var ruleCTMembership = Rule{
	ID:          "CT-001",
	Description: "variable values bound to a codelist must be codelist members",
	Category:    CategoryTerminology,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			for _, m := range dd.Spec.VariableMappings {
				if m.CodelistCode == "" {
					continue
				}
				cl := ctx.Store.LookupCodelist(m.CodelistCode)
				if cl == nil {
					continue
				}
				severity := SeverityWarning
				if !cl.Extensible {
					severity = SeverityError
				}
				count := 0
				for _, row := range dd.Table.Rows {
					v := row[m.SDTMVariable]
					if v == "" {
						continue
					}
					if !cl.HasTerm(v) {
						count++
					}
				}
				if count > 0 {
					out = append(out, RuleResult{
						RuleID: "CT-001", Domain: domainCode, Variable: m.SDTMVariable,
						Severity: severity, Category: CategoryTerminology,
						Message:       "value(s) not found in codelist " + m.CodelistCode,
						AffectedCount: count,
					})
				}
			}
		}
		return out
	},
}
