package validation

import (
	"regexp"
	"unicode"

	"github.com/sanmaysarada/astraea/internal/transform"
)

var dtcPattern = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2}(T\d{2}:\d{2}(:\d{2})?(Z|[+-]\d{2}:\d{2})?)?)?)?$`)

// ruleVariableNameLength enforces the XPT 8-character variable-name limit.
var ruleVariableNameLength = Rule{
	ID:          "LIM-001",
	Description: "variable names must be 8 characters or fewer",
	Category:    CategoryLimits,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			for _, c := range dd.Table.ColumnOrder {
				if len(c) > 8 {
					out = append(out, RuleResult{
						RuleID: "LIM-001", Domain: domainCode, Variable: c,
						Severity: SeverityError, Category: CategoryLimits,
						Message: "variable name exceeds 8 characters",
					})
				}
			}
		}
		return out
	},
}

// ruleVariableLabelLength enforces the XPT 40-character variable-label
// limit, checked against each mapping's SDTM label.
var ruleVariableLabelLength = Rule{
	ID:          "LIM-002",
	Description: "variable labels must be 40 characters or fewer",
	Category:    CategoryLimits,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			for _, m := range dd.Spec.VariableMappings {
				if len(m.SDTMLabel) > 40 {
					out = append(out, RuleResult{
						RuleID: "LIM-002", Domain: domainCode, Variable: m.SDTMVariable,
						Severity: SeverityError, Category: CategoryLimits,
						Message: "variable label exceeds 40 characters",
					})
				}
			}
		}
		return out
	},
}

// ruleCharValueWidth enforces the XPT 200-byte character-value limit.
var ruleCharValueWidth = Rule{
	ID:          "LIM-003",
	Description: "character values must be 200 bytes or fewer",
	Category:    CategoryLimits,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			for _, col := range dd.Table.ColumnOrder {
				count := 0
				for _, row := range dd.Table.Rows {
					if len(row[col]) > transform.MaxCharBytes {
						count++
					}
				}
				if count > 0 {
					out = append(out, RuleResult{
						RuleID: "LIM-003", Domain: domainCode, Variable: col,
						Severity: SeverityError, Category: CategoryLimits,
						Message:       "value(s) exceed 200-byte character width",
						AffectedCount: count,
					})
				}
			}
		}
		return out
	},
}

// ruleDTCFormat enforces ISO 8601 (date, optionally extended with time and
// timezone) on every --DTC variable.
var ruleDTCFormat = Rule{
	ID:          "FMT-001",
	Description: "--DTC variables must be ISO 8601",
	Category:    CategoryFormat,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			for _, col := range dd.Table.ColumnOrder {
				if len(col) < 3 || col[len(col)-3:] != "DTC" {
					continue
				}
				bad := 0
				for _, row := range dd.Table.Rows {
					v := row[col]
					if v == "" {
						continue
					}
					if !dtcPattern.MatchString(v) {
						bad++
					}
				}
				if bad > 0 {
					out = append(out, RuleResult{
						RuleID: "FMT-001", Domain: domainCode, Variable: col,
						Severity: SeverityError, Category: CategoryFormat,
						Message:       "value(s) are not valid ISO 8601",
						AffectedCount: bad,
					})
				}
			}
		}
		return out
	},
}

// ruleASCIIOnly enforces that character values use only ASCII, per FDA-TRC
// guidance (spec.md §4.12).
var ruleASCIIOnly = Rule{
	ID:          "FMT-002",
	Description: "character data must be ASCII-only",
	Category:    CategoryFormat,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			for _, col := range dd.Table.ColumnOrder {
				bad := 0
				for _, row := range dd.Table.Rows {
					for _, r := range row[col] {
						if r > unicode.MaxASCII {
							bad++
							break
						}
					}
				}
				if bad > 0 {
					out = append(out, RuleResult{
						RuleID: "FMT-002", Domain: domainCode, Variable: col,
						Severity: SeverityError, Category: CategoryFormat,
						Message:       "value(s) contain non-ASCII characters",
						AffectedCount: bad,
					})
				}
			}
		}
		return out
	},
}

var domainCodePattern = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]?$`)

// ruleDomainFilename checks that the domain code serializes to a valid
// lowercase eCTD filename stem (2-3 alphanumerics).
var ruleDomainFilename = Rule{
	ID:          "FMT-003",
	Description: "domain code must be valid for a serialized submission filename",
	Category:    CategoryFormat,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode := range ctx.Domains {
			if !domainCodePattern.MatchString(domainCode) {
				out = append(out, RuleResult{
					RuleID: "FMT-003", Domain: domainCode,
					Severity: SeverityError, Category: CategoryFormat,
					Message: "domain code is not valid for a submission filename",
				})
			}
		}
		return out
	},
}
