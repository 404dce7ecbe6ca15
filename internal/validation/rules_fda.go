package validation

import (
	"strconv"

	"github.com/sanmaysarada/astraea/internal/handlers"
)

// ruleSEXETHNICNonExtensible confirms SEX and ETHNIC, both non-extensible
// per CDISC CT, never carry sponsor-invented terms.
var ruleSEXETHNICNonExtensible = Rule{
	ID:          "FDA-001",
	Description: "SEX and ETHNIC values must be CDISC CT members",
	Category:    CategoryFDABusiness,
	Evaluate: func(ctx EvalContext) []RuleResult {
		dm, ok := ctx.Domains["DM"]
		if !ok {
			return nil
		}
		var out []RuleResult
		for _, v := range []string{"SEX", "ETHNIC"} {
			cl := ctx.Store.GetCodelistForVariable(v)
			if cl == nil {
				continue
			}
			bad := 0
			for _, row := range dm.Table.Rows {
				if val := row[v]; val != "" && !cl.HasTerm(val) {
					bad++
				}
			}
			if bad > 0 {
				out = append(out, RuleResult{
					RuleID: "FDA-001", Domain: "DM", Variable: v,
					Severity: SeverityError, Category: CategoryFDABusiness,
					Message:       v + " value(s) are not CDISC CT members",
					AffectedCount: bad,
				})
			}
		}
		return out
	},
}

// ruleAEReasonCodes checks AESER/AEREL/AEOUT/AEACN against their CT
// codelists.
var ruleAEReasonCodes = Rule{
	ID:          "FDA-002",
	Description: "AESER/AEREL/AEOUT/AEACN must be CDISC CT members",
	Category:    CategoryFDABusiness,
	Evaluate: func(ctx EvalContext) []RuleResult {
		ae, ok := ctx.Domains["AE"]
		if !ok {
			return nil
		}
		var out []RuleResult
		for _, v := range []string{"AESER", "AEREL", "AEOUT", "AEACN"} {
			cl := ctx.Store.GetCodelistForVariable(v)
			if cl == nil {
				continue
			}
			bad := 0
			for _, row := range ae.Table.Rows {
				if val := row[v]; val != "" && !cl.HasTerm(val) {
					bad++
				}
			}
			if bad > 0 {
				out = append(out, RuleResult{
					RuleID: "FDA-002", Domain: "AE", Variable: v,
					Severity: SeverityError, Category: CategoryFDABusiness,
					Message:       v + " value(s) are not CDISC CT members",
					AffectedCount: bad,
				})
			}
		}
		return out
	},
}

// ruleAEDateOrder flags AESTDTC later than AEENDTC as a warning.
var ruleAEDateOrder = Rule{
	ID:          "FDA-003",
	Description: "AESTDTC should not be later than AEENDTC",
	Category:    CategoryFDABusiness,
	Evaluate: func(ctx EvalContext) []RuleResult {
		ae, ok := ctx.Domains["AE"]
		if !ok {
			return nil
		}
		bad := 0
		for _, row := range ae.Table.Rows {
			st, en := row["AESTDTC"], row["AEENDTC"]
			if st != "" && en != "" && st > en {
				bad++
			}
		}
		if bad == 0 {
			return nil
		}
		return []RuleResult{{
			RuleID: "FDA-003", Domain: "AE", Variable: "AESTDTC",
			Severity: SeverityWarning, Category: CategoryFDABusiness,
			Message:       "AESTDTC later than AEENDTC",
			AffectedCount: bad,
		}}
	},
}

// ruleCountryISO3166 flags COUNTRY values outside the bundled ISO-3166
// alpha-3 lookup as a warning.
var ruleCountryISO3166 = Rule{
	ID:          "FDA-004",
	Description: "COUNTRY should be a valid ISO 3166 alpha-3 code",
	Category:    CategoryFDABusiness,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			if !dd.Table.HasColumn("COUNTRY") {
				continue
			}
			bad := 0
			for _, row := range dd.Table.Rows {
				if v := row["COUNTRY"]; v != "" && !handlers.ValidCountryCodes[v] {
					bad++
				}
			}
			if bad > 0 {
				out = append(out, RuleResult{
					RuleID: "FDA-004", Domain: domainCode, Variable: "COUNTRY",
					Severity: SeverityWarning, Category: CategoryFDABusiness,
					Message:       "COUNTRY value(s) not valid ISO 3166 alpha-3",
					AffectedCount: bad,
				})
			}
		}
		return out
	},
}

// ruleVISITNUMNumeric requires VISITNUM to parse as numeric everywhere it
// appears.
var ruleVISITNUMNumeric = Rule{
	ID:          "FDA-005",
	Description: "VISITNUM must be numeric",
	Category:    CategoryFDABusiness,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			if !dd.Table.HasColumn("VISITNUM") {
				continue
			}
			bad := 0
			for _, row := range dd.Table.Rows {
				v := row["VISITNUM"]
				if v == "" {
					continue
				}
				if _, err := strconv.ParseFloat(v, 64); err != nil {
					bad++
				}
			}
			if bad > 0 {
				out = append(out, RuleResult{
					RuleID: "FDA-005", Domain: domainCode, Variable: "VISITNUM",
					Severity: SeverityError, Category: CategoryFDABusiness,
					Message:       "VISITNUM value(s) are not numeric",
					AffectedCount: bad,
				})
			}
		}
		return out
	},
}

// ruleDYNonZero forbids --DY == 0: SDTM-IG reserves day 0 as undefined,
// since the reference day itself is day 1.
var ruleDYNonZero = Rule{
	ID:          "FDA-006",
	Description: "--DY must never be zero",
	Category:    CategoryFDABusiness,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			dyVar := domainCode + "DY"
			if !dd.Table.HasColumn(dyVar) {
				continue
			}
			bad := 0
			for _, row := range dd.Table.Rows {
				if row[dyVar] == "0" {
					bad++
				}
			}
			if bad > 0 {
				out = append(out, RuleResult{
					RuleID: "FDA-006", Domain: domainCode, Variable: dyVar,
					Severity: SeverityError, Category: CategoryFDABusiness,
					Message:       dyVar + " must never be zero",
					AffectedCount: bad,
				})
			}
		}
		return out
	},
}

// ruleCMTRTEXTRTNonNull requires the treatment-name variable on CM and EX
// to be populated on every row.
var ruleCMTRTEXTRTNonNull = Rule{
	ID:          "FDA-007",
	Description: "CMTRT and EXTRT must be non-null",
	Category:    CategoryFDABusiness,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, variable := range map[string]string{"CM": "CMTRT", "EX": "EXTRT"} {
			dd, ok := ctx.Domains[domainCode]
			if !ok {
				continue
			}
			bad := 0
			for _, row := range dd.Table.Rows {
				if row[variable] == "" {
					bad++
				}
			}
			if bad > 0 {
				out = append(out, RuleResult{
					RuleID: "FDA-007", Domain: domainCode, Variable: variable,
					Severity: SeverityError, Category: CategoryFDABusiness,
					Message:       variable + " must not be null",
					AffectedCount: bad,
				})
			}
		}
		return out
	},
}

// ruleLBResultPairing requires LBORRES/LBORRESU and LBSTRESN/LBSTRESU to
// travel together: a result without its unit (or vice versa) is a warning.
var ruleLBResultPairing = Rule{
	ID:          "FDA-008",
	Description: "LBORRES/LBORRESU and LBSTRESN/LBSTRESU must be paired",
	Category:    CategoryFDABusiness,
	Evaluate: func(ctx EvalContext) []RuleResult {
		lb, ok := ctx.Domains["LB"]
		if !ok {
			return nil
		}
		var out []RuleResult
		bad := 0
		for _, row := range lb.Table.Rows {
			if (row["LBORRES"] != "") != (row["LBORRESU"] != "") {
				bad++
			}
			if (row["LBSTRESN"] != "") != (row["LBSTRESU"] != "") {
				bad++
			}
		}
		if bad > 0 {
			out = append(out, RuleResult{
				RuleID: "FDA-008", Domain: "LB",
				Severity: SeverityWarning, Category: CategoryFDABusiness,
				Message:       "result value(s) missing their paired unit, or vice versa",
				AffectedCount: bad,
			})
		}
		return out
	},
}

// ruleTESTCDTestOneToOne requires a fixed 1:1 relationship between
// --TESTCD and --TEST across a domain's records.
var ruleTESTCDTestOneToOne = Rule{
	ID:          "FDA-009",
	Description: "--TESTCD must map 1:1 to --TEST",
	Category:    CategoryFDABusiness,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			testcdVar, testVar := domainCode+"TESTCD", domainCode+"TEST"
			if !dd.Table.HasColumn(testcdVar) || !dd.Table.HasColumn(testVar) {
				continue
			}
			seen := map[string]string{}
			violations := 0
			for _, row := range dd.Table.Rows {
				cd, t := row[testcdVar], row[testVar]
				if cd == "" {
					continue
				}
				if prior, ok := seen[cd]; ok && prior != t {
					violations++
				} else {
					seen[cd] = t
				}
			}
			if violations > 0 {
				out = append(out, RuleResult{
					RuleID: "FDA-009", Domain: domainCode, Variable: testcdVar,
					Severity: SeverityError, Category: CategoryFDABusiness,
					Message:       testcdVar + " maps to more than one " + testVar,
					AffectedCount: violations,
				})
			}
		}
		return out
	},
}

// ruleSTRESUConsistentPerTestcd flags a --TESTCD whose standardized unit
// varies across records as a warning: units should be fixed per test.
var ruleSTRESUConsistentPerTestcd = Rule{
	ID:          "FDA-010",
	Description: "--STRESU should be consistent within a --TESTCD",
	Category:    CategoryFDABusiness,
	Evaluate: func(ctx EvalContext) []RuleResult {
		var out []RuleResult
		for domainCode, dd := range ctx.Domains {
			testcdVar, stresuVar := domainCode+"TESTCD", domainCode+"STRESU"
			if !dd.Table.HasColumn(testcdVar) || !dd.Table.HasColumn(stresuVar) {
				continue
			}
			units := map[string]string{}
			violations := 0
			for _, row := range dd.Table.Rows {
				cd, u := row[testcdVar], row[stresuVar]
				if cd == "" || u == "" {
					continue
				}
				if prior, ok := units[cd]; ok && prior != u {
					violations++
				} else {
					units[cd] = u
				}
			}
			if violations > 0 {
				out = append(out, RuleResult{
					RuleID: "FDA-010", Domain: domainCode, Variable: stresuVar,
					Severity: SeverityWarning, Category: CategoryFDABusiness,
					Message:       stresuVar + " varies within a single " + testcdVar,
					AffectedCount: violations,
				})
			}
		}
		return out
	},
}

// ruleLCUnitConversionFlag warns when LC carries no record where a unit
// conversion was actually performed, since an LC domain that only ever
// mirrors LB unconverted is usually a sign the conversion step was skipped.
var ruleLCUnitConversionFlag = Rule{
	ID:          "FDA-011",
	Description: "LC should contain at least one converted-unit record",
	Category:    CategoryFDABusiness,
	Evaluate: func(ctx EvalContext) []RuleResult {
		lc, ok := ctx.Domains["LC"]
		if !ok || len(lc.Table.Rows) == 0 {
			return nil
		}
		converted := 0
		for _, row := range lc.Table.Rows {
			if row["LCSTRESU"] != "" && row["LCSTRESU"] != row["LCORRESU"] {
				converted++
			}
		}
		if converted == 0 {
			return []RuleResult{{
				RuleID: "FDA-011", Domain: "LC",
				Severity: SeverityWarning, Category: CategoryFDABusiness,
				Message: "LC contains no record with unit conversion actually performed",
			}}
		}
		return nil
	},
}
