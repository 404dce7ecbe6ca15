package packaging

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sanmaysarada/astraea/internal/mapping"
	"github.com/sanmaysarada/astraea/internal/table"
	"github.com/sanmaysarada/astraea/internal/validation"
)

// BuildCSDRG renders the clinical Study Data Reviewer's Guide as Markdown:
// section 2 from the TS parameters, section 6 grouping ERROR findings by
// domain, section 8 justifying each domain's SUPPQUAL candidates. Grounded
// on internal/mappingctx/builder.go's ordered-section strings.Builder
// style.
func BuildCSDRG(studyID string, ts *table.Table, specs map[string]mapping.DomainMappingSpec, findings []validation.RuleResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Clinical Study Data Reviewer's Guide\n\n")
	fmt.Fprintf(&b, "Study: %s\n\n", studyID)

	writeTSSection(&b, ts)
	writeFindingsSection(&b, findings)
	writeSuppqualSection(&b, specs)

	return b.String()
}

func writeTSSection(b *strings.Builder, ts *table.Table) {
	b.WriteString("## Section 2: Trial Summary\n\n")
	if ts == nil || len(ts.Rows) == 0 {
		b.WriteString("No trial summary parameters available.\n\n")
		return
	}
	for _, row := range ts.Rows {
		fmt.Fprintf(b, "- **%s**: %s\n", row["TSPARMCD"], row["TSVAL"])
	}
	b.WriteString("\n")
}

func writeFindingsSection(b *strings.Builder, findings []validation.RuleResult) {
	b.WriteString("## Section 6: Data Conformance Summary\n\n")
	byDomain := map[string][]validation.RuleResult{}
	var order []string
	for _, f := range findings {
		if f.Severity != validation.SeverityError {
			continue
		}
		if _, ok := byDomain[f.Domain]; !ok {
			order = append(order, f.Domain)
		}
		byDomain[f.Domain] = append(byDomain[f.Domain], f)
	}
	if len(order) == 0 {
		b.WriteString("No ERROR-severity findings were raised against the submitted datasets.\n\n")
		return
	}
	sort.Strings(order)
	for _, domain := range order {
		label := domain
		if label == "" {
			label = "(cross-domain)"
		}
		fmt.Fprintf(b, "### %s\n\n", label)
		for _, f := range byDomain[domain] {
			fmt.Fprintf(b, "- `%s` (%s): %s", f.RuleID, f.Variable, f.Message)
			if f.AffectedCount > 0 {
				fmt.Fprintf(b, " (%d record(s))", f.AffectedCount)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
}

func writeSuppqualSection(b *strings.Builder, specs map[string]mapping.DomainMappingSpec) {
	b.WriteString("## Section 8: Supplemental Qualifier Justification\n\n")
	var domains []string
	for d, spec := range specs {
		if len(spec.SuppqualCandidates) > 0 {
			domains = append(domains, d)
		}
	}
	if len(domains) == 0 {
		b.WriteString("No non-standard variables were carried as supplemental qualifiers.\n\n")
		return
	}
	sort.Strings(domains)
	for _, domain := range domains {
		spec := specs[domain]
		fmt.Fprintf(b, "### %s\n\n", domain)
		for _, variable := range spec.SuppqualCandidates {
			var logic string
			for _, m := range spec.VariableMappings {
				if m.SDTMVariable == variable {
					logic = m.MappingLogic
				}
			}
			fmt.Fprintf(b, "- **%s**: not a standard SDTM-IG variable for %s; carried in SUPP%s. %s\n", variable, domain, domain, logic)
		}
		b.WriteString("\n")
	}
}
