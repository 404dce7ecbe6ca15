// Package mappingctx assembles the bounded, domain-specific prompt handed
// to the mapping engine's LLM capability: the domain spec, filtered source
// profiles, relevant codelists, eCRF forms, cross-domain summaries, study
// metadata, and optional learned examples, each as its own ordered prose
// section.
package mappingctx

import (
	"fmt"
	"strings"

	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/sanmaysarada/astraea/internal/study"
)

// maxCodelistTermsShown caps how many terms an oversized codelist's section
// displays before summarizing the remainder by count.
const maxCodelistTermsShown = 20

// LearnedExample is one entry for the optional learned-examples section —
// either a past correction (WRONG/CORRECT pair) or an approved pattern.
type LearnedExample struct {
	IsCorrection bool
	Domain       string
	SDTMVariable string
	Wrong        string // prose describing the original (incorrect) mapping
	Correct      string // prose describing the corrected mapping
	Pattern      string
	Logic        string
}

// BuildPromptParams are the context builder's keyword-only inputs.
type BuildPromptParams struct {
	Domain              string
	DomainSpec          *reference.Domain
	SourceProfiles      []*study.DatasetProfile
	ECRFForms           []study.ECRFForm
	Codelists           []*reference.Codelist
	StudyMetadata       study.StudyMetadata
	CrossDomainProfiles []*study.DatasetProfile
	LearnedExamples     []LearnedExample
}

// BuildPrompt assembles the seven ordered sections into one prose prompt.
func BuildPrompt(p BuildPromptParams) string {
	var b strings.Builder

	writeDomainSpecSection(&b, p.DomainSpec)
	writeSourceDataSection(&b, p.SourceProfiles)
	writeECRFSection(&b, p.ECRFForms)
	writeCodelistsSection(&b, p.Codelists)
	writeCrossDomainSection(&b, p.CrossDomainProfiles)
	writeStudyMetadataSection(&b, p.StudyMetadata)
	writeLearnedExamplesSection(&b, p.LearnedExamples)

	if p.Domain == "DM" {
		writeDMArmAddendum(&b)
	}

	return b.String()
}

func writeDomainSpecSection(b *strings.Builder, d *reference.Domain) {
	b.WriteString("## Domain Specification\n\n")
	if d == nil {
		b.WriteString("(no bundled specification for this domain)\n\n")
		return
	}
	fmt.Fprintf(b, "Domain %s (%s), class %s.\n", d.Code, d.Label, d.Class)
	if d.StructureNote != "" {
		fmt.Fprintf(b, "Structure: %s\n", d.StructureNote)
	}
	b.WriteString("\nVariables:\n")
	for _, v := range d.Variables {
		line := fmt.Sprintf("  - %s (%s, %s, core=%s)", v.Name, v.Label, v.DataType, v.Core)
		if v.CodelistCode != "" {
			line += fmt.Sprintf(" [codelist %s]", v.CodelistCode)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
}

func writeSourceDataSection(b *strings.Builder, profiles []*study.DatasetProfile) {
	b.WriteString("## Source Data\n\n")
	if len(profiles) == 0 {
		b.WriteString("(no source datasets supplied)\n\n")
		return
	}
	for _, p := range profiles {
		fmt.Fprintf(b, "### %s (%d rows)\n", p.Filename, p.RowCount)
		for _, v := range p.Variables {
			if v.IsEDCSystemColumn {
				continue
			}
			fmt.Fprintf(b, "  - %s (%s, %s): unique=%d missing=%d samples=%v\n",
				v.Name, v.Label, v.DType, v.NUnique, v.NMissing, v.SampleValues)
		}
		b.WriteString("\n")
	}
}

func writeECRFSection(b *strings.Builder, forms []study.ECRFForm) {
	b.WriteString("## eCRF Forms\n\n")
	if len(forms) == 0 {
		b.WriteString("(no eCRF forms supplied)\n\n")
		return
	}
	for _, f := range forms {
		fmt.Fprintf(b, "### %s\n", f.FormName)
		for _, field := range f.Fields {
			line := fmt.Sprintf("  - %s (%s): %s", field.Name, field.DataType, field.Label)
			if len(field.CodedValues) > 0 {
				line += fmt.Sprintf(" [values: %s]", strings.Join(field.CodedValues, ", "))
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}
}

func writeCodelistsSection(b *strings.Builder, codelists []*reference.Codelist) {
	b.WriteString("## Controlled Terminology\n\n")
	if len(codelists) == 0 {
		b.WriteString("(no codelists referenced by this domain)\n\n")
		return
	}
	for _, cl := range codelists {
		fmt.Fprintf(b, "### %s (%s)%s\n", cl.Code, cl.Name, extensibleSuffix(cl.Extensible))
		terms := make([]string, 0, len(cl.Terms))
		for term := range cl.Terms {
			terms = append(terms, term)
		}
		shown := terms
		if len(terms) > maxCodelistTermsShown {
			shown = terms[:maxCodelistTermsShown]
		}
		fmt.Fprintf(b, "  Terms: %s\n", strings.Join(shown, ", "))
		if len(terms) > maxCodelistTermsShown {
			fmt.Fprintf(b, "  (%d total terms, showing first %d)\n", len(terms), maxCodelistTermsShown)
		}
		b.WriteString("\n")
	}
}

func extensibleSuffix(extensible bool) string {
	if extensible {
		return ", extensible"
	}
	return ", non-extensible"
}

func writeCrossDomainSection(b *strings.Builder, profiles []*study.DatasetProfile) {
	b.WriteString("## Cross-Domain Sources\n\n")
	if len(profiles) == 0 {
		b.WriteString("(no cross-domain sources available)\n\n")
		return
	}
	for _, p := range profiles {
		fmt.Fprintf(b, "### %s\n", p.Filename)
		for _, v := range p.Variables {
			if v.IsEDCSystemColumn {
				continue
			}
			fmt.Fprintf(b, "  - %s: %s\n", v.Name, v.Label)
		}
		b.WriteString("\n")
	}
}

func writeStudyMetadataSection(b *strings.Builder, m study.StudyMetadata) {
	b.WriteString("## Study Metadata\n\n")
	fmt.Fprintf(b, "STUDYID: %s\n", m.StudyID)
	if m.SiteCol != "" {
		fmt.Fprintf(b, "Site numbering convention: %s\n", m.SiteCol)
	}
	if m.Sponsor != "" {
		fmt.Fprintf(b, "Sponsor: %s\n", m.Sponsor)
	}
	if m.Indication != "" {
		fmt.Fprintf(b, "Indication: %s\n", m.Indication)
	}
	b.WriteString("\n")
}

const maxLearnedCorrections = 3
const maxLearnedExamplesTotal = 5

func writeLearnedExamplesSection(b *strings.Builder, examples []LearnedExample) {
	if len(examples) == 0 {
		return
	}

	var corrections, approvals []LearnedExample
	for _, e := range examples {
		if e.IsCorrection {
			corrections = append(corrections, e)
		} else {
			approvals = append(approvals, e)
		}
	}
	if len(corrections) > maxLearnedCorrections {
		corrections = corrections[:maxLearnedCorrections]
	}

	budget := maxLearnedExamplesTotal - len(corrections)
	if budget < 0 {
		budget = 0
	}
	if len(approvals) > budget {
		approvals = approvals[:budget]
	}
	if len(corrections) == 0 && len(approvals) == 0 {
		return
	}

	b.WriteString("## Learned Examples\n\n")
	for i, c := range corrections {
		fmt.Fprintf(b, "### Correction Example %d\n", i+1)
		fmt.Fprintf(b, "WRONG: %s\n", c.Wrong)
		fmt.Fprintf(b, "CORRECT: %s\n\n", c.Correct)
	}
	for i, a := range approvals {
		fmt.Fprintf(b, "### Approved Pattern %d\n", i+1)
		fmt.Fprintf(b, "%s.%s uses pattern %s: %s\n\n", a.Domain, a.SDTMVariable, a.Pattern, a.Logic)
	}
}

func writeDMArmAddendum(b *strings.Builder) {
	b.WriteString("## DM Arm Variables — Mandatory\n\n")
	b.WriteString("ARM, ARMCD, ACTARM, and ACTARMCD are all required for the DM domain. ")
	b.WriteString("ACTARM must be derived independently from the subject's actual treatment history — ")
	b.WriteString("it must never simply be copied from ARM. A subject's actual treatment can diverge from ")
	b.WriteString("their planned arm (protocol deviation, crossover, early withdrawal), and collapsing the two ")
	b.WriteString("has direct regulatory impact on efficacy analyses.\n\n")
}
