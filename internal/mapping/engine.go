package mapping

import (
	"context"
	"fmt"
	"strings"

	"github.com/sanmaysarada/astraea/internal/errors"
	"github.com/sanmaysarada/astraea/internal/llmclient"
	"github.com/sanmaysarada/astraea/internal/mappingctx"
	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/sanmaysarada/astraea/internal/study"
)

const opEngine errors.Op = "mapping.Engine.MapDomain"

// Clock is injected so the engine's timestamp output is deterministic and
// testable; production callers pass a real clock closure.
type Clock func() string

// Engine runs the map_domain pipeline: context assembly, schema-constrained
// LLM invocation, per-proposal enrichment, and confidence adjustment.
type Engine struct {
	Store *reference.Store
	LLM   llmclient.Capability
	Clock Clock
	Model string
}

// MapDomainParams are map_domain's keyword-only inputs.
type MapDomainParams struct {
	Domain              string
	SourceProfiles      []*study.DatasetProfile
	ECRFForms           []study.ECRFForm
	StudyMetadata       study.StudyMetadata
	CrossDomainProfiles []*study.DatasetProfile
	LearnedExamples     []mappingctx.LearnedExample
}

// proposalBatch is the schema-forced shape the LLM must return: a list of
// per-variable proposals for the whole domain in one call.
type proposalBatch struct {
	Proposals []Proposal `json:"proposals" jsonschema:"required"`
}

// MapDomain runs the full pipeline and returns a DomainMappingSpec. LLM
// transport failures are returned wrapped as a *errors.Error with
// KindMapping; validation/enrichment issues are attached to the affected
// mapping's Notes instead of failing the call.
func (e *Engine) MapDomain(ctx context.Context, p MapDomainParams) (*DomainMappingSpec, error) {
	domain := e.Store.GetDomainSpec(p.Domain)
	if domain == nil {
		return nil, errors.E(opEngine, errors.KindConfig, fmt.Sprintf("unknown domain %q", p.Domain))
	}

	codelists := codelistsForDomain(e.Store, domain)
	prompt := mappingctx.BuildPrompt(mappingctx.BuildPromptParams{
		Domain:              p.Domain,
		DomainSpec:          domain,
		SourceProfiles:      p.SourceProfiles,
		ECRFForms:           p.ECRFForms,
		Codelists:           codelists,
		StudyMetadata:       p.StudyMetadata,
		CrossDomainProfiles: p.CrossDomainProfiles,
		LearnedExamples:     p.LearnedExamples,
	})
	prompt += "\n" + instructionsBlock

	var batch proposalBatch
	messages := []llmclient.Message{{Role: "user", Content: prompt}}
	system := fmt.Sprintf("You are mapping raw clinical trial data columns onto the SDTM %s domain.", p.Domain)
	if err := llmclient.ParseInto(ctx, e.LLM, messages, system, &batch, llmclient.DefaultCallOptions()); err != nil {
		return nil, errors.E(opEngine, errors.KindMapping, err.Error())
	}

	spec := &DomainMappingSpec{
		Domain:      domain.Code,
		DomainLabel: domain.Label,
		DomainClass: domain.Class,
		Structure:   domain.StructureNote,
		StudyID:     p.StudyMetadata.StudyID,
		ModelUsed:   e.Model,
	}
	for _, sp := range p.SourceProfiles {
		spec.SourceDatasets = append(spec.SourceDatasets, sp.Filename)
	}
	for _, cp := range p.CrossDomainProfiles {
		spec.CrossDomainSources = append(spec.CrossDomainSources, cp.Filename)
	}

	allSourceVars := collectSourceVariables(p.SourceProfiles)

	for i, proposal := range batch.Proposals {
		m := enrich(domain, proposal, e.Store, allSourceVars)
		m.Order = i
		spec.VariableMappings = append(spec.VariableMappings, m)
	}

	spec.UnmappedSourceVariables = unmappedVariables(allSourceVars, spec.VariableMappings)
	findings := checkRequiredCoverage(domain, spec.VariableMappings)
	for _, f := range findings {
		spec.VariableMappings = append(spec.VariableMappings, f)
	}

	spec.Summary = summarize(spec.VariableMappings)
	if e.Clock != nil {
		spec.MappingTimestamp = e.Clock()
	}

	return spec, nil
}

func codelistsForDomain(store *reference.Store, domain *reference.Domain) []*reference.Codelist {
	seen := make(map[string]bool)
	var out []*reference.Codelist
	for _, v := range domain.Variables {
		if v.CodelistCode == "" || seen[v.CodelistCode] {
			continue
		}
		seen[v.CodelistCode] = true
		if cl := store.LookupCodelist(v.CodelistCode); cl != nil {
			out = append(out, cl)
		}
	}
	return out
}

func collectSourceVariables(profiles []*study.DatasetProfile) map[string]bool {
	out := make(map[string]bool)
	for _, p := range profiles {
		for _, v := range p.Variables {
			out[strings.ToUpper(v.Name)] = true
		}
	}
	return out
}

// enrich attaches reference-store metadata to a raw proposal and computes
// the confidence adjustments specified in spec.md §4.5 step 6.
func enrich(domain *reference.Domain, p Proposal, store *reference.Store, sourceVars map[string]bool) Mapping {
	m := Mapping{Proposal: p}

	refVar := domain.VariableByName(p.SDTMVariable)
	if refVar != nil {
		m.SDTMLabel = refVar.Label
		m.SDTMDataType = refVar.DataType
		m.Core = refVar.Core
	} else {
		m.Notes = append(m.Notes, fmt.Sprintf("variable %q is not defined in the %s reference spec", p.SDTMVariable, domain.Code))
	}

	m.Origin = inferOrigin(p)

	var codelist *reference.Codelist
	if p.CodelistCode != "" {
		codelist = store.LookupCodelist(p.CodelistCode)
		if codelist != nil {
			m.CodelistName = codelist.Name
		} else {
			m.Notes = append(m.Notes, fmt.Sprintf("codelist %q not found in reference store", p.CodelistCode))
		}
	}

	confidence := p.Confidence

	if p.MappingPattern == PatternLookupRecode && codelist != nil {
		confidence += 0.05
	}

	if codelist != nil && !codelist.Extensible && p.MappingPattern != PatternAssign {
		if p.AssignedValue != "" && !codelist.HasTerm(p.AssignedValue) {
			confidence = capConfidence(confidence, 0.40)
		}
	}

	if p.SourceVariable != "" && !sourceVars[strings.ToUpper(p.SourceVariable)] {
		confidence = capConfidence(confidence, 0.30)
	}

	if confidence > 1 {
		confidence = 1
	}
	m.Confidence = confidence
	m.ConfidenceLevel = LevelForConfidence(confidence)

	if refVar != nil && refVar.Core == reference.CoreReq && confidence < 0.70 {
		m.Notes = append(m.Notes, "Req variable with confidence below 0.70: flagged for mandatory review")
	}

	return m
}

func capConfidence(confidence, ceiling float64) float64 {
	if confidence > ceiling {
		return ceiling
	}
	return confidence
}

func inferOrigin(p Proposal) Origin {
	switch p.MappingPattern {
	case PatternAssign:
		return OriginAssigned
	case PatternDerivation:
		return OriginDerived
	case PatternDirect, PatternRename, PatternReformat, PatternSplit, PatternCombine, PatternLookupRecode:
		return OriginCRF
	default:
		return OriginCRF
	}
}

func unmappedVariables(sourceVars map[string]bool, mappings []Mapping) []string {
	used := make(map[string]bool)
	for _, m := range mappings {
		if m.SourceVariable != "" {
			used[strings.ToUpper(m.SourceVariable)] = true
		}
	}
	var out []string
	for v := range sourceVars {
		if !used[v] {
			out = append(out, v)
		}
	}
	return out
}

// checkRequiredCoverage emits a synthetic Mapping-shaped finding for every
// Req variable absent from mappings, so spec.md invariant 1 ("every Req
// variable appears either in variable_mappings or in a finding") holds on
// the same slice — findings carry an empty MappingPattern, which is how
// callers separate them from real mappings.
func checkRequiredCoverage(domain *reference.Domain, mappings []Mapping) []Mapping {
	covered := make(map[string]bool)
	for _, m := range mappings {
		covered[m.SDTMVariable] = true
	}

	var findings []Mapping
	for _, v := range domain.RequiredVariables() {
		if covered[v.Name] {
			continue
		}
		findings = append(findings, Mapping{
			Proposal: Proposal{
				SDTMVariable: v.Name,
				Confidence:   0,
				Rationale:    "required-coverage finding: no mapping proposed",
			},
			SDTMLabel:       v.Label,
			SDTMDataType:    v.DataType,
			Core:            v.Core,
			ConfidenceLevel: ConfidenceLow,
			Notes:           []string{fmt.Sprintf("Req variable %q is not covered by any mapping", v.Name)},
		})
	}
	return findings
}

func summarize(mappings []Mapping) Summary {
	var s Summary
	for _, m := range mappings {
		s.Total++
		switch m.Core {
		case reference.CoreReq:
			s.RequiredMapped++
		case reference.CoreExp:
			s.ExpectedMapped++
		}
		switch m.ConfidenceLevel {
		case ConfidenceHigh:
			s.High++
		case ConfidenceMedium:
			s.Medium++
		case ConfidenceLow:
			s.Low++
		}
	}
	return s
}
