// Package mapping implements the mapping engine: it invokes the injected
// LLM capability for one domain at a time, validates and enriches each
// proposal against the reference store, and emits a DomainMappingSpec.
package mapping

import "github.com/sanmaysarada/astraea/internal/reference"

// Pattern is the closed mapping-pattern enumeration.
type Pattern string

const (
	PatternAssign        Pattern = "ASSIGN"
	PatternDirect         Pattern = "DIRECT"
	PatternRename         Pattern = "RENAME"
	PatternReformat        Pattern = "REFORMAT"
	PatternSplit          Pattern = "SPLIT"
	PatternCombine        Pattern = "COMBINE"
	PatternDerivation     Pattern = "DERIVATION"
	PatternLookupRecode   Pattern = "LOOKUP_RECODE"
	PatternTranspose      Pattern = "TRANSPOSE"
)

// ConfidenceLevel is the closed bucket a numeric confidence resolves to.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// LevelForConfidence buckets a numeric confidence per spec: HIGH >= 0.85,
// MEDIUM >= 0.60, LOW otherwise.
func LevelForConfidence(confidence float64) ConfidenceLevel {
	switch {
	case confidence >= 0.85:
		return ConfidenceHigh
	case confidence >= 0.60:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Origin is the closed provenance enumeration attached to every enriched
// mapping.
type Origin string

const (
	OriginCRF        Origin = "CRF"
	OriginDerived     Origin = "Derived"
	OriginAssigned    Origin = "Assigned"
	OriginProtocol    Origin = "Protocol"
	OriginEDT         Origin = "EDT"
	OriginPredecessor Origin = "Predecessor"
)

// Proposal is the LLM's minimal structured output for one SDTM variable,
// before validation/enrichment. Field names and json tags form the contract
// handed to the injected LLM capability's schema-forced output — see
// internal/llmclient.
type Proposal struct {
	SDTMVariable     string  `json:"sdtm_variable" jsonschema:"required,description=The SDTM-IG variable name this mapping produces"`
	SourceDataset    string  `json:"source_dataset,omitempty" jsonschema:"description=The raw source dataset this mapping reads from, if any"`
	SourceVariable   string  `json:"source_variable,omitempty" jsonschema:"description=The raw source column this mapping reads from, if any"`
	MappingPattern   Pattern `json:"mapping_pattern" jsonschema:"required,enum=ASSIGN,enum=DIRECT,enum=RENAME,enum=REFORMAT,enum=SPLIT,enum=COMBINE,enum=DERIVATION,enum=LOOKUP_RECODE,enum=TRANSPOSE"`
	MappingLogic     string  `json:"mapping_logic" jsonschema:"required,description=Prose description of how the value is produced"`
	DerivationRule   string  `json:"derivation_rule,omitempty" jsonschema:"description=Mini-DSL derivation expression, required for DERIVATION/REFORMAT/SPLIT/COMBINE patterns"`
	AssignedValue    string  `json:"assigned_value,omitempty" jsonschema:"description=Constant value for ASSIGN patterns"`
	CodelistCode     string  `json:"codelist_code,omitempty" jsonschema:"description=Controlled terminology codelist code this mapping is validated against"`
	Confidence       float64 `json:"confidence" jsonschema:"required,minimum=0,maximum=1"`
	Rationale        string  `json:"rationale" jsonschema:"required,description=Why this mapping was chosen"`
}

// Mapping is the enriched, post-validation form of a Proposal.
type Mapping struct {
	Proposal

	SDTMLabel       string
	SDTMDataType    reference.DataType
	Core            reference.Core
	CodelistName    string
	Origin          Origin
	ConfidenceLevel ConfidenceLevel
	Order           int
	Notes           []string
}

// Summary aggregates a DomainMappingSpec's variable_mappings.
type Summary struct {
	Total          int
	RequiredMapped int
	ExpectedMapped int
	High           int
	Medium         int
	Low            int
}

// DomainMappingSpec is the mapping engine's output for one domain.
type DomainMappingSpec struct {
	Domain                  string
	DomainLabel             string
	DomainClass             reference.DomainClass
	Structure               string
	StudyID                 string
	SourceDatasets          []string
	CrossDomainSources      []string
	VariableMappings        []Mapping
	UnmappedSourceVariables []string
	SuppqualCandidates      []string
	Summary                 Summary
	MappingTimestamp        string
	ModelUsed               string
}
