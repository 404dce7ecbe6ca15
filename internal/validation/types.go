// Package validation implements the rule registry: a flat list of typed
// rule objects, each a pure function from an evaluation context to zero or
// more RuleResults. No rule mutates the tables it inspects.
package validation

import (
	"github.com/sanmaysarada/astraea/internal/mapping"
	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/sanmaysarada/astraea/internal/table"
)

// Category is the closed rule-category enumeration.
type Category string

const (
	CategoryTerminology Category = "TERMINOLOGY"
	CategoryPresence    Category = "PRESENCE"
	CategoryConsistency Category = "CONSISTENCY"
	CategoryLimits      Category = "LIMITS"
	CategoryFormat      Category = "FORMAT"
	CategoryFDABusiness Category = "FDA_BUSINESS"
	CategoryFDATRC      Category = "FDA_TRC"
	CategorySuppqual    Category = "SUPPQUAL"
	CategoryOrdering    Category = "ORDERING"
)

// Severity is the closed finding severity.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// RuleResult is one rule's finding against one domain/variable.
type RuleResult struct {
	RuleID        string
	Domain        string
	Variable      string
	Severity      Severity
	Category      Category
	Message       string
	AffectedCount int
}

// DomainData bundles one domain's materialized table with its reviewed
// mapping spec, the unit cross-domain rules iterate over.
type DomainData struct {
	Table *table.Table
	Spec  mapping.DomainMappingSpec
}

// EvalContext is every rule's input: the full domain map (so cross-domain
// rules need no special casing), the reference store, and the optional
// FDA-TRC pre-check inputs.
type EvalContext struct {
	Domains   map[string]DomainData
	Store     *reference.Store
	OutputDir string // non-empty only when FDA-TRC pre-checks should run
	StudyID   string
}

// RuleFunc evaluates one rule against the context, returning every finding.
type RuleFunc func(ctx EvalContext) []RuleResult

// Rule is one registry entry.
type Rule struct {
	ID          string
	Description string
	Category    Category
	Severity    Severity
	Evaluate    RuleFunc
}
