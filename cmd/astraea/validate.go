package main

import (
	"fmt"
	"strings"

	"github.com/sanmaysarada/astraea/internal/mapping"
	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/sanmaysarada/astraea/internal/table"
	"github.com/sanmaysarada/astraea/internal/validation"
	"github.com/spf13/cobra"
)

var (
	validateDomains   []string
	validateSpecs     []string
	validateOutputDir string
	validateStudyID   string
	validateOut       string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the full validation rule registry against materialized domains",
	Long: `Evaluates every registered rule (spec.md §5) against the supplied
domains: terminology, presence, consistency, limits, format, FDA business
rules, and — when --output-dir points at an already-packaged eCTD tree —
the FDA Technical Rejection Criteria pre-checks. Exits non-zero iff any
ERROR-severity finding is present.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringSliceVar(&validateDomains, "domain", nil, "domain=table.json pair(s) to validate (required)")
	validateCmd.Flags().StringSliceVar(&validateSpecs, "spec", nil, "domain=spec.json pair(s), the reviewed DomainMappingSpec for each domain")
	validateCmd.Flags().StringVar(&validateOutputDir, "output-dir", "", "Packaged eCTD output directory, enables FDA-TRC pre-checks")
	validateCmd.Flags().StringVar(&validateStudyID, "study-id", "", "Study identifier")
	validateCmd.Flags().StringVar(&validateOut, "out", "", "Write findings JSON here instead of stdout")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if len(validateDomains) == 0 {
		return fmt.Errorf("at least one --domain is required")
	}

	domains := make(map[string]validation.DomainData, len(validateDomains))
	for _, pair := range validateDomains {
		domain, path, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("--domain %q: expected DOMAIN=table.json", pair)
		}
		var t table.Table
		if err := loadJSON(path, &t); err != nil {
			return err
		}
		domains[domain] = validation.DomainData{Table: &t}
	}
	for _, pair := range validateSpecs {
		domain, path, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("--spec %q: expected DOMAIN=spec.json", pair)
		}
		var spec mapping.DomainMappingSpec
		if err := loadJSON(path, &spec); err != nil {
			return err
		}
		dd := domains[domain]
		dd.Spec = spec
		domains[domain] = dd
	}

	store, err := reference.NewStore()
	if err != nil {
		return fmt.Errorf("loading reference store: %w", err)
	}

	findings := validation.ValidateAll(validation.EvalContext{
		Domains:   domains,
		Store:     store,
		OutputDir: validateOutputDir,
		StudyID:   validateStudyID,
	})

	summary := validation.Summarize(findings)
	for _, f := range findings {
		if f.Severity == validation.SeverityError {
			printError("[%s] %s/%s: %s", f.RuleID, f.Domain, f.Variable, f.Message)
		} else {
			printWarning("[%s] %s/%s: %s", f.RuleID, f.Domain, f.Variable, f.Message)
		}
	}
	printInfo("%d error(s), %d warning(s)", summary.Errors, summary.Warnings)

	if err := writeJSON(validateOut, findings); err != nil {
		return err
	}
	if summary.Errors > 0 {
		return fmt.Errorf("%d ERROR-severity finding(s)", summary.Errors)
	}
	return nil
}
