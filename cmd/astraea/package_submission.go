package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sanmaysarada/astraea/internal/mapping"
	"github.com/sanmaysarada/astraea/internal/packaging"
	"github.com/sanmaysarada/astraea/internal/table"
	"github.com/sanmaysarada/astraea/internal/validation"
	"github.com/spf13/cobra"
)

var (
	packageDomains   []string
	packageSpecs     []string
	packageTS        string
	packageFindings  string
	packageStudyID   string
	packageOutputDir string
)

var packageSubmissionCmd = &cobra.Command{
	Use:   "package-submission",
	Short: "Assemble define.xml, the cSDRG, and the eCTD dataset tree",
	Long: `Writes every domain's serialized dataset, define.xml (ODM 1.3.2 +
define-2.0), and the cSDRG narrative under --output-dir's eCTD tree
(spec.md §6). The real transport-format writer (XPT) is an injected
DatasetSerializer per spec.md §1; this command wires jsonSerializer, a
stand-in that writes each table as its own JSON interchange file, since no
XPT encoder is in scope here.`,
	RunE: runPackageSubmission,
}

func init() {
	packageSubmissionCmd.Flags().StringSliceVar(&packageDomains, "domain", nil, "domain=table.json pair(s) to package (required)")
	packageSubmissionCmd.Flags().StringSliceVar(&packageSpecs, "spec", nil, "domain=spec.json pair(s), the reviewed DomainMappingSpec for each domain (required)")
	packageSubmissionCmd.Flags().StringVar(&packageTS, "ts", "", "Trial Summary (TS) table.json, for cSDRG section 2 (required)")
	packageSubmissionCmd.Flags().StringVar(&packageFindings, "findings", "", "Validation findings JSON, as produced by validate")
	packageSubmissionCmd.Flags().StringVar(&packageStudyID, "study-id", "", "Study identifier (required)")
	packageSubmissionCmd.Flags().StringVar(&packageOutputDir, "output-dir", "", "Submission root directory (required)")
}

// jsonSerializer stands in for the out-of-scope XPT transport-format
// writer: it writes each domain's table.Table as JSON at the requested
// path with a trailing .xpt extension replaced by .json (a path without
// .xpt simply gains .json).
type jsonSerializer struct{}

func (jsonSerializer) WriteDataset(t *table.Table, path string) error {
	path = strings.TrimSuffix(path, ".xpt") + ".json"
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", t.Domain, err)
	}
	return os.WriteFile(path, data, 0644)
}

func runPackageSubmission(cmd *cobra.Command, args []string) error {
	if len(packageDomains) == 0 {
		return fmt.Errorf("at least one --domain is required")
	}
	if len(packageSpecs) == 0 {
		return fmt.Errorf("at least one --spec is required")
	}
	if packageTS == "" {
		return fmt.Errorf("--ts is required")
	}
	if packageStudyID == "" {
		return fmt.Errorf("--study-id is required")
	}
	if packageOutputDir == "" {
		return fmt.Errorf("--output-dir is required")
	}

	domains := make(map[string]*table.Table, len(packageDomains))
	for _, pair := range packageDomains {
		domain, path, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("--domain %q: expected DOMAIN=table.json", pair)
		}
		var t table.Table
		if err := loadJSON(path, &t); err != nil {
			return err
		}
		domains[domain] = &t
	}

	specs := make(map[string]mapping.DomainMappingSpec, len(packageSpecs))
	for _, pair := range packageSpecs {
		domain, path, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("--spec %q: expected DOMAIN=spec.json", pair)
		}
		var spec mapping.DomainMappingSpec
		if err := loadJSON(path, &spec); err != nil {
			return err
		}
		specs[domain] = spec
	}

	var ts table.Table
	if err := loadJSON(packageTS, &ts); err != nil {
		return err
	}

	var findings []validation.RuleResult
	if packageFindings != "" {
		if err := loadJSON(packageFindings, &findings); err != nil {
			return err
		}
	}

	stats, err := packaging.Export(packaging.Config{
		StudyID:    packageStudyID,
		OutputDir:  packageOutputDir,
		Domains:    domains,
		Specs:      specs,
		TS:         &ts,
		Findings:   findings,
		Serializer: jsonSerializer{},
	})
	if err != nil {
		return fmt.Errorf("packaging submission: %w", err)
	}

	printSuccess("packaged %d dataset(s), %d SUPPQUAL, %d error finding(s), %d warning finding(s)",
		stats.DatasetsWritten, stats.SuppqualWritten, stats.ErrorFindings, stats.WarningFindings)
	return nil
}
