package main

import (
	"fmt"
	"strings"

	"github.com/sanmaysarada/astraea/internal/execution"
	"github.com/sanmaysarada/astraea/internal/handlers"
	"github.com/sanmaysarada/astraea/internal/mapping"
	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/sanmaysarada/astraea/internal/table"
	"github.com/spf13/cobra"
)

var (
	execSpecPath       string
	execRawTables      []string
	execSecondaries    []string
	execContextPath    string
	execPreprocessPath string
	execTransposePath  string
	execStudyID        string
	execSiteCol        string
	execSubjectCol     string
	execOut            string
)

var executeDomainCmd = &cobra.Command{
	Use:   "execute-domain",
	Short: "Materialize one domain's reviewed mapping spec into an SDTM table",
	Long: `Runs the deterministic spec interpreter (spec.md §4.8): row filtering and
multi-source alignment, per-variable pattern handlers, cross-domain
derivations, and (for Findings domains) the wide-to-tall transpose. Trial
design domains (TA/TE/TV/TI/TS/SV/RELREC) are not spec-driven; see
package internal/trialdesign and its own config-based builder instead.`,
	RunE: runExecuteDomain,
}

func init() {
	executeDomainCmd.Flags().StringVar(&execSpecPath, "spec", "", "Reviewed DomainMappingSpec JSON (required)")
	executeDomainCmd.Flags().StringSliceVar(&execRawTables, "raw", nil, "source_dataset_name=table.json pair(s), matching spec.SourceDatasets (required)")
	executeDomainCmd.Flags().StringSliceVar(&execSecondaries, "secondary", nil, "Additional raw table.Table JSON file(s) concatenated during preprocessing")
	executeDomainCmd.Flags().StringVar(&execContextPath, "context", "", "CrossDomainContext JSON (RFSTDTC lookups, prior domain tables), optional")
	executeDomainCmd.Flags().StringVar(&execPreprocessPath, "preprocess", "", "PreprocessConfig JSON: row filter and multi-source alignment, optional")
	executeDomainCmd.Flags().StringVar(&execTransposePath, "transpose", "", "TransposeSpec JSON for Findings-domain wide-to-tall reshape, optional")
	executeDomainCmd.Flags().StringVar(&execStudyID, "study-id", "", "Study identifier (required)")
	executeDomainCmd.Flags().StringVar(&execSiteCol, "site-col", "", "Source column holding the site identifier")
	executeDomainCmd.Flags().StringVar(&execSubjectCol, "subject-col", "", "Source column holding the subject identifier")
	executeDomainCmd.Flags().StringVar(&execOut, "out", "", "Write the resulting table.Table JSON here instead of stdout")
}

func runExecuteDomain(cmd *cobra.Command, args []string) error {
	if execSpecPath == "" {
		return fmt.Errorf("--spec is required")
	}
	if len(execRawTables) == 0 {
		return fmt.Errorf("at least one --raw table is required")
	}
	if execStudyID == "" {
		return fmt.Errorf("--study-id is required")
	}

	var spec mapping.DomainMappingSpec
	if err := loadJSON(execSpecPath, &spec); err != nil {
		return err
	}

	rawTables := make(map[string]*table.Table, len(execRawTables))
	for _, pair := range execRawTables {
		name, path, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("--raw %q: expected name=path.json", pair)
		}
		var t table.Table
		if err := loadJSON(path, &t); err != nil {
			return err
		}
		rawTables[name] = &t
	}

	var secondaries []*table.Table
	for _, path := range execSecondaries {
		var t table.Table
		if err := loadJSON(path, &t); err != nil {
			return err
		}
		secondaries = append(secondaries, &t)
	}

	var ctx *handlers.CrossDomainContext
	if execContextPath != "" {
		ctx = &handlers.CrossDomainContext{}
		if err := loadJSON(execContextPath, ctx); err != nil {
			return err
		}
	}

	var preprocess *execution.PreprocessConfig
	if execPreprocessPath != "" {
		preprocess = &execution.PreprocessConfig{}
		if err := loadJSON(execPreprocessPath, preprocess); err != nil {
			return err
		}
	}

	var transpose *execution.TransposeSpec
	if execTransposePath != "" {
		transpose = &execution.TransposeSpec{}
		if err := loadJSON(execTransposePath, transpose); err != nil {
			return err
		}
	}

	store, err := reference.NewStore()
	if err != nil {
		return fmt.Errorf("loading reference store: %w", err)
	}

	result, warnings, err := execution.Execute(execution.Params{
		Spec:        spec,
		RawTables:   rawTables,
		Context:     ctx,
		StudyID:     execStudyID,
		SiteCol:     execSiteCol,
		SubjectCol:  execSubjectCol,
		Preprocess:  preprocess,
		Secondaries: secondaries,
		Transpose:   transpose,
		Store:       store,
	})
	if err != nil {
		return fmt.Errorf("executing %s: %w", spec.Domain, err)
	}

	for _, w := range warnings {
		printWarning("%s row %d: %s", w.SDTMVariable, w.RowIndex, w.Message)
	}
	printInfo("%s: %d row(s) materialized, %d warning(s)", spec.Domain, len(result.Rows), len(warnings))
	return writeJSON(execOut, result)
}
