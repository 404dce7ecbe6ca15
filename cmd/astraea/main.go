package main

import (
	"fmt"
	"os"

	"github.com/sanmaysarada/astraea/internal/config"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-alpha"
	commit  = "dev"
	date    = "unknown"
)

// Global flags
var (
	noColor bool
	quiet   bool
	verbose bool
	yes     bool
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "astraea",
	Short: "CDISC SDTM clinical-trial-data conversion pipeline",
	Long: `astraea converts raw clinical-trial source data into regulator-submission-
ready CDISC SDTM datasets: an LLM proposes per-variable mappings, deterministic
code validates and executes them, a human reviewer approves or corrects each
one, and an accumulating corpus of reviewed decisions feeds back as few-shot
context for subsequent studies.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Example: `  # Profile a raw source dataset
  astraea profile raw_ae.json --study-id STUDY-001 --out profile_ae.json

  # Propose mappings for the AE domain
  astraea map-domain --domain AE --profiles profile_ae.json --study-id STUDY-001 --dry-run --out spec_ae.json

  # Walk the reviewer through the proposed mappings
  astraea review-domain --spec spec_ae.json --study-id STUDY-001 --review-db review.db --out reviewed_ae.json

  # Execute the reviewed spec against the raw data
  astraea execute-domain --spec reviewed_ae.json --raw ae_raw=raw_ae.json --study-id STUDY-001 --out ae_table.json

  # Validate everything that has been executed so far
  astraea validate --domain AE=ae_table.json --spec AE=reviewed_ae.json --study-id STUDY-001

  # Assemble the submission package
  astraea package-submission --study-id STUDY-001 --domain AE=ae_table.json --spec AE=reviewed_ae.json --ts ts_table.json --output-dir ./submission`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "Assume yes to all prompts (non-interactive mode)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output")

	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(parseECRFCmd)
	rootCmd.AddCommand(mapDomainCmd)
	rootCmd.AddCommand(reviewDomainCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(executeDomainCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(learnIngestCmd)
	rootCmd.AddCommand(learnStatsCmd)
	rootCmd.AddCommand(learnOptimizeCmd)
	rootCmd.AddCommand(packageSubmissionCmd)
}

func main() {
	cfg := config.DefaultConfig()
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create directories: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
