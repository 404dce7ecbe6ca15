package main

import (
	"fmt"

	"github.com/sanmaysarada/astraea/internal/profiler"
	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/spf13/cobra"
)

// rawDataset is the CLI's own interchange format for an already-read raw
// source dataset: rows plus the external reader's column metadata. Reading
// the vendor's tabular-with-metadata file itself is out of scope (spec.md
// §1); this is the shape that reader would hand to the core.
type rawDataset struct {
	Filename string                        `json:"filename"`
	Rows     []map[string]string           `json:"rows"`
	Columns  map[string]profiler.ColumnMeta `json:"columns"`
}

var (
	profileStudyID string
	profileOut     string
)

var profileCmd = &cobra.Command{
	Use:   "profile <dataset.json>",
	Short: "Profile a raw source dataset into per-variable statistics",
	Long: `Reads a raw dataset (rows plus column metadata, as produced by the
out-of-scope tabular reader) and emits a DatasetProfile: per-variable type,
cardinality, sample values, and SDTM-preformatted detection.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfile,
}

func init() {
	profileCmd.Flags().StringVar(&profileStudyID, "study-id", "", "Study identifier (for logging only; profiles are study-agnostic)")
	profileCmd.Flags().StringVar(&profileOut, "out", "", "Write the profile JSON here instead of stdout")
}

func runProfile(cmd *cobra.Command, args []string) error {
	var raw rawDataset
	if err := loadJSON(args[0], &raw); err != nil {
		return err
	}
	if raw.Filename == "" {
		raw.Filename = args[0]
	}

	store, err := reference.NewStore()
	if err != nil {
		return fmt.Errorf("loading reference store: %w", err)
	}

	profile := profiler.ProfileDataset(raw.Filename, raw.Rows, raw.Columns, store)
	printInfo("profiled %s: %d rows, %d columns, sdtm-preformatted=%v", raw.Filename, profile.RowCount, len(profile.Variables), profile.IsSDTMPreformatted)
	return writeJSON(profileOut, profile)
}
