package main

import (
	"fmt"

	"github.com/sanmaysarada/astraea/internal/classifier"
	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/sanmaysarada/astraea/internal/study"
	"github.com/spf13/cobra"
)

var classifyOut string

var classifyCmd = &cobra.Command{
	Use:   "classify <profile.json>...",
	Short: "Score profiled datasets against every bundled SDTM domain",
	Long: `Reads one or more DatasetProfile JSON files (as produced by profile) and
scores each against every bundled domain's filename and variable-overlap
heuristics, reporting the winning domain or UNCLASSIFIED.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyOut, "out", "", "Write the classifications JSON here instead of stdout")
}

func runClassify(cmd *cobra.Command, args []string) error {
	store, err := reference.NewStore()
	if err != nil {
		return fmt.Errorf("loading reference store: %w", err)
	}

	var results []classifier.Classification
	for _, path := range args {
		var profile study.DatasetProfile
		if err := loadJSON(path, &profile); err != nil {
			return err
		}
		c := classifier.ClassifyProfile(&profile, store)
		if c.TopDomain == "" {
			printWarning("%s: UNCLASSIFIED (top score %.2f below threshold)", profile.Filename, c.TopScore)
		} else {
			printInfo("%s -> %s (score %.2f)", profile.Filename, c.TopDomain, c.TopScore)
		}
		results = append(results, c)
	}

	groups := classifier.MergeGroups(results)
	printDebug("grouped %d domain(s) from %d dataset(s)", len(groups), len(results))

	return writeJSON(classifyOut, struct {
		Classifications []classifier.Classification `json:"classifications"`
		Groups          map[string][]string         `json:"groups"`
	}{results, groups})
}
