package main

import (
	"fmt"

	"github.com/sanmaysarada/astraea/internal/config"
	"github.com/sanmaysarada/astraea/internal/embeddings"
	"github.com/sanmaysarada/astraea/internal/learning"
	"github.com/sanmaysarada/astraea/internal/review"
	"github.com/sanmaysarada/astraea/internal/ui"
	"github.com/spf13/cobra"
)

var (
	learnIngestReviewDB   string
	learnIngestSession    string
	learnIngestDomain     string
	learnIngestStudyID    string
	learnIngestLearningDB string
	learnIngestIndexDir   string
	learnIngestEmbed      bool
)

var learnIngestCmd = &cobra.Command{
	Use:   "learn-ingest",
	Short: "Ingest one reviewed domain's decisions into the learning substrate",
	Long: `Reads a completed DomainReview from --review-db and converts every
decision into a learning.Example — approved mappings as ACCEPTED, corrected
mappings as CORRECTED (carrying the corrected logic and reason), rejections
as REJECTED — so later map-domain runs can cite this study's own review
history as precedent (spec.md §4.11).`,
	RunE: runLearnIngest,
}

var (
	learnStatsLearningDB string
	learnStatsSince      string
	learnStatsOut        string
)

var learnStatsCmd = &cobra.Command{
	Use:   "learn-stats",
	Short: "Report per-variable accuracy metrics from the learning substrate",
	RunE:  runLearnStats,
}

var (
	learnOptimizeLearningDB string
	learnOptimizeOut        string
)

var learnOptimizeCmd = &cobra.Command{
	Use:   "learn-optimize",
	Short: "Surface (domain, variable) pairs whose review history suggests the mapping prompt needs more guidance",
	RunE:  runLearnOptimize,
}

func init() {
	learnIngestCmd.Flags().StringVar(&learnIngestReviewDB, "review-db", "", "Review store path (required)")
	learnIngestCmd.Flags().StringVar(&learnIngestSession, "session", "", "Review session id (required)")
	learnIngestCmd.Flags().StringVar(&learnIngestDomain, "domain", "", "Domain to ingest (required)")
	learnIngestCmd.Flags().StringVar(&learnIngestStudyID, "study-id", "", "Study identifier recorded on each example")
	learnIngestCmd.Flags().StringVar(&learnIngestLearningDB, "learning-db", "", "Learning store path (required)")
	learnIngestCmd.Flags().StringVar(&learnIngestIndexDir, "index-dir", "", "Bleve index directory for keyword retrieval, optional")
	learnIngestCmd.Flags().BoolVar(&learnIngestEmbed, "embed", false, "Compute and store an embedding for each ingested example")

	learnStatsCmd.Flags().StringVar(&learnStatsLearningDB, "learning-db", "", "Learning store path (required)")
	learnStatsCmd.Flags().StringVar(&learnStatsSince, "since", "", "Only report metrics for this domain")
	learnStatsCmd.Flags().StringVar(&learnStatsOut, "out", "", "Write metrics JSON here instead of a table")

	learnOptimizeCmd.Flags().StringVar(&learnOptimizeLearningDB, "learning-db", "", "Learning store path (required)")
	learnOptimizeCmd.Flags().StringVar(&learnOptimizeOut, "out", "", "Write suggestions JSON here instead of a table")
}

func runLearnIngest(cmd *cobra.Command, args []string) error {
	if learnIngestReviewDB == "" || learnIngestSession == "" || learnIngestDomain == "" || learnIngestLearningDB == "" {
		return fmt.Errorf("--review-db, --session, --domain, and --learning-db are all required")
	}

	reviewStore, err := review.OpenStore(learnIngestReviewDB)
	if err != nil {
		return fmt.Errorf("opening review store: %w", err)
	}
	defer reviewStore.Close()

	dr, err := reviewStore.LoadDomainReview(learnIngestSession, learnIngestDomain)
	if err != nil {
		return fmt.Errorf("loading domain review: %w", err)
	}
	if dr == nil {
		return fmt.Errorf("no review state for session %s domain %s", learnIngestSession, learnIngestDomain)
	}

	learningStore, err := learning.OpenStore(learnIngestLearningDB)
	if err != nil {
		return fmt.Errorf("opening learning store: %w", err)
	}
	defer learningStore.Close()

	var index *learning.Index
	if learnIngestIndexDir != "" {
		index, err = learning.OpenIndex(learnIngestIndexDir)
		if err != nil {
			return fmt.Errorf("opening index: %w", err)
		}
		defer index.Close()
	}

	var embedder *embeddings.SearchEmbedder
	if learnIngestEmbed {
		loadErr := ui.ShowSpinner("loading embedding model", func() error {
			var embedErr error
			embedder, embedErr = embeddings.NewSearchEmbedder(config.DefaultConfig())
			return embedErr
		})
		if loadErr != nil {
			printWarning("continuing without embeddings: %v", loadErr)
			embedder = nil
		}
	}

	count := 0
	for _, m := range dr.OriginalSpec.VariableMappings {
		decision, ok := dr.Decisions[m.SDTMVariable]
		if !ok {
			continue
		}
		ex := learning.Example{
			Domain:         dr.Domain,
			SDTMVariable:   m.SDTMVariable,
			SourceVariable: m.SourceVariable,
			MappingPattern: m.MappingPattern,
			MappingLogic:   m.MappingLogic,
			StudyID:        learnIngestStudyID,
		}
		switch decision.Status {
		case review.DecisionApproved, review.DecisionSkipped:
			ex.Outcome = learning.OutcomeAccepted
		case review.DecisionCorrected:
			if decision.CorrectionType == review.CorrectionReject {
				ex.Outcome = learning.OutcomeRejected
			} else {
				ex.Outcome = learning.OutcomeCorrected
				if decision.CorrectedMapping != nil {
					ex.CorrectedLogic = decision.CorrectedMapping.MappingLogic
				}
			}
		}

		ingested, err := learningStore.Ingest(ex)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", m.SDTMVariable, err)
		}

		if embedder != nil && embedder.IsEnabled() {
			if vec, embedErr := embedder.Embed(ingested.SearchText()); embedErr == nil {
				if err := learningStore.SetEmbedding(ingested.ID, vec); err != nil {
					printWarning("storing embedding for %s: %v", ingested.ID, err)
				} else {
					ingested.Embedding = vec
				}
			} else {
				printWarning("embedding %s: %v", ingested.ID, embedErr)
			}
		}

		if index != nil {
			if err := index.Put(ingested); err != nil {
				printWarning("indexing %s: %v", ingested.ID, err)
			}
		}

		count++
	}

	printSuccess("ingested %d example(s) from session %s domain %s", count, learnIngestSession, learnIngestDomain)
	return nil
}

func runLearnStats(cmd *cobra.Command, args []string) error {
	if learnStatsLearningDB == "" {
		return fmt.Errorf("--learning-db is required")
	}
	store, err := learning.OpenStore(learnStatsLearningDB)
	if err != nil {
		return fmt.Errorf("opening learning store: %w", err)
	}
	defer store.Close()

	metrics, err := store.Metrics()
	if err != nil {
		return fmt.Errorf("computing metrics: %w", err)
	}
	if learnStatsSince != "" {
		var filtered []learning.AccuracyMetrics
		for _, m := range metrics {
			if m.Domain == learnStatsSince {
				filtered = append(filtered, m)
			}
		}
		metrics = filtered
	}

	if learnStatsOut != "" {
		return writeJSON(learnStatsOut, metrics)
	}
	if len(metrics) == 0 {
		printInfo("no ingested examples")
		return nil
	}
	fmt.Printf("%-8s %-20s %-8s %-10s %s\n", "DOMAIN", "VARIABLE", "TOTAL", "ACCURACY", "A/C/R")
	for _, m := range metrics {
		fmt.Printf("%-8s %-20s %-8d %-10.2f %d/%d/%d\n", m.Domain, m.SDTMVariable, m.Total, m.AccuracyRate(), m.Accepted, m.Corrected, m.Rejected)
	}
	return nil
}

func runLearnOptimize(cmd *cobra.Command, args []string) error {
	if learnOptimizeLearningDB == "" {
		return fmt.Errorf("--learning-db is required")
	}
	store, err := learning.OpenStore(learnOptimizeLearningDB)
	if err != nil {
		return fmt.Errorf("opening learning store: %w", err)
	}
	defer store.Close()

	optimizer := &learning.Optimizer{Store: store}
	suggestions, err := optimizer.Suggestions()
	if err != nil {
		return fmt.Errorf("computing suggestions: %w", err)
	}

	if learnOptimizeOut != "" {
		return writeJSON(learnOptimizeOut, suggestions)
	}
	if len(suggestions) == 0 {
		printInfo("no low-accuracy variables found")
		return nil
	}
	fmt.Printf("%-8s %-20s %-10s %-8s %s\n", "DOMAIN", "VARIABLE", "ACCURACY", "SAMPLES", "TOP CORRECTION")
	for _, s := range suggestions {
		fmt.Printf("%-8s %-20s %-10.2f %-8d %s\n", s.Domain, s.SDTMVariable, s.AccuracyRate, s.SampleSize, s.TopCorrection)
	}
	return nil
}
