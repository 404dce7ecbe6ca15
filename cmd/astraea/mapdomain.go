package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/sanmaysarada/astraea/internal/config"
	"github.com/sanmaysarada/astraea/internal/embeddings"
	"github.com/sanmaysarada/astraea/internal/learning"
	"github.com/sanmaysarada/astraea/internal/llmclient"
	"github.com/sanmaysarada/astraea/internal/mapping"
	"github.com/sanmaysarada/astraea/internal/mappingctx"
	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/sanmaysarada/astraea/internal/study"
	"github.com/sanmaysarada/astraea/internal/ui"
	"github.com/spf13/cobra"
)

var (
	mapDomainCode       string
	mapDomainProfiles   []string
	mapDomainCrossProfs []string
	mapDomainECRF       string
	mapDomainStudyID    string
	mapDomainSiteCol    string
	mapDomainSubjectCol string
	mapDomainSponsor    string
	mapDomainIndication string
	mapDomainModel      string
	mapDomainDryRun     bool
	mapDomainFixture    string
	mapDomainLearningDB string
	mapDomainOut        string
)

var mapDomainCmd = &cobra.Command{
	Use:   "map-domain",
	Short: "Propose per-variable SDTM mappings for one domain",
	Long: `Assembles the bounded per-domain prompt (spec.md §6), invokes the injected
LLM capability under a schema-forced output contract, and enriches the
resulting proposals against the reference store. The LLM transport itself is
out of scope (spec.md §1); --dry-run substitutes a canned proposal batch read
from --llm-fixture so the rest of the pipeline is exercisable without a live
API key.`,
	RunE: runMapDomain,
}

func init() {
	mapDomainCmd.Flags().StringVar(&mapDomainCode, "domain", "", "SDTM domain code to map (required)")
	mapDomainCmd.Flags().StringSliceVar(&mapDomainProfiles, "profiles", nil, "DatasetProfile JSON file(s) for this domain's source data")
	mapDomainCmd.Flags().StringSliceVar(&mapDomainCrossProfs, "cross-profiles", nil, "DatasetProfile JSON file(s) from other domains, for cross-domain context")
	mapDomainCmd.Flags().StringVar(&mapDomainECRF, "ecrf-forms", "", "Normalized ECRFForm JSON file (from parse-ecrf)")
	mapDomainCmd.Flags().StringVar(&mapDomainStudyID, "study-id", "", "Study identifier (required)")
	mapDomainCmd.Flags().StringVar(&mapDomainSiteCol, "site-col", "", "Source column holding the site identifier")
	mapDomainCmd.Flags().StringVar(&mapDomainSubjectCol, "subject-col", "", "Source column holding the subject identifier")
	mapDomainCmd.Flags().StringVar(&mapDomainSponsor, "sponsor", "", "Sponsor name, carried into study metadata")
	mapDomainCmd.Flags().StringVar(&mapDomainIndication, "indication", "", "Study indication, carried into study metadata")
	mapDomainCmd.Flags().StringVar(&mapDomainModel, "model", "claude-sonnet", "Model identifier recorded on the resulting spec")
	mapDomainCmd.Flags().BoolVar(&mapDomainDryRun, "dry-run", false, "Use a canned LLM response instead of a live capability")
	mapDomainCmd.Flags().StringVar(&mapDomainFixture, "llm-fixture", "", "Canned proposals JSON (required with --dry-run)")
	mapDomainCmd.Flags().StringVar(&mapDomainLearningDB, "learning-db", "", "Learning store path to draw few-shot examples from (optional)")
	mapDomainCmd.Flags().StringVar(&mapDomainOut, "out", "", "Write the resulting DomainMappingSpec JSON here instead of stdout")
}

// fixtureCapability implements llmclient.Capability by always returning a
// fixed response, regardless of the prompt — the --dry-run stand-in for the
// out-of-scope live LLM transport.
type fixtureCapability struct {
	response json.RawMessage
}

func (f *fixtureCapability) Parse(ctx context.Context, messages []llmclient.Message, system string, outputSchema *jsonschema.Schema, opts llmclient.CallOptions) (json.RawMessage, error) {
	return f.response, nil
}

func runMapDomain(cmd *cobra.Command, args []string) error {
	if mapDomainCode == "" {
		return fmt.Errorf("--domain is required")
	}
	if mapDomainStudyID == "" {
		return fmt.Errorf("--study-id is required")
	}

	store, err := reference.NewStore()
	if err != nil {
		return fmt.Errorf("loading reference store: %w", err)
	}

	profiles, err := loadProfiles(mapDomainProfiles)
	if err != nil {
		return err
	}
	crossProfiles, err := loadProfiles(mapDomainCrossProfs)
	if err != nil {
		return err
	}
	var ecrfForms []study.ECRFForm
	if mapDomainECRF != "" {
		if err := loadJSON(mapDomainECRF, &ecrfForms); err != nil {
			return err
		}
	}

	learned, err := learnedExamplesForDomain(mapDomainLearningDB, mapDomainCode, store)
	if err != nil {
		printWarning("continuing without learned examples: %v", err)
	}

	var llm llmclient.Capability
	if mapDomainDryRun {
		if mapDomainFixture == "" {
			return fmt.Errorf("--llm-fixture is required with --dry-run")
		}
		raw, err := fixtureResponse(mapDomainFixture)
		if err != nil {
			return err
		}
		llm = &fixtureCapability{response: raw}
	} else {
		return fmt.Errorf("no live LLM capability is wired in this build; pass --dry-run with --llm-fixture")
	}

	engine := &mapping.Engine{
		Store: store,
		LLM:   llm,
		Model: mapDomainModel,
		Clock: func() string { return time.Now().UTC().Format(time.RFC3339) },
	}

	var spec *mapping.DomainMappingSpec
	err = ui.ShowSpinner(fmt.Sprintf("mapping %s", mapDomainCode), func() error {
		var mapErr error
		spec, mapErr = engine.MapDomain(context.Background(), mapping.MapDomainParams{
			Domain:              mapDomainCode,
			SourceProfiles:      profiles,
			ECRFForms:           ecrfForms,
			CrossDomainProfiles: crossProfiles,
			LearnedExamples:     learned,
			StudyMetadata: study.StudyMetadata{
				StudyID:    mapDomainStudyID,
				SiteCol:    mapDomainSiteCol,
				SubjectCol: mapDomainSubjectCol,
				Sponsor:    mapDomainSponsor,
				Indication: mapDomainIndication,
			},
		})
		return mapErr
	})
	if err != nil {
		return fmt.Errorf("mapping %s: %w", mapDomainCode, err)
	}

	printInfo("%s: %d mapping(s) (%d high, %d medium, %d low confidence)",
		spec.Domain, spec.Summary.Total, spec.Summary.High, spec.Summary.Medium, spec.Summary.Low)
	return writeJSON(mapDomainOut, spec)
}

func loadProfiles(paths []string) ([]*study.DatasetProfile, error) {
	var out []*study.DatasetProfile
	for _, path := range paths {
		var p study.DatasetProfile
		if err := loadJSON(path, &p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, nil
}

func fixtureResponse(path string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := loadJSON(path, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

const maxLearnedExamplesPerDomain = 10

// learnedExamplesForDomain draws up to maxLearnedExamplesPerDomain examples
// across the domain's variables. Returns (nil, nil) when dbPath is empty —
// learned context is an optional enrichment, not a hard dependency.
func learnedExamplesForDomain(dbPath, domain string, store *reference.Store) ([]mappingctx.LearnedExample, error) {
	if dbPath == "" {
		return nil, nil
	}
	domainSpec := store.GetDomainSpec(domain)
	if domainSpec == nil {
		return nil, fmt.Errorf("unknown domain %q", domain)
	}

	learningStore, err := learning.OpenStore(dbPath)
	if err != nil {
		return nil, err
	}
	defer learningStore.Close()

	cfg := config.DefaultConfig()
	var retrieverEmbedder learning.Embedder
	if embedder, embedErr := embeddings.NewSearchEmbedder(cfg); embedErr == nil {
		retrieverEmbedder = embedder
	}

	retriever := &learning.Retriever{Store: learningStore, Embedder: retrieverEmbedder}

	var out []mappingctx.LearnedExample
	for _, v := range domainSpec.Variables {
		if len(out) >= maxLearnedExamplesPerDomain {
			break
		}
		examples, err := retriever.LearnedExamples(domain, v.Name, 2)
		if err != nil {
			continue
		}
		out = append(out, examples...)
	}
	if len(out) > maxLearnedExamplesPerDomain {
		out = out[:maxLearnedExamplesPerDomain]
	}
	return out, nil
}
