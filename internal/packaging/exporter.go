package packaging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sanmaysarada/astraea/internal/validation"
)

// Export writes the eCTD submission directory tree: one transport-format
// file per domain (and SUPPQUAL dataset) under m5/datasets/tabulations/sdtm,
// define.xml alongside them, and the cSDRG narrative one level up. Grounded
// on internal/export/exporter.go's Config/Stats/os.MkdirAll export idiom,
// adapted from a single SQLite export pass to writing the dataset+metadata
// file set a regulatory submission expects.
func Export(cfg Config) (*Stats, error) {
	datasetDir := filepath.Join(cfg.OutputDir, tabulationsDir)
	if err := os.MkdirAll(datasetDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dataset directory: %w", err)
	}

	var domainOrder []string
	for domain := range cfg.Specs {
		domainOrder = append(domainOrder, domain)
	}
	sort.Strings(domainOrder)

	stats := &Stats{}
	if cfg.Serializer != nil {
		for _, domain := range domainOrder {
			t := cfg.Domains[domain]
			if t == nil {
				continue
			}
			path := filepath.Join(datasetDir, strings.ToLower(domain)+".xpt")
			if err := cfg.Serializer.WriteDataset(t, path); err != nil {
				return nil, fmt.Errorf("failed to write %s dataset: %w", domain, err)
			}
			stats.DatasetsWritten++

			if suppT, ok := cfg.Domains["SUPP"+domain]; ok {
				suppPath := filepath.Join(datasetDir, "supp"+strings.ToLower(domain)+".xpt")
				if err := cfg.Serializer.WriteDataset(suppT, suppPath); err != nil {
					return nil, fmt.Errorf("failed to write SUPP%s dataset: %w", domain, err)
				}
				stats.SuppqualWritten++
			}
		}
	}

	defineXML, err := BuildDefineXML(cfg.StudyID, cfg.Specs, cfg.Domains, domainOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to build define.xml: %w", err)
	}
	if err := os.WriteFile(filepath.Join(datasetDir, "define.xml"), defineXML, 0644); err != nil {
		return nil, fmt.Errorf("failed to write define.xml: %w", err)
	}

	csdrg := BuildCSDRG(cfg.StudyID, cfg.TS, cfg.Specs, cfg.Findings)
	if err := os.WriteFile(filepath.Join(cfg.OutputDir, "m5", "datasets", "tabulations", "csdrg.md"), []byte(csdrg), 0644); err != nil {
		return nil, fmt.Errorf("failed to write cSDRG: %w", err)
	}

	summary := validation.Summarize(cfg.Findings)
	stats.ErrorFindings = summary.Errors
	stats.WarningFindings = summary.Warnings
	return stats, nil
}
