package learning

import (
	"fmt"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"

	"github.com/sanmaysarada/astraea/internal/errors"
)

const opIndex errors.Op = "learning.Index"

// Index wraps the Bleve full-text index over ingested examples, grounded on
// the teacher's search.InitBleveIndex open-or-create pattern, simplified to
// a plain text analyzer since SDTM variable names and mapping prose need no
// domain-specific synonym expansion.
type Index struct {
	bleve bleve.Index
	path  string
}

// OpenIndex opens or creates the example index under dataDir.
func OpenIndex(dataDir string) (*Index, error) {
	path := filepath.Join(dataDir, "examples.bleve")
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		mapping := bleve.NewIndexMapping()
		idx, err = bleve.New(path, mapping)
		if err != nil {
			return nil, errors.E(opIndex, errors.KindSearch, fmt.Errorf("create index: %w", err))
		}
	} else if err != nil {
		return nil, errors.E(opIndex, errors.KindSearch, fmt.Errorf("open index: %w", err))
	}
	return &Index{bleve: idx, path: path}, nil
}

func (i *Index) Close() error { return i.bleve.Close() }

// indexDoc is the flat document shape indexed for each example.
type indexDoc struct {
	Domain         string `json:"domain"`
	SDTMVariable   string `json:"sdtm_variable"`
	SourceVariable string `json:"source_variable"`
	MappingPattern string `json:"mapping_pattern"`
	Text           string `json:"text"`
	Outcome        string `json:"outcome"`
}

// Put indexes (or re-indexes) ex under its content-addressed id.
func (i *Index) Put(ex Example) error {
	doc := indexDoc{
		Domain: ex.Domain, SDTMVariable: ex.SDTMVariable, SourceVariable: ex.SourceVariable,
		MappingPattern: ex.MappingPattern, Text: ex.SearchText(), Outcome: string(ex.Outcome),
	}
	if err := i.bleve.Index(ex.ID, doc); err != nil {
		return errors.E(opIndex, errors.KindSearch, err)
	}
	return nil
}

// SearchVariable returns up to limit example ids matching a free-text
// query scoped to a specific SDTM variable within a domain.
func (i *Index) SearchVariable(domain, sdtmVariable, freeText string, limit int) ([]string, error) {
	variableQuery := bleve.NewMatchQuery(sdtmVariable)
	variableQuery.SetField("sdtm_variable")
	domainQuery := bleve.NewMatchQuery(domain)
	domainQuery.SetField("domain")
	conj := bleve.NewConjunctionQuery(variableQuery, domainQuery)
	if freeText != "" {
		textQuery := bleve.NewMatchQuery(freeText)
		textQuery.SetField("text")
		conj.AddQuery(textQuery)
	}

	req := bleve.NewSearchRequest(conj)
	req.Size = limit
	result, err := i.bleve.Search(req)
	if err != nil {
		return nil, errors.E(opIndex, errors.KindSearch, err)
	}
	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}
