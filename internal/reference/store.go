package reference

import (
	"embed"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/sanmaysarada/astraea/internal/errors"
)

//go:embed data/domains.json data/codelists.json
var bundledData embed.FS

const op errors.Op = "reference.NewStore"

// Store answers lookups against the bundled SDTM-IG domain specifications
// and controlled-terminology codelists. It is built once at process start and
// never mutated afterward.
type Store struct {
	domains   map[string]*Domain
	codelists map[string]*Codelist

	// reverseIndex maps a variable name to every codelist code that claims
	// it, preserving bundled order. Multiple codelists can legitimately
	// claim one variable name across domains (e.g. LBSPEC), so this is
	// multi-valued rather than first-writer-wins.
	reverseIndex map[string][]string
	mu           sync.RWMutex
}

// NewStore loads the embedded domain and codelist manifests and builds the
// reverse index. It fails fast if the bundled data is malformed — that data
// ships with the binary, so a failure here means a packaging bug, not a
// runtime condition callers should recover from.
func NewStore() (*Store, error) {
	domainsRaw, err := bundledData.ReadFile("data/domains.json")
	if err != nil {
		return nil, errors.E(op, errors.KindInternal, "reading bundled domains.json", err)
	}
	var domainList []Domain
	if err := json.Unmarshal(domainsRaw, &domainList); err != nil {
		return nil, errors.E(op, errors.KindInternal, "parsing bundled domains.json", err)
	}

	codelistsRaw, err := bundledData.ReadFile("data/codelists.json")
	if err != nil {
		return nil, errors.E(op, errors.KindInternal, "reading bundled codelists.json", err)
	}
	var codelistList []Codelist
	if err := json.Unmarshal(codelistsRaw, &codelistList); err != nil {
		return nil, errors.E(op, errors.KindInternal, "parsing bundled codelists.json", err)
	}

	s := &Store{
		domains:      make(map[string]*Domain, len(domainList)),
		codelists:    make(map[string]*Codelist, len(codelistList)),
		reverseIndex: make(map[string][]string),
	}

	for i := range domainList {
		d := domainList[i]
		if d.Code == "" {
			return nil, errors.E(op, errors.KindInternal, fmt.Sprintf("domain entry %d missing code", i), nil)
		}
		if _, dup := s.domains[d.Code]; dup {
			return nil, errors.E(op, errors.KindInternal, fmt.Sprintf("duplicate domain code %q", d.Code), nil)
		}
		s.domains[d.Code] = &d
	}

	for i := range codelistList {
		c := codelistList[i]
		if c.Code == "" {
			return nil, errors.E(op, errors.KindInternal, fmt.Sprintf("codelist entry %d missing code", i), nil)
		}
		if _, dup := s.codelists[c.Code]; dup {
			return nil, errors.E(op, errors.KindInternal, fmt.Sprintf("duplicate codelist code %q", c.Code), nil)
		}
		s.codelists[c.Code] = &c
		for _, v := range c.VariableMappings {
			s.reverseIndex[v] = append(s.reverseIndex[v], c.Code)
		}
	}

	return s, nil
}

// GetDomainSpec returns the bundled specification for code, or nil if the
// store has no entry for it.
func (s *Store) GetDomainSpec(code string) *Domain {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.domains[code]
}

// DomainCodes returns every bundled domain code, in no particular order.
func (s *Store) DomainCodes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.domains))
	for code := range s.domains {
		out = append(out, code)
	}
	return out
}

// LookupCodelist returns the codelist registered under code, or nil.
func (s *Store) LookupCodelist(code string) *Codelist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.codelists[code]
}

// GetCodelistForVariable returns the first codelist that claims variable
// name. If more than one codelist claims it, the collision is logged and the
// bundled-order-first match is returned — callers needing every candidate
// should use GetCodelistsForVariable instead.
func (s *Store) GetCodelistForVariable(name string) *Codelist {
	all := s.GetCodelistsForVariable(name)
	if len(all) == 0 {
		return nil
	}
	if len(all) > 1 {
		log.Printf("reference: variable %q claimed by %d codelists, using %q", name, len(all), all[0].Code)
	}
	return all[0]
}

// GetCodelistsForVariable returns every codelist that claims variable name,
// in bundled order.
func (s *Store) GetCodelistsForVariable(name string) []*Codelist {
	s.mu.RLock()
	codes := s.reverseIndex[name]
	out := make([]*Codelist, 0, len(codes))
	for _, code := range codes {
		if c, ok := s.codelists[code]; ok {
			out = append(out, c)
		}
	}
	s.mu.RUnlock()
	return out
}

// ValidateTerm reports whether value is a member of codelistCode. An unknown
// codelist code is treated as a non-match rather than an error: callers
// validating against a CodelistCode sourced from a Variable that itself
// might be stale should not panic on drift between the two bundled files.
func (s *Store) ValidateTerm(codelistCode, value string) bool {
	c := s.LookupCodelist(codelistCode)
	if c == nil {
		return false
	}
	return c.HasTerm(value)
}
