package learning

import (
	"math"
	"sort"

	"github.com/sanmaysarada/astraea/internal/embeddings"
	"github.com/sanmaysarada/astraea/internal/mappingctx"
)

// Embedder is the subset of embeddings.SearchEmbedder the retriever needs,
// narrowed to an interface so tests can substitute a fake without an ONNX
// runtime.
type Embedder interface {
	Embed(text string) ([]float32, error)
	IsEnabled() bool
}

var _ Embedder = (*embeddings.SearchEmbedder)(nil)

// Retriever answers "what happened last time" for a given SDTM variable,
// reading the structured store and re-ranking by embedding similarity when
// the embedder is enabled (falling back to store order when it is disabled)
// — the same enabled/disabled fallback shape as embeddings.SearchEmbedder
// itself. The Index field is not consulted during retrieval.
type Retriever struct {
	Store    *Store
	Index    *Index
	Embedder Embedder
}

// LearnedExamples returns up to limit prior review decisions for (domain,
// sdtmVariable) shaped as mappingctx.LearnedExample, ready to hand straight
// into mappingctx.BuildPromptParams.LearnedExamples. Rejections are
// rendered as corrections (wrong pattern -> no pattern) since a reviewer
// rejecting a mapping outright is exactly the kind of mistake a future
// proposal should avoid repeating.
func (r *Retriever) LearnedExamples(domain, sdtmVariable string, limit int) ([]mappingctx.LearnedExample, error) {
	examples, err := r.rank(domain, sdtmVariable, limit)
	if err != nil {
		return nil, err
	}
	out := make([]mappingctx.LearnedExample, 0, len(examples))
	for _, ex := range examples {
		switch ex.Outcome {
		case OutcomeAccepted:
			out = append(out, mappingctx.LearnedExample{
				Domain: ex.Domain, SDTMVariable: ex.SDTMVariable,
				Pattern: ex.MappingPattern, Logic: ex.MappingLogic,
			})
		case OutcomeCorrected:
			out = append(out, mappingctx.LearnedExample{
				IsCorrection: true, Domain: ex.Domain, SDTMVariable: ex.SDTMVariable,
				Wrong: ex.MappingLogic, Correct: ex.CorrectedLogic,
			})
		case OutcomeRejected:
			out = append(out, mappingctx.LearnedExample{
				IsCorrection: true, Domain: ex.Domain, SDTMVariable: ex.SDTMVariable,
				Wrong: ex.MappingLogic, Correct: "rejected: " + ex.Reason,
			})
		}
	}
	return out, nil
}

// rank returns the most relevant examples for a variable: the store's
// examples for (domain, sdtmVariable), re-ordered by embedding cosine
// similarity to the query text "<domain> <sdtmVariable>" when an embedder is
// available, otherwise left in store order (most recent first).
func (r *Retriever) rank(domain, sdtmVariable string, limit int) ([]Example, error) {
	all, err := r.Store.ForVariable(domain, sdtmVariable)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	if r.Embedder == nil || !r.Embedder.IsEnabled() {
		if len(all) > limit {
			all = all[:limit]
		}
		return all, nil
	}

	queryText := domain + " " + sdtmVariable
	queryVec, err := r.Embedder.Embed(queryText)
	if err != nil {
		if len(all) > limit {
			all = all[:limit]
		}
		return all, nil
	}

	type scored struct {
		ex    Example
		score float64
	}
	var ranked []scored
	for _, ex := range all {
		if len(ex.Embedding) == 0 {
			ranked = append(ranked, scored{ex: ex, score: 0})
			continue
		}
		ranked = append(ranked, scored{ex: ex, score: cosineSimilarity(queryVec, ex.Embedding)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	out := make([]Example, 0, limit)
	for i := 0; i < len(ranked) && i < limit; i++ {
		out = append(out, ranked[i].ex)
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
