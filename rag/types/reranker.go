package types

import (
	"sort"
	"strings"
)

// Reranker defines the interface for the secondary scoring pass applied to
// fused candidates before results are returned.
type Reranker interface {
	// Rerank scores the candidates against the query, orders them by
	// descending score and truncates to topK.
	Rerank(query string, candidates []FusedCandidate, topK int) ([]Result, error)
}

// Default weights and ideal length for the weighted reranker. The weights
// are tunable, not derived; they favour the upstream ranking while still
// correcting for answer length and literal keyword overlap.
const (
	DefaultScoreWeight   = 0.5
	DefaultLengthWeight  = 0.2
	DefaultKeywordWeight = 0.3
	DefaultIdealLength   = 500
)

// WeightedReranker combines three signals, each normalized to [0,1]:
// the candidate's fused score, a length-fitness score against a configured
// ideal length, and the fraction of distinct query terms that literally
// occur in the candidate's text. No external calls are made.
type WeightedReranker struct {
	scoreWeight   float64
	lengthWeight  float64
	keywordWeight float64
	idealLength   int
}

// NewWeightedReranker creates a reranker with the default weights.
func NewWeightedReranker() *WeightedReranker {
	return NewWeightedRerankerWithWeights(DefaultScoreWeight, DefaultLengthWeight, DefaultKeywordWeight, DefaultIdealLength)
}

// NewWeightedRerankerWithWeights creates a reranker with custom weights.
// The three weights are normalized to sum to 1; non-positive weight sets
// and a non-positive ideal length fall back to the defaults.
func NewWeightedRerankerWithWeights(scoreWeight, lengthWeight, keywordWeight float64, idealLength int) *WeightedReranker {
	total := scoreWeight + lengthWeight + keywordWeight
	if scoreWeight < 0 || lengthWeight < 0 || keywordWeight < 0 || total <= 0 {
		scoreWeight, lengthWeight, keywordWeight = DefaultScoreWeight, DefaultLengthWeight, DefaultKeywordWeight
		total = scoreWeight + lengthWeight + keywordWeight
	}
	if idealLength <= 0 {
		idealLength = DefaultIdealLength
	}

	return &WeightedReranker{
		scoreWeight:   scoreWeight / total,
		lengthWeight:  lengthWeight / total,
		keywordWeight: keywordWeight / total,
		idealLength:   idealLength,
	}
}

// Rerank computes the combined score per candidate and returns the topK
// results ordered by descending score. The sort is stable, so ties keep
// their input order.
func (r *WeightedReranker) Rerank(query string, candidates []FusedCandidate, topK int) ([]Result, error) {
	terms := distinctTerms(query)

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		if c.Document == nil {
			continue
		}

		scoreSignal := 0.5
		if c.FusedScore >= 0 {
			scoreSignal = clamp01(c.FusedScore)
		}

		combined := r.scoreWeight*scoreSignal +
			r.lengthWeight*r.lengthFitness(len(c.Document.Content)) +
			r.keywordWeight*keywordOverlap(terms, c.Document.Content)

		results = append(results, Result{
			ID:         c.Document.ID,
			Content:    c.Document.Content,
			Metadata:   c.Document.Metadata,
			FusedScore: c.FusedScore,
			Score:      combined,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// lengthFitness scores 1.0 at the ideal length and decays linearly to 0 at
// zero length and at twice the ideal length.
func (r *WeightedReranker) lengthFitness(length int) float64 {
	diff := float64(length - r.idealLength)
	if diff < 0 {
		diff = -diff
	}
	score := 1.0 - diff/float64(r.idealLength)
	if score < 0 {
		return 0
	}
	return score
}

// keywordOverlap returns the fraction of the distinct query terms that
// occur literally in the text. An empty term set scores 0.
func keywordOverlap(terms []string, text string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func distinctTerms(query string) []string {
	seen := map[string]struct{}{}
	terms := []string{}
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
