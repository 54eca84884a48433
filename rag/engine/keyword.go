package engine

import (
	"math"
	"sort"
	"strings"

	"github.com/recollect/recollect/rag/types"
)

// Tokenizer splits text into query/index terms.
type Tokenizer func(string) []string

// DefaultTokenizer lowercases and splits on whitespace.
func DefaultTokenizer(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// Canonical BM25 parameters: k1 controls term-frequency saturation, b the
// strength of document-length normalization.
const (
	DefaultBM25K1 = 1.2
	DefaultBM25B  = 0.75
)

// KeywordIndex ranks documents by BM25 relevance to a tokenized query. It
// is built once from a corpus snapshot and is immutable afterwards, so
// concurrent retrievals need no locking. Both build and retrieval are
// linear in the corpus size, which is acceptable because corpora are small
// enough to fit in memory.
type KeywordIndex struct {
	docs      []*types.Document
	termFreqs []map[string]int
	docLens   []int
	docFreq   map[string]int
	avgDocLen float64
	k1        float64
	b         float64
	tokenize  Tokenizer
}

// KeywordOption configures a KeywordIndex at build time.
type KeywordOption func(*KeywordIndex)

// WithTokenizer replaces the default whitespace tokenizer.
func WithTokenizer(t Tokenizer) KeywordOption {
	return func(idx *KeywordIndex) {
		if t != nil {
			idx.tokenize = t
		}
	}
}

// WithBM25Parameters overrides the k1 and b parameters.
func WithBM25Parameters(k1, b float64) KeywordOption {
	return func(idx *KeywordIndex) {
		idx.k1 = k1
		idx.b = b
	}
}

// NewKeywordIndex builds the index from a corpus snapshot: per-document
// term frequencies, corpus-wide document frequencies and the average
// document length.
func NewKeywordIndex(docs []*types.Document, opts ...KeywordOption) *KeywordIndex {
	idx := &KeywordIndex{
		docs:     docs,
		docFreq:  map[string]int{},
		k1:       DefaultBM25K1,
		b:        DefaultBM25B,
		tokenize: DefaultTokenizer,
	}
	for _, opt := range opts {
		opt(idx)
	}

	totalLen := 0
	for _, doc := range docs {
		terms := idx.tokenize(doc.Content)
		freqs := make(map[string]int, len(terms))
		for _, term := range terms {
			freqs[term]++
		}
		for term := range freqs {
			idx.docFreq[term]++
		}
		idx.termFreqs = append(idx.termFreqs, freqs)
		idx.docLens = append(idx.docLens, len(terms))
		totalLen += len(terms)
	}
	if len(docs) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(docs))
	}

	return idx
}

// Count returns the number of indexed documents.
func (idx *KeywordIndex) Count() int {
	return len(idx.docs)
}

// Retrieve scores every document against the query, drops non-positive
// scores and returns the top k by descending score. Ties keep corpus
// insertion order, so repeated retrievals are byte-identical. A query that
// tokenizes to nothing yields an empty result, not an error.
func (idx *KeywordIndex) Retrieve(query string, k int) ([]types.Candidate, error) {
	if k <= 0 || len(idx.docs) == 0 {
		return nil, nil
	}
	terms := idx.tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	type scored struct {
		pos   int
		score float64
	}
	matches := []scored{}
	for pos := range idx.docs {
		if score := idx.score(terms, pos); score > 0 {
			matches = append(matches, scored{pos: pos, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > k {
		matches = matches[:k]
	}

	candidates := make([]types.Candidate, 0, len(matches))
	for i, m := range matches {
		candidates = append(candidates, types.Candidate{
			Document: idx.docs[m.pos],
			Score:    m.score,
			Rank:     i + 1,
		})
	}
	return candidates, nil
}

// score accumulates the BM25 contribution of every query term present in
// the document. Absent terms contribute zero, not a penalty.
func (idx *KeywordIndex) score(terms []string, pos int) float64 {
	if idx.avgDocLen == 0 {
		return 0
	}
	freqs := idx.termFreqs[pos]
	norm := idx.k1 * (1 - idx.b + idx.b*float64(idx.docLens[pos])/idx.avgDocLen)

	score := 0.0
	for _, term := range terms {
		tf := float64(freqs[term])
		if tf == 0 {
			continue
		}
		score += idx.idf(term) * tf * (idx.k1 + 1) / (tf + norm)
	}
	return score
}

// idf uses the smoothed form ln(1+(N-df+0.5)/(df+0.5)), which stays
// positive even for terms present in every document.
func (idx *KeywordIndex) idf(term string) float64 {
	df := float64(idx.docFreq[term])
	if df == 0 {
		return 0
	}
	n := float64(len(idx.docs))
	return math.Log(1 + (n-df+0.5)/(df+0.5))
}
