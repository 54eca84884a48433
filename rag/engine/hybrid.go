package engine

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mudler/xlog"
	"github.com/recollect/recollect/rag/interfaces"
	"github.com/recollect/recollect/rag/types"
)

// DefaultResultLimit is used when a query does not cap its results.
const DefaultResultLimit = 5

// candidateFactor widens the per-ranker fetch relative to the final result
// limit, so fusion and reranking have something to work with.
const candidateFactor = 2

// HybridSearchEngine answers queries in keyword, semantic or hybrid mode.
// The keyword index is rebuilt off to the side and swapped in atomically,
// so queries never observe a partially built index. The semantic side is an
// adapter satisfying the Retriever contract; in hybrid mode its failure
// degrades the query to keyword-only with a recorded warning instead of
// failing it.
type HybridSearchEngine struct {
	semantic interfaces.Retriever
	reranker types.Reranker
	resolver interfaces.Resolver
	keyword  atomic.Pointer[KeywordIndex]

	keywordWeight  float64
	semanticWeight float64
	fusionK        float64
}

// NewHybridSearchEngine creates a hybrid engine over a semantic retriever
// and a reranker. The resolver maps semantic hits back to canonical store
// documents and may be nil. Fusion weights and the RRF constant come from
// the environment:
//
//	HYBRID_SEARCH_BM25_WEIGHT   (default 0.5)
//	HYBRID_SEARCH_VECTOR_WEIGHT (default 0.5)
//	HYBRID_SEARCH_RRF_K         (default 60)
func NewHybridSearchEngine(semantic interfaces.Retriever, reranker types.Reranker, resolver interfaces.Resolver) *HybridSearchEngine {
	if reranker == nil {
		reranker = types.NewWeightedReranker()
	}

	return &HybridSearchEngine{
		semantic:       semantic,
		reranker:       reranker,
		resolver:       resolver,
		keywordWeight:  envFloat("HYBRID_SEARCH_BM25_WEIGHT", 0.5),
		semanticWeight: envFloat("HYBRID_SEARCH_VECTOR_WEIGHT", 0.5),
		fusionK:        envFloat("HYBRID_SEARCH_RRF_K", DefaultFusionK),
	}
}

// Rebuild constructs a fresh keyword index from the corpus snapshot and
// swaps it in. In-flight queries keep the index they loaded.
func (h *HybridSearchEngine) Rebuild(docs []*types.Document, opts ...KeywordOption) {
	idx := NewKeywordIndex(docs, opts...)
	h.keyword.Swap(idx)
	xlog.Debug("Keyword index rebuilt", "documents", idx.Count())
}

// IndexedDocuments returns the size of the current keyword index, or -1
// when no index has been built yet.
func (h *HybridSearchEngine) IndexedDocuments() int {
	idx := h.keyword.Load()
	if idx == nil {
		return -1
	}
	return idx.Count()
}

// Query runs the question through the rankers selected by mode, fuses and
// reranks, and returns the top results. Querying before the first rebuild
// fails with ErrIndexNotBuilt rather than silently returning nothing.
func (h *HybridSearchEngine) Query(question string, mode types.Mode, limit int) (*types.QueryResponse, error) {
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	fetch := limit * candidateFactor

	queryID := uuid.NewString()
	xlog.Debug("Query dispatch", "query_id", queryID, "mode", string(mode), "limit", limit)

	var (
		fused    []types.FusedCandidate
		warnings []string
		err      error
	)

	switch mode {
	case types.ModeKeyword:
		idx := h.keyword.Load()
		if idx == nil {
			return nil, fmt.Errorf("keyword retrieval: %w", types.ErrIndexNotBuilt)
		}
		candidates, kerr := idx.Retrieve(question, fetch)
		if kerr != nil {
			return nil, fmt.Errorf("keyword retrieval: %w", kerr)
		}
		fused = passthrough(candidates)

	case types.ModeSemantic:
		if h.semantic == nil {
			return nil, fmt.Errorf("semantic retrieval: no adapter configured: %w", types.ErrAdapterUnavailable)
		}
		candidates, serr := h.semantic.Retrieve(question, fetch)
		if serr != nil {
			return nil, fmt.Errorf("semantic retrieval: %w (%v)", types.ErrAdapterUnavailable, serr)
		}
		fused = passthrough(h.resolve(candidates))

	case types.ModeHybrid:
		idx := h.keyword.Load()
		if idx == nil {
			return nil, fmt.Errorf("hybrid retrieval: %w", types.ErrIndexNotBuilt)
		}
		fused, warnings, err = h.fuseBoth(idx, question, fetch)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown query mode %q", mode)
	}

	results, err := h.reranker.Rerank(question, fused, limit)
	if err != nil {
		return nil, fmt.Errorf("reranking failed: %w", err)
	}

	xlog.Debug("Query answered", "query_id", queryID, "results", len(results), "warnings", len(warnings))
	return &types.QueryResponse{Results: results, Warnings: warnings}, nil
}

// fuseBoth dispatches the keyword index and the semantic adapter
// concurrently. Both are read-only against immutable snapshots, so no
// shared mutable state is involved.
func (h *HybridSearchEngine) fuseBoth(idx *KeywordIndex, question string, fetch int) ([]types.FusedCandidate, []string, error) {
	var (
		wg           sync.WaitGroup
		keywordCands []types.Candidate
		keywordErr   error
		semCands     []types.Candidate
		semErr       error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		keywordCands, keywordErr = idx.Retrieve(question, fetch)
	}()

	if h.semantic != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			semCands, semErr = h.semantic.Retrieve(question, fetch)
		}()
	} else {
		semErr = types.ErrAdapterUnavailable
	}
	wg.Wait()

	if keywordErr != nil {
		return nil, nil, fmt.Errorf("keyword retrieval: %w", keywordErr)
	}

	lists := []RankedList{{Weight: h.keywordWeight, Candidates: keywordCands}}
	warnings := []string{}
	if semErr != nil {
		// Partial relevance beats failing the whole query.
		warning := fmt.Sprintf("semantic adapter unavailable, falling back to keyword-only results: %v", semErr)
		xlog.Warn("Semantic retrieval failed, degrading to keyword-only", "error", semErr)
		warnings = append(warnings, warning)
		lists[0].Weight = 1
	} else {
		lists = append(lists, RankedList{Weight: h.semanticWeight, Candidates: h.resolve(semCands)})
	}

	fused, err := Fuse(lists, h.fusionK, fetch)
	if err != nil {
		return nil, nil, fmt.Errorf("fusion failed: %w", err)
	}
	return fused, warnings, nil
}

// resolve swaps adapter-built documents for the canonical store documents
// whenever the resolver knows the identifier. Unknown identifiers are kept
// as returned, which tolerates an adapter index slightly ahead of the
// store.
func (h *HybridSearchEngine) resolve(candidates []types.Candidate) []types.Candidate {
	if h.resolver == nil {
		return candidates
	}
	for i, c := range candidates {
		if c.Document == nil {
			continue
		}
		if doc, ok := h.resolver.Get(c.Document.ID); ok {
			candidates[i].Document = doc
		}
	}
	return candidates
}

// passthrough carries single-ranker candidates to the reranker without a
// fused score, preserving their order.
func passthrough(candidates []types.Candidate) []types.FusedCandidate {
	fused := make([]types.FusedCandidate, 0, len(candidates))
	for i, c := range candidates {
		if c.Document == nil {
			continue
		}
		rank := c.Rank
		if rank <= 0 {
			rank = i + 1
		}
		fused = append(fused, types.FusedCandidate{
			Document:   c.Document,
			FusedScore: types.UnsetFusedScore,
			BestRank:   rank,
		})
	}
	return fused
}

func envFloat(name string, fallback float64) float64 {
	if v := os.Getenv(name); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
