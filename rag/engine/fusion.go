package engine

import (
	"fmt"
	"sort"

	"github.com/recollect/recollect/rag/types"
)

// DefaultFusionK is the reciprocal rank fusion constant. Higher values
// flatten the influence of rank position. It is tunable, not derived.
const DefaultFusionK = 60.0

// RankedList pairs one ranker's ordered candidates with its fusion weight.
type RankedList struct {
	Weight     float64
	Candidates []types.Candidate
}

// Fuse merges independently ranked lists into one ordered list using
// reciprocal rank fusion: every document accumulates weight/(k+rank) for
// each list it appears in, and nothing for lists it is absent from. Only
// rank positions matter; the raw scores of heterogeneous rankers are not
// commensurable. Weights are normalized to sum to 1; a negative weight or
// a zero weight sum is rejected. Ties on the fused score are broken by the
// smallest rank the document held in any list, then by first appearance,
// so the output order is total and deterministic.
func Fuse(lists []RankedList, k float64, limit int) ([]types.FusedCandidate, error) {
	if len(lists) == 0 {
		return nil, nil
	}

	total := 0.0
	for i, list := range lists {
		if list.Weight < 0 {
			return nil, fmt.Errorf("fusion: list %d has negative weight %v: %w", i, list.Weight, types.ErrInvalidWeights)
		}
		total += list.Weight
	}
	if total <= 0 {
		return nil, fmt.Errorf("fusion: weights sum to zero: %w", types.ErrInvalidWeights)
	}
	if k <= 0 {
		k = DefaultFusionK
	}

	type entry struct {
		doc      *types.Document
		score    float64
		bestRank int
		seen     int
	}
	acc := map[string]*entry{}
	order := []*entry{}

	for _, list := range lists {
		weight := list.Weight / total
		for i, c := range list.Candidates {
			if c.Document == nil {
				continue
			}
			rank := c.Rank
			if rank <= 0 {
				rank = i + 1
			}
			e, ok := acc[c.Document.ID]
			if !ok {
				e = &entry{doc: c.Document, bestRank: rank, seen: len(order)}
				acc[c.Document.ID] = e
				order = append(order, e)
			}
			e.score += weight / (k + float64(rank))
			if rank < e.bestRank {
				e.bestRank = rank
			}
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].score != order[j].score {
			return order[i].score > order[j].score
		}
		if order[i].bestRank != order[j].bestRank {
			return order[i].bestRank < order[j].bestRank
		}
		return order[i].seen < order[j].seen
	})

	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}

	fused := make([]types.FusedCandidate, 0, len(order))
	for _, e := range order {
		fused = append(fused, types.FusedCandidate{
			Document:   e.doc,
			FusedScore: e.score,
			BestRank:   e.bestRank,
		})
	}
	return fused, nil
}
