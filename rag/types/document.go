package types

// Document is the minimal unit of retrievable text: a stable identifier,
// the text itself, and a flat metadata map (origin type, source name,
// locator, ingestion timestamp). Rankers and the fusion combiner depend
// only on this shape.
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Candidate is a document scored by a single ranker for a single query.
// Rank is the 1-based position in that ranker's own list. Score is local
// to the ranker that produced it and is never comparable across rankers.
type Candidate struct {
	Document *Document `json:"document"`
	Score    float64   `json:"score"`
	Rank     int       `json:"rank"`
}

// UnsetFusedScore marks a candidate that reached the reranker without
// going through fusion (keyword-only or semantic-only mode).
const UnsetFusedScore = -1.0

// FusedCandidate is a document after rank fusion. FusedScore is comparable
// across all fused candidates of the same query. BestRank is the smallest
// rank the document held in any input list, kept for tie-breaking.
type FusedCandidate struct {
	Document   *Document `json:"document"`
	FusedScore float64   `json:"fused_score"`
	BestRank   int       `json:"best_rank"`
}

// Result is the terminal, user-facing ranking unit.
type Result struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`

	// FusedScore is the score the candidate carried into the reranker.
	// Negative when the query mode skipped fusion.
	FusedScore float64 `json:"fused_score"`

	// Score is the final combined score calculated by the reranker.
	Score float64 `json:"score"`
}

// QueryResponse carries the final ordered results plus any non-fatal
// warnings recorded while answering the query, such as a semantic adapter
// failure that forced a keyword-only fallback.
type QueryResponse struct {
	Results  []Result `json:"results"`
	Warnings []string `json:"warnings,omitempty"`
}
