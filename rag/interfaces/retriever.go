package interfaces

import "github.com/recollect/recollect/rag/types"

// Retriever ranks stored documents against a query. Implementations return
// at most k candidates ordered by descending relevance, with ranks strictly
// increasing from 1. Returning fewer than k candidates is normal on a
// sparse corpus. Scores are retriever-local and must never be compared
// across implementations; only ranks are.
type Retriever interface {
	Retrieve(query string, k int) ([]types.Candidate, error)
}

// Engine is an ingestion-capable retriever backed by an external index,
// such as a vector database.
type Engine interface {
	Retriever
	Store(doc *types.Document) error
	Reset() error
	Count() int
}

// Resolver maps candidate identifiers back to canonical documents. The
// content store satisfies this.
type Resolver interface {
	Get(id string) (*types.Document, bool)
}
