package store

import (
	"strings"
	"sync"
	"time"

	"github.com/recollect/recollect/rag/types"
)

// Outcome reports what an insert did. Duplicate and RejectedEmpty are
// expected no-op outcomes, not errors.
type Outcome int

const (
	Added Outcome = iota
	Duplicate
	RejectedEmpty
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Duplicate:
		return "duplicate"
	case RejectedEmpty:
		return "rejected-empty"
	}
	return "unknown"
}

// Statistics is a point-in-time summary of the store contents.
type Statistics struct {
	TotalDocuments     int            `json:"total_documents"`
	UniqueFingerprints int            `json:"unique_content_hashes"`
	TotalCharacters    int            `json:"total_characters"`
	ByOrigin           map[string]int `json:"by_origin"`
}

// Store owns the canonical, deduplicated document collection. It is the
// single source of truth for what exists; indices and result objects hold
// references into it, never divergent copies. Inserts from concurrent
// ingestion sources are serialized through one mutex.
type Store struct {
	mu        sync.Mutex
	normalize NormalizeFunc
	docs      []*types.Document
	byID      map[string]*types.Document
	seen      map[string]struct{}
	byOrigin  map[string]int
	chars     int
}

// Option configures a Store.
type Option func(*Store)

// WithNormalizer replaces the dedup normalization. Whether near-duplicates
// (case, whitespace) should merge is a policy choice, so it is left to the
// caller instead of being hardcoded.
func WithNormalizer(fn NormalizeFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.normalize = fn
		}
	}
}

// WithCaseFolding makes dedup case-insensitive.
func WithCaseFolding() Option {
	return func(s *Store) {
		s.normalize = NormalizeWhitespaceAndCase
	}
}

// New creates an empty store with whitespace-normalized dedup.
func New(opts ...Option) *Store {
	s := &Store{
		normalize: NormalizeWhitespace,
		byID:      map[string]*types.Document{},
		seen:      map[string]struct{}{},
		byOrigin:  map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert adds a text chunk with its metadata. Text that is empty after
// trimming is rejected; text whose fingerprint was already seen is reported
// as a duplicate without mutating state. On Added the stored document is
// returned, on Duplicate the previously stored one.
func (s *Store) Insert(text string, metadata map[string]string) (Outcome, *types.Document) {
	if strings.TrimSpace(text) == "" {
		return RejectedEmpty, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fingerprint := Fingerprint(text, s.normalize)
	if _, ok := s.seen[fingerprint]; ok {
		return Duplicate, s.byID[fingerprint]
	}

	meta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	if _, ok := meta["ingested_at"]; !ok {
		meta["ingested_at"] = time.Now().UTC().Format(time.RFC3339)
	}

	doc := &types.Document{
		ID:       fingerprint,
		Content:  text,
		Metadata: meta,
	}

	s.seen[fingerprint] = struct{}{}
	s.docs = append(s.docs, doc)
	s.byID[doc.ID] = doc
	s.byOrigin[originOf(meta)]++
	s.chars += len(text)

	return Added, doc
}

// Get returns the document with the given identifier.
func (s *Store) Get(id string) (*types.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.byID[id]
	return doc, ok
}

// All returns a snapshot of the current contents in insertion order, so
// index builds are reproducible.
func (s *Store) All() []*types.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]*types.Document, len(s.docs))
	copy(snapshot, s.docs)
	return snapshot
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.docs)
}

// Statistics summarizes the store contents.
func (s *Store) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	byOrigin := make(map[string]int, len(s.byOrigin))
	for k, v := range s.byOrigin {
		byOrigin[k] = v
	}

	return Statistics{
		TotalDocuments:     len(s.docs),
		UniqueFingerprints: len(s.seen),
		TotalCharacters:    s.chars,
		ByOrigin:           byOrigin,
	}
}

// Clear drops all documents and fingerprints. Indices built from the prior
// snapshot become stale; rebuilding them before further queries is the
// caller's responsibility.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = nil
	s.byID = map[string]*types.Document{}
	s.seen = map[string]struct{}{}
	s.byOrigin = map[string]int{}
	s.chars = 0
}

func originOf(metadata map[string]string) string {
	if origin := metadata["type"]; origin != "" {
		return origin
	}
	return "unknown"
}
