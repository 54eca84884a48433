package rag

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mudler/xlog"
	"github.com/recollect/recollect/rag/engine"
	"github.com/recollect/recollect/rag/interfaces"
	"github.com/recollect/recollect/rag/store"
	"github.com/recollect/recollect/rag/types"
)

// Collection is a persistent knowledge base: it owns the deduplicating
// content store, keeps the ingested files in an asset directory, and fronts
// a hybrid search engine built over the store snapshot and a semantic
// engine. The file list and external sources survive restarts through a
// JSON state file; the content store and keyword index are rebuilt from the
// asset directory on load.
type Collection struct {
	sync.Mutex
	store        *store.Store
	semantic     interfaces.Engine
	hybrid       *engine.HybridSearchEngine
	files        []string
	sources      []ExternalSource
	path         string
	assetDir     string
	maxChunkSize int
}

type collectionState struct {
	Files   []string         `json:"files"`
	Sources []ExternalSource `json:"sources,omitempty"`
}

func loadState(path string) (*collectionState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	state := &collectionState{}
	err = json.Unmarshal(data, state)
	return state, err
}

// NewPersistentCollection loads or creates a collection backed by the given
// semantic engine. Store options control the dedup normalization policy.
func NewPersistentCollection(stateFile, assetDir string, semantic interfaces.Engine, maxChunkSize int, storeOpts ...store.Option) (*Collection, error) {
	if err := os.MkdirAll(assetDir, 0755); err != nil {
		return nil, err
	}

	contentStore := store.New(storeOpts...)
	c := &Collection{
		store:        contentStore,
		semantic:     semantic,
		hybrid:       engine.NewHybridSearchEngine(semantic, types.NewWeightedReranker(), contentStore),
		files:        []string{},
		path:         stateFile,
		assetDir:     assetDir,
		maxChunkSize: maxChunkSize,
	}

	if _, err := os.Stat(stateFile); err != nil {
		c.Lock()
		defer c.Unlock()
		c.hybrid.Rebuild(nil)
		return c, c.save()
	}

	state, err := loadState(stateFile)
	if err != nil {
		return nil, err
	}
	c.files = state.Files
	c.sources = state.Sources

	c.Lock()
	defer c.Unlock()
	if err := c.populate(false); err != nil {
		return nil, fmt.Errorf("failed to populate collection: %w", err)
	}

	return c, nil
}

func (c *Collection) save() error {
	data, err := json.Marshal(collectionState{Files: c.files, Sources: c.sources})
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0644)
}

// populate rebuilds the in-memory content store and keyword index from the
// asset directory. The semantic engine is only refilled when it was reset
// or is empty; a persistent vector store keeps its embeddings across
// restarts. Callers hold the collection lock.
func (c *Collection) populate(resetSemantic bool) error {
	if resetSemantic {
		if err := c.semantic.Reset(); err != nil {
			return fmt.Errorf("failed to reset semantic engine: %w", err)
		}
	}
	c.store.Clear()

	fillSemantic := resetSemantic || c.semantic.Count() == 0
	for _, f := range c.files {
		if err := c.ingestFile(filepath.Join(c.assetDir, f), fillSemantic, nil); err != nil {
			return err
		}
	}

	c.hybrid.Rebuild(c.store.All())
	return nil
}

// ingestFile chunks a file and inserts every chunk, forwarding newly added
// chunks to the semantic engine. Duplicates and empty chunks are counted,
// not failed.
func (c *Collection) ingestFile(fpath string, fillSemantic bool, extraMetadata map[string]string) error {
	pieces, err := chunkFile(fpath, c.maxChunkSize)
	if err != nil {
		return err
	}

	metadata := map[string]string{
		"source": filepath.Base(fpath),
		"type":   "file",
	}
	for k, v := range extraMetadata {
		metadata[k] = v
	}

	added, duplicates, rejected := 0, 0, 0
	for _, piece := range pieces {
		outcome, doc := c.store.Insert(piece, metadata)
		switch outcome {
		case store.Added:
			added++
			if fillSemantic {
				if err := c.semantic.Store(doc); err != nil {
					return fmt.Errorf("failed to store chunk in semantic engine: %w", err)
				}
			}
		case store.Duplicate:
			duplicates++
		case store.RejectedEmpty:
			rejected++
		}
	}

	xlog.Info("Ingested file", "file", filepath.Base(fpath), "added", added, "duplicates", duplicates, "rejected", rejected)
	return nil
}

// Store copies a file into the asset directory, ingests its chunks and
// rebuilds the keyword index.
func (c *Collection) Store(entry string) error {
	return c.StoreWithMetadata(entry, nil)
}

// StoreWithMetadata is Store with extra metadata attached to every chunk.
func (c *Collection) StoreWithMetadata(entry string, metadata map[string]string) error {
	c.Lock()
	defer c.Unlock()

	if _, err := os.Stat(entry); err != nil {
		return fmt.Errorf("file does not exist: %s", entry)
	}
	if err := copyFile(entry, c.assetDir); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}

	fileName := filepath.Base(entry)
	c.files = append(c.files, fileName)

	if err := c.ingestFile(filepath.Join(c.assetDir, fileName), true, metadata); err != nil {
		return err
	}

	c.hybrid.Rebuild(c.store.All())
	return c.save()
}

// StoreOrReplace replaces an existing entry of the same name, or stores it
// fresh.
func (c *Collection) StoreOrReplace(entry string, metadata map[string]string) error {
	if c.EntryExists(entry) {
		if err := c.RemoveEntry(filepath.Base(entry)); err != nil {
			return err
		}
	}
	return c.StoreWithMetadata(entry, metadata)
}

// RemoveEntry removes a file from the collection. The store and semantic
// engine have no single-document deletion, so the collection repopulates
// from the remaining files.
func (c *Collection) RemoveEntry(entry string) error {
	c.Lock()
	defer c.Unlock()

	for i, e := range c.files {
		if e == entry {
			c.files = append(c.files[:i], c.files[i+1:]...)
			os.Remove(filepath.Join(c.assetDir, e))
			break
		}
	}

	if err := c.populate(true); err != nil {
		return err
	}
	return c.save()
}

// Reset drops all files, chunks and fingerprints, leaving an empty but
// queryable collection.
func (c *Collection) Reset() error {
	c.Lock()
	defer c.Unlock()

	for _, f := range c.files {
		os.Remove(filepath.Join(c.assetDir, f))
	}
	c.files = []string{}
	c.store.Clear()
	if err := c.semantic.Reset(); err != nil {
		return err
	}
	c.hybrid.Rebuild(nil)
	return c.save()
}

// Query answers a question with the requested retrieval mode and result
// limit.
func (c *Collection) Query(question string, mode types.Mode, limit int) (*types.QueryResponse, error) {
	return c.hybrid.Query(question, mode, limit)
}

// Search is a convenience wrapper for hybrid-mode queries.
func (c *Collection) Search(query string, maxResults int) ([]types.Result, error) {
	resp, err := c.Query(query, types.ModeHybrid, maxResults)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Statistics reports the content store counters.
func (c *Collection) Statistics() store.Statistics {
	return c.store.Statistics()
}

// ListDocuments returns the files ingested into the collection.
func (c *Collection) ListDocuments() []string {
	c.Lock()
	defer c.Unlock()

	files := make([]string, len(c.files))
	copy(files, c.files)
	return files
}

// EntryExists reports whether a file of the same base name was ingested.
func (c *Collection) EntryExists(entry string) bool {
	c.Lock()
	defer c.Unlock()

	entry = filepath.Base(entry)
	for _, e := range c.files {
		if e == entry {
			return true
		}
	}
	return false
}

// AddExternalSource registers a periodically refreshed source.
func (c *Collection) AddExternalSource(source ExternalSource) error {
	c.Lock()
	defer c.Unlock()

	for _, s := range c.sources {
		if s.URL == source.URL {
			return fmt.Errorf("source %s already registered", source.URL)
		}
	}
	c.sources = append(c.sources, source)
	return c.save()
}

// RemoveExternalSource unregisters a source by URL.
func (c *Collection) RemoveExternalSource(url string) error {
	c.Lock()
	defer c.Unlock()

	for i, s := range c.sources {
		if s.URL == url {
			c.sources = append(c.sources[:i], c.sources[i+1:]...)
			return c.save()
		}
	}
	return fmt.Errorf("source %s not found", url)
}

// GetExternalSources returns the registered sources.
func (c *Collection) GetExternalSources() []ExternalSource {
	c.Lock()
	defer c.Unlock()

	sources := make([]ExternalSource, len(c.sources))
	copy(sources, c.sources)
	return sources
}

func copyFile(src, dst string) error {
	in, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dst, filepath.Base(src)), in, 0644)
}
