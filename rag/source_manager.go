package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mudler/xlog"
	"github.com/recollect/recollect/rag/sources"
)

// ExternalSource is a URL that is periodically re-downloaded into a
// collection.
type ExternalSource struct {
	URL            string        `json:"url"`
	UpdateInterval time.Duration `json:"update_interval"`
	LastUpdate     time.Time     `json:"last_update"`
}

// SourceManager refreshes external sources for collections in the
// background.
type SourceManager struct {
	sources     map[string][]ExternalSource
	collections map[string]*Collection
	mu          sync.RWMutex
}

// NewSourceManager creates a new source manager
func NewSourceManager() *SourceManager {
	return &SourceManager{
		sources:     make(map[string][]ExternalSource),
		collections: make(map[string]*Collection),
	}
}

// RegisterCollection registers a collection and schedules an immediate
// refresh of its persisted sources.
func (sm *SourceManager) RegisterCollection(name string, collection *Collection) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.collections[name] = collection

	for _, source := range collection.GetExternalSources() {
		sm.sources[name] = append(sm.sources[name], source)
		go sm.updateSource(name, source, collection)
	}
}

// AddSource adds a new external source to a collection
func (sm *SourceManager) AddSource(collectionName, url string, updateInterval time.Duration) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	collection, exists := sm.collections[collectionName]
	if !exists {
		return fmt.Errorf("collection %s not found", collectionName)
	}

	source := ExternalSource{
		URL:            url,
		UpdateInterval: updateInterval,
		LastUpdate:     time.Now(),
	}

	if err := collection.AddExternalSource(source); err != nil {
		return err
	}

	sm.sources[collectionName] = append(sm.sources[collectionName], source)

	go sm.updateSource(collectionName, source, collection)

	return nil
}

// RemoveSource removes an external source from a collection
func (sm *SourceManager) RemoveSource(collectionName, url string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	collection, exists := sm.collections[collectionName]
	if !exists {
		return fmt.Errorf("collection %s not found", collectionName)
	}

	if err := collection.RemoveExternalSource(url); err != nil {
		return err
	}

	entry := fmt.Sprintf("source-%s-%s.txt", collectionName, sanitizeURL(url))
	if collection.EntryExists(entry) {
		if err := collection.RemoveEntry(entry); err != nil {
			return err
		}
	}

	list := sm.sources[collectionName]
	for i, s := range list {
		if s.URL == url {
			sm.sources[collectionName] = append(list[:i], list[i+1:]...)
			break
		}
	}

	return nil
}

// updateSource downloads one source and stores it in the collection,
// replacing the previous snapshot of the same URL. Deduplication in the
// content store keeps unchanged chunks from being re-counted.
func (sm *SourceManager) updateSource(collectionName string, source ExternalSource, collection *Collection) {
	xlog.Info("Updating source", "url", source.URL)
	content, err := sources.SourceRouter(source.URL)
	if err != nil {
		xlog.Error("Error updating source", "url", source.URL, "error", err)
		return
	}

	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("source-%s-%s.txt", collectionName, sanitizeURL(source.URL)))
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		xlog.Error("Error creating temporary file", "error", err)
		return
	}
	defer os.Remove(tmpFile)

	if err := collection.StoreOrReplace(tmpFile, map[string]string{"url": source.URL, "type": "source"}); err != nil {
		xlog.Error("Error storing content in collection", "error", err)
		return
	}

	xlog.Info("Source stored in collection", "url", source.URL, "collection", collectionName)
}

// sanitizeURL converts a URL into a filesystem-safe string
func sanitizeURL(url string) string {
	replacer := strings.NewReplacer(
		"://", "-",
		"/", "-",
		"?", "-",
		"&", "-",
		"=", "-",
		"#", "-",
		"@", "-",
		":", "-",
		".", "-",
		"+", "-",
		" ", "-",
	)

	sanitized := replacer.Replace(strings.ToLower(url))

	for strings.Contains(sanitized, "--") {
		sanitized = strings.ReplaceAll(sanitized, "--", "-")
	}

	sanitized = strings.Trim(sanitized, "-")

	if len(sanitized) > 255 {
		sanitized = sanitized[:255]
	}

	return sanitized
}

// Start launches the periodic refresh loop.
func (sm *SourceManager) Start() {
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			sm.mu.Lock()
			for collectionName, list := range sm.sources {
				collection := sm.collections[collectionName]
				for i, source := range list {
					if time.Since(source.LastUpdate) >= source.UpdateInterval {
						list[i].LastUpdate = time.Now()
						go sm.updateSource(collectionName, source, collection)
					}
				}
			}
			sm.mu.Unlock()
		}
	}()
}
