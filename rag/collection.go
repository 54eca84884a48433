package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mudler/xlog"
	"github.com/recollect/recollect/rag/engine"
	"github.com/sashabaranov/go-openai"
)

const collectionPrefix = "collection-"

// NewPersistentChromeCollection creates a persistent collection using the
// in-process chromem-go engine for the semantic side.
func NewPersistentChromeCollection(llmClient *openai.Client, collectionName, dbPath, filePath, embeddingModel string, maxChunkSize int) *Collection {
	chromemEngine, err := engine.NewChromemEngine(collectionName, dbPath, llmClient, embeddingModel)
	if err != nil {
		xlog.Error("Failed to create chromem engine", "error", err)
		os.Exit(1)
	}

	collection, err := NewPersistentCollection(
		filepath.Join(dbPath, fmt.Sprintf("%s%s.json", collectionPrefix, collectionName)),
		filePath,
		chromemEngine,
		maxChunkSize)
	if err != nil {
		xlog.Error("Failed to create collection", "error", err)
		os.Exit(1)
	}

	return collection
}

// NewPersistentPostgresCollection creates a persistent collection using the
// pgvector engine for the semantic side.
func NewPersistentPostgresCollection(llmClient *openai.Client, collectionName, databaseURL, dbPath, filePath, embeddingModel string, maxChunkSize int) *Collection {
	pgEngine, err := engine.NewPostgresEngine(collectionName, databaseURL, llmClient, embeddingModel)
	if err != nil {
		xlog.Error("Failed to create postgres engine", "error", err)
		os.Exit(1)
	}

	collection, err := NewPersistentCollection(
		filepath.Join(dbPath, fmt.Sprintf("%s%s.json", collectionPrefix, collectionName)),
		filePath,
		pgEngine,
		maxChunkSize)
	if err != nil {
		xlog.Error("Failed to create collection", "error", err)
		os.Exit(1)
	}

	return collection
}

// ListAllCollections lists all collections in the database
func ListAllCollections(dbPath string) []string {
	collections := []string{}
	files, err := os.ReadDir(dbPath)
	if err != nil {
		return collections
	}

	for _, f := range files {
		if strings.HasPrefix(f.Name(), collectionPrefix) {
			collections = append(collections, strings.TrimPrefix(strings.TrimSuffix(f.Name(), ".json"), collectionPrefix))
		}
	}

	return collections
}
