package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/mudler/xlog"
	"github.com/recollect/recollect/rag"
	"github.com/sashabaranov/go-openai"
)

var (
	listenAddress    = envDefault("LISTEN_ADDRESS", ":8080")
	collectionDBPath = envDefault("COLLECTION_DB_PATH", "db")
	fileAssets       = envDefault("FILE_ASSETS", "assets")
	openAIKey        = os.Getenv("OPENAI_API_KEY")
	openAIBaseURL    = os.Getenv("OPENAI_BASE_URL")
	embeddingModel   = envDefault("EMBEDDING_MODEL", "text-embedding-ada-002")
	vectorEngine     = envDefault("VECTOR_ENGINE", "chromem")
	databaseURL      = os.Getenv("DATABASE_URL")
	maxChunkSize     = envInt("MAX_CHUNK_SIZE", 1024)
)

func envDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// newCollection builds a collection with the configured vector engine.
func newCollection(client *openai.Client, name string) *rag.Collection {
	switch vectorEngine {
	case "postgres":
		return rag.NewPersistentPostgresCollection(client, name, databaseURL, collectionDBPath, fileAssets, embeddingModel, maxChunkSize)
	default:
		return rag.NewPersistentChromeCollection(client, name, collectionDBPath, fileAssets, embeddingModel, maxChunkSize)
	}
}

func main() {
	if err := godotenv.Load(); err == nil {
		xlog.Debug("Loaded configuration from .env")
	}

	if err := os.MkdirAll(collectionDBPath, 0755); err != nil {
		xlog.Error("Failed to create database directory", "error", err)
		os.Exit(1)
	}

	config := openai.DefaultConfig(openAIKey)
	if openAIBaseURL != "" {
		config.BaseURL = openAIBaseURL
	}
	openAIClient := openai.NewClientWithConfig(config)

	sourceManager := rag.NewSourceManager()

	// Reload collections that survived a restart.
	collections := collectionList{}
	for _, name := range rag.ListAllCollections(collectionDBPath) {
		xlog.Info("Loading collection", "name", name)
		collections[name] = newCollection(openAIClient, name)
		sourceManager.RegisterCollection(name, collections[name])
	}

	sourceManager.Start()

	startAPI(listenAddress, collections, sourceManager, openAIClient)
}
