package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/recollect/recollect/rag/types"
	"github.com/sashabaranov/go-openai"
)

// PostgresEngine is a pgvector-backed semantic adapter for deployments that
// already run PostgreSQL. It implements interfaces.Engine.
type PostgresEngine struct {
	pool            *pgxpool.Pool
	tableName       string
	client          *openai.Client
	embeddingsModel string
	embeddingDims   int
}

// NewPostgresEngine connects to databaseURL and prepares a per-collection
// documents table with a vector column sized from a probe embedding.
func NewPostgresEngine(collectionName, databaseURL string, client *openai.Client, embeddingsModel string) (*PostgresEngine, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the PostgreSQL engine")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pg := &PostgresEngine{
		pool:            pool,
		tableName:       sanitizeTableName(collectionName),
		client:          client,
		embeddingsModel: embeddingsModel,
	}

	probe, err := pg.embed("dimension probe")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to probe embedding dimensions: %w", err)
	}
	pg.embeddingDims = len(probe)

	if err := pg.setupDatabase(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	return pg, nil
}

func sanitizeTableName(name string) string {
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")
	name = strings.ReplaceAll(name, " ", "_")
	if len(name) > 0 && (name[0] < 'a' || name[0] > 'z') && (name[0] < 'A' || name[0] > 'Z') {
		name = "col_" + name
	}
	return "documents_" + name
}

func (p *PostgresEngine) setupDatabase() error {
	ctx := context.Background()

	if _, err := p.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d)
		)`, p.tableName, p.embeddingDims)
	if _, err := p.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)",
		p.tableName, p.tableName)
	if _, err := p.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	return nil
}

func (p *PostgresEngine) embed(text string) ([]float32, error) {
	resp, err := p.client.CreateEmbeddings(context.Background(),
		openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: openai.EmbeddingModel(p.embeddingsModel),
		},
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data returned")
	}
	return resp.Data[0].Embedding, nil
}

// vectorLiteral renders an embedding as a pgvector input literal.
func vectorLiteral(embedding []float32) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Store embeds and upserts a document keyed by its identifier.
func (p *PostgresEngine) Store(doc *types.Document) error {
	embedding, err := p.embed(doc.Content)
	if err != nil {
		return fmt.Errorf("failed to embed document: %w", err)
	}

	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4::vector)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding`,
		p.tableName)
	if _, err := p.pool.Exec(context.Background(), query, doc.ID, doc.Content, metadata, vectorLiteral(embedding)); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

// Retrieve returns the k nearest documents by cosine distance, ranked
// from 1.
func (p *PostgresEngine) Retrieve(query string, k int) ([]types.Candidate, error) {
	if k <= 0 {
		return nil, nil
	}

	embedding, err := p.embed(query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	sql := fmt.Sprintf(`
		SELECT id, content, metadata, 1 - (embedding <=> $1::vector) AS similarity
		FROM %s
		ORDER BY embedding <=> $1::vector
		LIMIT $2`, p.tableName)
	rows, err := p.pool.Query(context.Background(), sql, vectorLiteral(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	candidates := []types.Candidate{}
	for rows.Next() {
		var (
			id, content string
			metadata    []byte
			similarity  float64
		)
		if err := rows.Scan(&id, &content, &metadata, &similarity); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		meta := map[string]string{}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &meta); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}

		candidates = append(candidates, types.Candidate{
			Document: &types.Document{ID: id, Content: content, Metadata: meta},
			Score:    similarity,
			Rank:     len(candidates) + 1,
		})
	}
	return candidates, rows.Err()
}

// Reset drops all documents for the collection.
func (p *PostgresEngine) Reset() error {
	_, err := p.pool.Exec(context.Background(), fmt.Sprintf("TRUNCATE %s", p.tableName))
	if err != nil {
		return fmt.Errorf("failed to truncate table: %w", err)
	}
	return nil
}

// Count returns the number of stored documents.
func (p *PostgresEngine) Count() int {
	var count int
	err := p.pool.QueryRow(context.Background(), fmt.Sprintf("SELECT COUNT(*) FROM %s", p.tableName)).Scan(&count)
	if err != nil {
		return 0
	}
	return count
}

// Close releases the connection pool.
func (p *PostgresEngine) Close() {
	p.pool.Close()
}
