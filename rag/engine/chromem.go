package engine

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
	"github.com/recollect/recollect/rag/types"
	"github.com/sashabaranov/go-openai"
)

// ChromemEngine is the in-process semantic adapter: documents are embedded
// through an OpenAI-compatible API and stored in a persistent chromem-go
// collection. It implements interfaces.Engine.
type ChromemEngine struct {
	collectionName  string
	db              *chromem.DB
	collection      *chromem.Collection
	client          *openai.Client
	embeddingsModel string
}

// NewChromemEngine opens or creates a persistent chromem collection under
// path.
func NewChromemEngine(collection, path string, client *openai.Client, embeddingsModel string) (*ChromemEngine, error) {
	db, err := chromem.NewPersistentDB(path, true)
	if err != nil {
		return nil, err
	}

	e := &ChromemEngine{
		collectionName:  collection,
		db:              db,
		client:          client,
		embeddingsModel: embeddingsModel,
	}

	c, err := db.GetOrCreateCollection(collection, nil, e.embedding())
	if err != nil {
		return nil, err
	}
	e.collection = c

	return e, nil
}

func (e *ChromemEngine) embedding() chromem.EmbeddingFunc {
	return chromem.EmbeddingFunc(
		func(ctx context.Context, text string) ([]float32, error) {
			resp, err := e.client.CreateEmbeddings(ctx,
				openai.EmbeddingRequestStrings{
					Input: []string{text},
					Model: openai.EmbeddingModel(e.embeddingsModel),
				},
			)
			if err != nil {
				return []float32{}, fmt.Errorf("error getting embeddings: %v", err)
			}

			if len(resp.Data) == 0 {
				return []float32{}, fmt.Errorf("no response from embeddings API")
			}

			return resp.Data[0].Embedding, nil
		},
	)
}

// Store embeds and upserts a document. The document identifier doubles as
// the chromem ID, so re-storing the same content is idempotent.
func (e *ChromemEngine) Store(doc *types.Document) error {
	return e.collection.AddDocument(context.Background(), chromem.Document{
		ID:       doc.ID,
		Content:  doc.Content,
		Metadata: doc.Metadata,
	})
}

// Retrieve returns the k nearest documents to the query by cosine
// similarity, ranked from 1.
func (e *ChromemEngine) Retrieve(query string, k int) ([]types.Candidate, error) {
	count := e.collection.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	res, err := e.collection.Query(context.Background(), query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	candidates := make([]types.Candidate, 0, len(res))
	for i, r := range res {
		candidates = append(candidates, types.Candidate{
			Document: &types.Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: r.Metadata,
			},
			Score: float64(r.Similarity),
			Rank:  i + 1,
		})
	}
	return candidates, nil
}

// Reset drops and recreates the collection.
func (e *ChromemEngine) Reset() error {
	if err := e.db.DeleteCollection(e.collectionName); err != nil {
		return fmt.Errorf("error deleting collection: %v", err)
	}
	collection, err := e.db.GetOrCreateCollection(e.collectionName, nil, e.embedding())
	if err != nil {
		return fmt.Errorf("error creating collection: %v", err)
	}
	e.collection = collection
	return nil
}

// Count returns the number of embedded documents.
func (e *ChromemEngine) Count() int {
	return e.collection.Count()
}
