package vectorstore

import (
	"context"
	"fmt"
)

// Embedder turns query text into vectors. The embedding provider
// satisfies it.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher pairs an embedding provider with the document collection so
// callers can query by free text instead of raw vectors.
type Searcher struct {
	embedder Embedder
	client   *Client
}

// NewSearcher returns a Searcher over the given client's collection.
func NewSearcher(embedder Embedder, client *Client) *Searcher {
	return &Searcher{embedder: embedder, client: client}
}

// Query embeds the text and returns its topK nearest documents.
func (s *Searcher) Query(ctx context.Context, text string, topK uint64) ([]SearchHit, error) {
	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: provider returned no vector")
	}
	return s.client.Search(ctx, vectors[0], topK)
}
