package agent

import (
	"context"
	"fmt"

	"github.com/zoark/agentd/internal/store"
	"go.uber.org/zap"
)

// indexerBatchSize caps one sweep's worth of pending documents.
const indexerBatchSize = 10

// DocumentIndexerStore is the slice of the store the indexer needs.
type DocumentIndexerStore interface {
	PendingDocuments(ctx context.Context, limit int) ([]store.PendingDocument, error)
	MarkDocumentIndexed(ctx context.Context, id string) error
	MarkDocumentFailed(ctx context.Context, id string) error
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex upserts document vectors into the search index.
type VectorIndex interface {
	UpsertDocument(ctx context.Context, id string, vector []float32, payload map[string]string) error
}

// DocumentIndexer embeds PENDING documents and upserts them into the
// vector index, in batches of ten. A document that fails to index is
// flipped to FAILED and the batch moves on; the PENDING -> INDEXED/FAILED
// transition keeps repeat sweeps from re-processing.
type DocumentIndexer struct {
	store    DocumentIndexerStore
	embedder Embedder
	index    VectorIndex
	logger   *zap.Logger
}

// NewDocumentIndexer creates a DocumentIndexer.
func NewDocumentIndexer(st DocumentIndexerStore, embedder Embedder, index VectorIndex, logger *zap.Logger) *DocumentIndexer {
	return &DocumentIndexer{store: st, embedder: embedder, index: index, logger: logger}
}

func (a *DocumentIndexer) ActionType() string { return ActionDocumentIndexed }

func (a *DocumentIndexer) Run(ctx context.Context) (Outcome, error) {
	docs, err := a.store.PendingDocuments(ctx, indexerBatchSize)
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		if err := a.indexDocument(ctx, doc); err != nil {
			a.logger.Error("failed to index document",
				zap.String("document", doc.ID), zap.Error(err))
			if markErr := a.store.MarkDocumentFailed(ctx, doc.ID); markErr != nil {
				a.logger.Error("failed to mark document failed",
					zap.String("document", doc.ID), zap.Error(markErr))
			}
		}
	}

	return Outcome{"documents_processed": len(docs)}, nil
}

func (a *DocumentIndexer) indexDocument(ctx context.Context, doc store.PendingDocument) error {
	content := doc.Content
	if content == "" {
		// URL-only documents get a name stub until text extraction
		// is wired to the fetcher.
		content = fmt.Sprintf("Document: %s", doc.Name)
	}

	vectors, err := a.embedder.Embed(ctx, []string{content})
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vectors) == 0 {
		return fmt.Errorf("empty embedding result")
	}

	payload := map[string]string{
		"name":    doc.Name,
		"url":     doc.URL,
		"content": content,
	}
	if err := a.index.UpsertDocument(ctx, doc.ID, vectors[0], payload); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	a.logger.Info("indexed document",
		zap.String("document", doc.ID), zap.String("name", doc.Name))
	return a.store.MarkDocumentIndexed(ctx, doc.ID)
}
