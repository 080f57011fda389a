package store

import (
	"context"
	"fmt"
	"time"
)

// PendingDocument is a RAGDocument row awaiting indexing.
type PendingDocument struct {
	ID        string
	Name      string
	URL       string
	Content   string
	RAGStatus string
	CreatedAt time.Time
}

// PendingDocuments returns up to limit PENDING documents, oldest first.
func (s *Store) PendingDocuments(ctx context.Context, limit int) ([]PendingDocument, error) {
	rows, err := s.db.Query(ctx, `
		SELECT "id", "name", COALESCE("url",''), COALESCE("content",''), "ragStatus", "createdAt"
		FROM "RAGDocument"
		WHERE "ragStatus" = 'PENDING'
		ORDER BY "createdAt" ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending documents: %w", err)
	}
	defer rows.Close()

	var docs []PendingDocument
	for rows.Next() {
		var d PendingDocument
		if err := rows.Scan(&d.ID, &d.Name, &d.URL, &d.Content, &d.RAGStatus, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// MarkDocumentIndexed transitions a document to INDEXED.
func (s *Store) MarkDocumentIndexed(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE "RAGDocument"
		SET "ragStatus" = 'INDEXED', "updatedAt" = NOW()
		WHERE "id" = $1`, id)
	if err != nil {
		return fmt.Errorf("mark document indexed %s: %w", id, err)
	}
	return nil
}

// MarkDocumentFailed transitions a document to FAILED. Failed documents
// are not retried inline; they stay visible for manual requeue.
func (s *Store) MarkDocumentFailed(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE "RAGDocument"
		SET "ragStatus" = 'FAILED', "updatedAt" = NOW()
		WHERE "id" = $1`, id)
	if err != nil {
		return fmt.Errorf("mark document failed %s: %w", id, err)
	}
	return nil
}
