package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/zoark/agentd/internal/store"
	"go.uber.org/zap"
)

type fakeDocStore struct {
	docs     []store.PendingDocument
	gotLimit int
	indexed  []string
	failed   []string
}

func (f *fakeDocStore) PendingDocuments(_ context.Context, limit int) ([]store.PendingDocument, error) {
	f.gotLimit = limit
	return f.docs, nil
}

func (f *fakeDocStore) MarkDocumentIndexed(_ context.Context, id string) error {
	f.indexed = append(f.indexed, id)
	return nil
}

func (f *fakeDocStore) MarkDocumentFailed(_ context.Context, id string) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeEmbedder struct {
	err   error
	texts []string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.texts = append(f.texts, texts...)
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeIndex struct {
	err      error
	upserts  []string
	payloads []map[string]string
	vectors  [][]float32
}

func (f *fakeIndex) UpsertDocument(_ context.Context, id string, vector []float32, payload map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, id)
	f.vectors = append(f.vectors, vector)
	f.payloads = append(f.payloads, payload)
	return nil
}

func TestDocumentIndexerIndexesPendingBatch(t *testing.T) {
	st := &fakeDocStore{docs: []store.PendingDocument{
		{ID: "d1", Name: "Handbook", Content: "Policies and procedures."},
		{ID: "d2", Name: "Budget", URL: "https://files/budget.pdf"},
	}}
	emb := &fakeEmbedder{}
	idx := &fakeIndex{}

	a := NewDocumentIndexer(st, emb, idx, zap.NewNop())
	outcome, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := outcome["documents_processed"]; got != 2 {
		t.Errorf("documents_processed = %v, want 2", got)
	}
	if st.gotLimit != 10 {
		t.Errorf("batch limit = %d, want 10", st.gotLimit)
	}
	if len(st.indexed) != 2 {
		t.Errorf("indexed = %v, want [d1 d2]", st.indexed)
	}
	// Content-less document gets a name stub embedded in its place.
	if emb.texts[1] != "Document: Budget" {
		t.Errorf("embedded text for empty doc = %q", emb.texts[1])
	}
	if idx.payloads[0]["name"] != "Handbook" {
		t.Errorf("payload name = %q", idx.payloads[0]["name"])
	}
}

func TestDocumentIndexerMarksFailureAndContinues(t *testing.T) {
	st := &fakeDocStore{docs: []store.PendingDocument{
		{ID: "d1", Name: "Handbook", Content: "text"},
	}}
	emb := &fakeEmbedder{err: errors.New("embedding api down")}

	a := NewDocumentIndexer(st, emb, &fakeIndex{}, zap.NewNop())
	outcome, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := outcome["documents_processed"]; got != 1 {
		t.Errorf("documents_processed = %v, want 1", got)
	}
	if len(st.failed) != 1 || st.failed[0] != "d1" {
		t.Errorf("failed = %v, want [d1]", st.failed)
	}
	if len(st.indexed) != 0 {
		t.Errorf("indexed = %v, want none", st.indexed)
	}
}
