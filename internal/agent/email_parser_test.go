package agent

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

const sampleInvoiceText = `INVOICE

Invoice Number: INV-2024-001
Date: January 15, 2024

From:
  Vendor Corp
  123 Supplier Street

Bill To:
  ZOARK Industries

Services rendered        $45,000.00
Support retainer          $5,000.00

Total $50,000.00
`

type fakeFetcher struct {
	text string
	err  error
}

func (f *fakeFetcher) FetchText(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

func TestExtractInvoiceEntities(t *testing.T) {
	entities := ExtractInvoiceEntities(sampleInvoiceText)

	if got := entities["invoice_number"]; got != "INV-2024-001" {
		t.Errorf("invoice_number = %v", got)
	}
	if got := entities["date"]; got != "January 15, 2024" {
		t.Errorf("date = %v", got)
	}
	if got := entities["amount"]; got != 50000.0 {
		t.Errorf("amount = %v, want 50000", got)
	}
	if got := entities["vendor"]; got != "Vendor Corp" {
		t.Errorf("vendor = %v", got)
	}
}

func TestExtractInvoiceEntitiesEmptyText(t *testing.T) {
	entities := ExtractInvoiceEntities("nothing useful here")
	if len(entities) != 0 {
		t.Errorf("entities = %v, want empty", entities)
	}
}

func TestEmailParserIndexesInvoice(t *testing.T) {
	idx := &fakeIndex{}
	a := NewEmailParser(&fakeFetcher{text: sampleInvoiceText}, &fakeEmbedder{}, idx,
		"https://files/inv.pdf", "inv-1", zap.NewNop())

	outcome, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if outcome["indexed"] != true {
		t.Errorf("indexed = %v, want true", outcome["indexed"])
	}
	if outcome["invoice_id"] != "inv-1" {
		t.Errorf("invoice_id = %v", outcome["invoice_id"])
	}
	entities := outcome["entities"].(map[string]any)
	if entities["invoice_number"] != "INV-2024-001" {
		t.Errorf("entities = %v", entities)
	}
	if len(idx.upserts) != 1 {
		t.Fatalf("upserts = %v, want 1", idx.upserts)
	}
	if idx.payloads[0]["type"] != "invoice" {
		t.Errorf("payload type = %q", idx.payloads[0]["type"])
	}
}

func TestEmailParserPointIDStableAcrossRuns(t *testing.T) {
	idx := &fakeIndex{}
	for i := 0; i < 2; i++ {
		a := NewEmailParser(&fakeFetcher{text: sampleInvoiceText}, &fakeEmbedder{}, idx,
			"https://files/inv.pdf", "inv-1", zap.NewNop())
		if _, err := a.Run(context.Background()); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}
	if idx.upserts[0] != idx.upserts[1] {
		t.Errorf("point IDs differ across runs: %q vs %q", idx.upserts[0], idx.upserts[1])
	}
}

func TestEmailParserRequiresURL(t *testing.T) {
	a := NewEmailParser(&fakeFetcher{}, &fakeEmbedder{}, &fakeIndex{}, "", "inv-1", zap.NewNop())
	if _, err := a.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded without pdf url, want error")
	}
}

func TestEmailParserErrorsWithoutVectorStore(t *testing.T) {
	a := NewEmailParser(&fakeFetcher{text: sampleInvoiceText}, &fakeEmbedder{}, nil,
		"https://files/inv.pdf", "inv-1", zap.NewNop())
	if _, err := a.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded without a vector store, want error")
	}
}
