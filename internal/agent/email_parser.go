package agent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceTextFetcher retrieves the text of an invoice PDF by URL. The
// extraction itself lives outside the core.
type InvoiceTextFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// EmailParser extracts entities from an invoice PDF and indexes its text
// into the vector store for retrieval. Triggered by invoice_created
// events or a manual trigger.
type EmailParser struct {
	fetcher   InvoiceTextFetcher
	embedder  Embedder
	index     VectorIndex
	pdfURL    string
	invoiceID string
	logger    *zap.Logger
}

// NewEmailParser creates an EmailParser for one invoice.
func NewEmailParser(fetcher InvoiceTextFetcher, embedder Embedder, index VectorIndex, pdfURL, invoiceID string, logger *zap.Logger) *EmailParser {
	return &EmailParser{
		fetcher:   fetcher,
		embedder:  embedder,
		index:     index,
		pdfURL:    pdfURL,
		invoiceID: invoiceID,
		logger:    logger,
	}
}

func (a *EmailParser) ActionType() string { return ActionEmailParsed }

func (a *EmailParser) Run(ctx context.Context) (Outcome, error) {
	if a.pdfURL == "" {
		return nil, fmt.Errorf("pdf url is required")
	}
	if a.index == nil {
		return nil, fmt.Errorf("vector store unavailable")
	}

	text, err := a.fetcher.FetchText(ctx, a.pdfURL)
	if err != nil {
		return nil, fmt.Errorf("fetch pdf text: %w", err)
	}

	entities := ExtractInvoiceEntities(text)

	if err := a.indexInvoice(ctx, text, entities); err != nil {
		return nil, err
	}

	return Outcome{
		"invoice_id":  a.invoiceID,
		"pdf_url":     a.pdfURL,
		"entities":    entities,
		"indexed":     true,
		"text_length": len(text),
	}, nil
}

func (a *EmailParser) indexInvoice(ctx context.Context, text string, entities map[string]any) error {
	vectors, err := a.embedder.Embed(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("embed invoice: %w", err)
	}
	if len(vectors) == 0 {
		return fmt.Errorf("empty embedding result")
	}

	payload := map[string]string{
		"type":       "invoice",
		"invoice_id": a.invoiceID,
		"pdf_url":    a.pdfURL,
		"content":    text,
	}
	for k, v := range entities {
		payload[k] = fmt.Sprint(v)
	}

	// Deterministic point ID so re-parsing the same invoice overwrites
	// its previous vector instead of accumulating duplicates.
	pointID := uuid.NewSHA1(uuid.NameSpaceURL, []byte("invoice_"+a.invoiceID)).String()
	if err := a.index.UpsertDocument(ctx, pointID, vectors[0], payload); err != nil {
		return fmt.Errorf("upsert invoice: %w", err)
	}

	a.logger.Info("indexed invoice document",
		zap.String("invoice", a.invoiceID),
		zap.Int("text_length", len(text)))
	return nil
}

var (
	invoiceNumberRe = regexp.MustCompile(`(?i)Invoice\s+Number:\s*([A-Z0-9-]+)`)
	invoiceDateRe   = regexp.MustCompile(`Date:\s*([A-Za-z]+\s+\d+,\s+\d{4})`)
	invoiceAmountRe = regexp.MustCompile(`(?i)Total\s*\$?([\d,]+\.?\d*)`)
	invoiceVendorRe = regexp.MustCompile(`From:\s*\n\s*([^\n]+)`)
)

// ExtractInvoiceEntities pulls invoice number, date, total amount and
// vendor out of raw invoice text with simple pattern matching.
func ExtractInvoiceEntities(text string) map[string]any {
	entities := make(map[string]any)

	if m := invoiceNumberRe.FindStringSubmatch(text); m != nil {
		entities["invoice_number"] = m[1]
	}
	if m := invoiceDateRe.FindStringSubmatch(text); m != nil {
		entities["date"] = m[1]
	}
	if m := invoiceAmountRe.FindStringSubmatch(text); m != nil {
		if amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			entities["amount"] = amount
		}
	}
	if m := invoiceVendorRe.FindStringSubmatch(text); m != nil {
		entities["vendor"] = strings.TrimSpace(m[1])
	}

	return entities
}
