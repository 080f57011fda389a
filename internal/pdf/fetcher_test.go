package pdf

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestFetchTextReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Invoice Number: INV-42"))
	}))
	defer srv.Close()

	f := NewFetcher(zap.NewNop())
	text, err := f.FetchText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchText: %v", err)
	}
	if text != "Invoice Number: INV-42" {
		t.Errorf("text = %q", text)
	}
}

func TestFetchTextFallsBackToStub(t *testing.T) {
	f := NewFetcher(zap.NewNop())

	for _, url := range []string{"http://127.0.0.1:1/nope", "://bad-url"} {
		text, err := f.FetchText(context.Background(), url)
		if err != nil {
			t.Fatalf("FetchText(%s): %v", url, err)
		}
		if !strings.Contains(text, "INV-2024-001") {
			t.Errorf("FetchText(%s) did not return stub invoice", url)
		}
	}
}

func TestFetchTextFallsBackOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(zap.NewNop())
	text, err := f.FetchText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchText: %v", err)
	}
	if !strings.Contains(text, "Vendor Corp") {
		t.Error("404 did not fall back to stub invoice")
	}
}
