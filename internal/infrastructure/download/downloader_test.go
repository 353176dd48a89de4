package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"ArxivDigest/internal/config"
)

func testConfig() config.DownloadConfig {
	return config.DownloadConfig{
		Retries:        3,
		RetryDelay:     time.Millisecond,
		Timeout:        time.Second,
		SkipValidation: true,
	}
}

func TestDownloadRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("%PDF-1.4 payload"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "paper.pdf")
	d := NewHTTPDownloader(testConfig(), nil)

	if err := d.Download(context.Background(), server.URL, dest); err != nil {
		t.Fatalf("download: %v", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read payload: %v", err)
	}
	if string(data) != "%PDF-1.4 payload" {
		t.Fatalf("unexpected payload: %q", data)
	}
}

func TestDownloadExhaustsRetries(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "paper.pdf")
	d := NewHTTPDownloader(testConfig(), nil)

	if err := d.Download(context.Background(), server.URL, dest); err == nil {
		t.Fatalf("expected failure after retry exhaustion")
	}
	if got := attempts.Load(); got != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", got)
	}
}

func TestDownloadRejectsInvalidPDF(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not a pdf</html>"))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Retries = 1
	cfg.SkipValidation = false

	dest := filepath.Join(t.TempDir(), "paper.pdf")
	d := NewHTTPDownloader(cfg, nil)

	if err := d.Download(context.Background(), server.URL, dest); err == nil {
		t.Fatalf("expected a validation failure")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatalf("an invalid payload must be removed, stat err: %v", err)
	}
}

func TestDownloadCancelledContext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewHTTPDownloader(testConfig(), nil)
	err := d.Download(ctx, server.URL, filepath.Join(t.TempDir(), "paper.pdf"))
	if err == nil {
		t.Fatalf("expected context error")
	}
}
