// Package download fetches PDF payloads with bounded retries and
// structural validation.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/ports"
)

// HTTPDownloader retrieves one URL to a local file. Transient failures are
// retried a fixed number of times with a fixed delay; a payload that is not
// a readable PDF counts as a failure and the partial file is removed.
type HTTPDownloader struct {
	client *http.Client
	cfg    config.DownloadConfig
	logger *slog.Logger
}

var _ ports.Downloader = (*HTTPDownloader)(nil)

func NewHTTPDownloader(cfg config.DownloadConfig, logger *slog.Logger) *HTTPDownloader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	return &HTTPDownloader{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger,
	}
}

// Download fetches url into dest, overwriting any partial file from a
// previous attempt.
func (d *HTTPDownloader) Download(ctx context.Context, url, dest string) error {
	var lastErr error
	for attempt := 1; attempt <= d.cfg.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = d.fetchOnce(ctx, url, dest)
		if lastErr == nil {
			return nil
		}

		d.logger.Warn("download attempt failed",
			"url", url, "attempt", attempt, "of", d.cfg.Retries, "error", lastErr)

		if attempt < d.cfg.Retries {
			select {
			case <-time.After(d.cfg.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("download %s: %w", url, lastErr)
}

func (d *HTTPDownloader) fetchOnce(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return fmt.Errorf("close %s: %w", dest, err)
	}

	if d.cfg.SkipValidation {
		return nil
	}
	if err := validatePDF(dest); err != nil {
		os.Remove(dest)
		return fmt.Errorf("invalid pdf: %w", err)
	}
	return nil
}

// validatePDF confirms the file parses as a PDF with at least one page.
func validatePDF(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return err
	}
	if pdfCtx.PageCount == 0 {
		return fmt.Errorf("document has no pages")
	}
	return nil
}
