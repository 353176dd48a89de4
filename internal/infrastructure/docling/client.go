// Package docling talks to an external PDF conversion service over HTTP.
package docling

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"ArxivDigest/internal/ports"
)

// Client converts one PDF at a time through a single service instance.
// Parallel conversion is achieved by pooling several clients, each bound
// to its own instance.
type Client struct {
	endpoint string
	http     *http.Client
}

var _ ports.Converter = (*Client)(nil)

// NewClient creates a reusable HTTP client for one converter instance.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

// Endpoint reports the instance this client is bound to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Convert uploads the PDF and writes the structured-text JSON response
// to outPath. The artifact is written atomically via a temp file so a
// failed conversion never leaves a partial artifact behind.
func (c *Client) Convert(ctx context.Context, pdfPath, outPath string) error {
	body, contentType, err := buildUpload(pdfPath)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/convert", body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("convert %s: %w", filepath.Base(pdfPath), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("convert %s: unexpected status %s", filepath.Base(pdfPath), resp.Status)
	}

	tmp := outPath + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize artifact: %w", err)
	}
	return nil
}

func buildUpload(pdfPath string) (*bytes.Buffer, string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", pdfPath, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(pdfPath))
	if err != nil {
		return nil, "", fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read %s: %w", pdfPath, err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("build upload: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
