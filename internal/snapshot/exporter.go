// Package snapshot exports JSON dumps of the persisted tables for
// eyeballing a run without a database client.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ArxivDigest/internal/ports"
)

// Dumper is the read-only slice of the store the exporter needs.
type Dumper interface {
	DumpDocuments(ctx context.Context) (map[string]map[string]any, error)
	DumpSummaries(ctx context.Context) (map[string]map[string]any, error)
}

// Exporter writes table dumps as indented JSON files next to the database.
type Exporter struct {
	dumper Dumper
	dir    string
	logger *slog.Logger
}

var _ ports.SnapshotExporter = (*Exporter)(nil)

func NewExporter(dumper Dumper, dir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{dumper: dumper, dir: dir, logger: logger}
}

// ExportDocuments dumps the full_documents table to documents.json.
func (e *Exporter) ExportDocuments(ctx context.Context) error {
	dump, err := e.dumper.DumpDocuments(ctx)
	if err != nil {
		return err
	}
	return e.write("documents.json", dump)
}

// ExportSummaries dumps the summaries table to summaries.json.
func (e *Exporter) ExportSummaries(ctx context.Context) error {
	dump, err := e.dumper.DumpSummaries(ctx)
	if err != nil {
		return err
	}
	return e.write("summaries.json", dump)
}

func (e *Exporter) write(name string, dump map[string]map[string]any) error {
	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	e.logger.Info("snapshot written", "path", path, "rows", len(dump))
	return nil
}
