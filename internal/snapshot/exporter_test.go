package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

type fakeDumper struct {
	documents map[string]map[string]any
	summaries map[string]map[string]any
}

func (f fakeDumper) DumpDocuments(context.Context) (map[string]map[string]any, error) {
	return f.documents, nil
}

func (f fakeDumper) DumpSummaries(context.Context) (map[string]map[string]any, error) {
	return f.summaries, nil
}

func TestExportDocuments(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "snapshots")
	dumper := fakeDumper{
		documents: map[string]map[string]any{
			"2501.00001": {"title": "Paper", "selected": nil},
		},
	}

	exporter := NewExporter(dumper, dir, nil)
	if err := exporter.ExportDocuments(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "documents.json"))
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	var decoded map[string]map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if decoded["2501.00001"]["title"] != "Paper" {
		t.Fatalf("unexpected snapshot content: %+v", decoded)
	}
}

func TestExportSummaries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dumper := fakeDumper{
		summaries: map[string]map[string]any{
			"a": {"summary": "digest"},
		},
	}

	exporter := NewExporter(dumper, dir, nil)
	if err := exporter.ExportSummaries(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "summaries.json"))
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	var decoded map[string]map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if decoded["a"]["summary"] != "digest" {
		t.Fatalf("unexpected snapshot content: %+v", decoded)
	}
}
