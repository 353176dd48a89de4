package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ArxivDigest/internal/domain"
)

// fakeStore is an in-memory ports.DocumentStore for step tests.
type fakeStore struct {
	ids          []string
	downloadable []domain.Document
	forSummary   []domain.Document
	pending      []domain.Document

	sectionUpdates int
	abstracts      map[string]*string
	conclusions    map[string]*string
	summaries      map[string]string
	selections     map[string]domain.Selection
	cleared        bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		abstracts:   map[string]*string{},
		conclusions: map[string]*string{},
		summaries:   map[string]string{},
		selections:  map[string]domain.Selection{},
	}
}

func (f *fakeStore) UpsertDocuments(context.Context, []domain.Document) error { return nil }

func (f *fakeStore) ListIDs(context.Context) ([]string, error) { return f.ids, nil }

func (f *fakeStore) ListDownloadable(context.Context) ([]domain.Document, error) {
	return f.downloadable, nil
}

func (f *fakeStore) UpdateSections(_ context.Context, id string, abstract, conclusion *string) error {
	f.sectionUpdates++
	f.abstracts[id] = abstract
	f.conclusions[id] = conclusion
	return nil
}

func (f *fakeStore) GetSections(_ context.Context, id string) (*string, *string, error) {
	return f.abstracts[id], f.conclusions[id], nil
}

func (f *fakeStore) ListForSummary(context.Context) ([]domain.Document, error) {
	return f.forSummary, nil
}

func (f *fakeStore) SaveSummary(_ context.Context, id, summary string) error {
	f.summaries[id] = summary
	return nil
}

func (f *fakeStore) ListPendingRelevance(context.Context) ([]domain.Document, error) {
	return f.pending, nil
}

func (f *fakeStore) SetSelected(_ context.Context, id string, sel domain.Selection) error {
	f.selections[id] = sel
	return nil
}

func (f *fakeStore) SelectionStats(context.Context) (map[domain.Selection]int, error) {
	stats := map[domain.Selection]int{}
	for _, sel := range f.selections {
		stats[sel]++
	}
	return stats, nil
}

func (f *fakeStore) SummariesReport(context.Context) ([]domain.SummaryRow, error) {
	return nil, nil
}

func (f *fakeStore) ClearAll(context.Context) error {
	f.cleared = true
	return nil
}

type countingExtractor struct {
	calls  int
	result domain.ExtractionResult
}

func (c *countingExtractor) Extract(string, string) domain.ExtractionResult {
	c.calls++
	return c.result
}

type countingDownloader struct {
	calls int
}

func (c *countingDownloader) Download(_ context.Context, _ string, dest string) error {
	c.calls++
	return os.WriteFile(dest, []byte("%PDF"), 0o644)
}

type fixedSummarizer struct {
	calls int
	reply string
}

func (s *fixedSummarizer) Summarize(context.Context, string, string) (string, error) {
	s.calls++
	return s.reply, nil
}

type failingEvaluator struct{}

func (failingEvaluator) Evaluate(context.Context, domain.Document) (domain.Selection, string, error) {
	return "", "", errors.New("model offline")
}

func writeArtifact(t *testing.T, dir, id, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, id+".json"), []byte(body), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}

func TestExtractCacheIdempotency(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := newFakeStore()
	store.ids = []string{"2501.00001"}
	writeArtifact(t, dir, "2501.00001", `{"texts": [{"text": "Abstract body"}]}`)

	abstract := "the learned representation transfers to new tasks without fine-tuning"
	extractor := &countingExtractor{result: domain.ExtractionResult{Abstract: &abstract}}

	steps := NewSteps(StepDeps{
		Store:         store,
		Extractor:     extractor,
		ConversionDir: dir,
	})

	if err := steps.Extract(context.Background()); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if extractor.calls != 1 || store.sectionUpdates != 1 {
		t.Fatalf("first pass: expected 1 extraction and 1 write, got %d/%d",
			extractor.calls, store.sectionUpdates)
	}

	if err := steps.Extract(context.Background()); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if extractor.calls != 1 {
		t.Fatalf("cached document must never be re-extracted, got %d calls", extractor.calls)
	}
	if store.sectionUpdates != 1 {
		t.Fatalf("cached document must never be re-written, got %d writes", store.sectionUpdates)
	}
}

func TestExtractCachesSectionlessDocuments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := newFakeStore()
	store.ids = []string{"2501.00002"}
	writeArtifact(t, dir, "2501.00002", `{"texts": [{"text": "scanned garbage"}]}`)

	extractor := &countingExtractor{}
	steps := NewSteps(StepDeps{Store: store, Extractor: extractor, ConversionDir: dir})

	if err := steps.Extract(context.Background()); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if store.sectionUpdates != 0 {
		t.Fatalf("an all-nil result must not be written")
	}

	if err := steps.Extract(context.Background()); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if extractor.calls != 1 {
		t.Fatalf("a sectionless document must still be cached, got %d calls", extractor.calls)
	}
}

func TestExtractMissingArtifact(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.ids = []string{"2501.00003"}
	extractor := &countingExtractor{}
	steps := NewSteps(StepDeps{Store: store, Extractor: extractor, ConversionDir: t.TempDir()})

	if err := steps.Extract(context.Background()); err != nil {
		t.Fatalf("missing artifact must not abort the stage: %v", err)
	}
	if extractor.calls != 0 {
		t.Fatalf("nothing to extract without an artifact")
	}
}

func TestSummariseFlagsPartialInput(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.forSummary = []domain.Document{
		{ID: "a", Abstract: "only the abstract survived extraction"},
		{ID: "b", Conclusion: "only the conclusion survived extraction"},
		{ID: "c"},
	}

	summarizer := &fixedSummarizer{reply: "short digest"}
	steps := NewSteps(StepDeps{Store: store, Summarizer: summarizer})

	if err := steps.Summarise(context.Background()); err != nil {
		t.Fatalf("summarise: %v", err)
	}

	if got := store.summaries["a"]; got != "(missing conclusion) short digest" {
		t.Fatalf("unexpected summary for a: %q", got)
	}
	if got := store.summaries["b"]; got != "(missing abstract) short digest" {
		t.Fatalf("unexpected summary for b: %q", got)
	}
	if _, ok := store.summaries["c"]; ok {
		t.Fatalf("a document without sections must be skipped")
	}
	if summarizer.calls != 2 {
		t.Fatalf("expected 2 summarizer calls, got %d", summarizer.calls)
	}
}

func TestDownloadSkipsExistingFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := newFakeStore()
	store.downloadable = []domain.Document{
		{ID: "a", PDFURL: "http://example.org/pdf/a"},
		{ID: "b", PDFURL: "http://example.org/pdf/b"},
	}
	if err := os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("%PDF"), 0o644); err != nil {
		t.Fatalf("seed existing file: %v", err)
	}

	downloader := &countingDownloader{}
	steps := NewSteps(StepDeps{Store: store, Downloader: downloader, PDFDir: dir})

	if err := steps.Download(context.Background()); err != nil {
		t.Fatalf("download: %v", err)
	}
	if downloader.calls != 1 {
		t.Fatalf("existing file must be skipped, got %d calls", downloader.calls)
	}
}

func TestRelevanceErrorRejectsDocument(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.pending = []domain.Document{{ID: "a", Title: "Paper"}}

	steps := NewSteps(StepDeps{Store: store, Relevance: failingEvaluator{}})

	if err := steps.Relevance(context.Background()); err != nil {
		t.Fatalf("an evaluation failure must not abort the stage: %v", err)
	}
	if store.selections["a"] != domain.SelectionNo {
		t.Fatalf("failed evaluation must reject the document, got %q", store.selections["a"])
	}
}

func TestPrefixMissingSections(t *testing.T) {
	t.Parallel()

	if got := prefixMissingSections("s", "abstract", "conclusion"); got != "s" {
		t.Fatalf("complete input must not be flagged: %q", got)
	}
	if got := prefixMissingSections("s", "", ""); got != "(missing abstract) (missing conclusion) s" {
		t.Fatalf("unexpected flags: %q", got)
	}
}
