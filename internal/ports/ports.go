package ports

import (
	"context"

	"ArxivDigest/internal/domain"
)

// MetadataSource pulls fresh paper metadata from the upstream search API.
type MetadataSource interface {
	Fetch(ctx context.Context) ([]domain.Document, error)
}

// DocumentStore persists documents and their incrementally enriched fields.
// Writes are field-level upserts; no column is required at creation.
type DocumentStore interface {
	UpsertDocuments(ctx context.Context, docs []domain.Document) error
	ListIDs(ctx context.Context) ([]string, error)
	ListDownloadable(ctx context.Context) ([]domain.Document, error)
	// UpdateSections writes only the non-nil fields; both nil is a no-op.
	UpdateSections(ctx context.Context, id string, abstract, conclusion *string) error
	GetSections(ctx context.Context, id string) (abstract, conclusion *string, err error)
	ListForSummary(ctx context.Context) ([]domain.Document, error)
	SaveSummary(ctx context.Context, id, summary string) error
	ListPendingRelevance(ctx context.Context) ([]domain.Document, error)
	SetSelected(ctx context.Context, id string, sel domain.Selection) error
	SelectionStats(ctx context.Context) (map[domain.Selection]int, error)
	SummariesReport(ctx context.Context) ([]domain.SummaryRow, error)
	ClearAll(ctx context.Context) error
}

// Downloader fetches one binary payload to a local destination file.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// Converter turns one PDF into a structured-text JSON artifact.
type Converter interface {
	Convert(ctx context.Context, pdfPath, outPath string) error
}

// Summarizer generates a summary from whichever sections are available.
type Summarizer interface {
	Summarize(ctx context.Context, abstract, conclusion string) (string, error)
}

// RelevanceEvaluator judges a paper by its affiliation metadata.
type RelevanceEvaluator interface {
	Evaluate(ctx context.Context, doc domain.Document) (domain.Selection, string, error)
}

// SnapshotExporter dumps read-only views of the persisted store. Exports are
// best-effort; a failing export never aborts the run.
type SnapshotExporter interface {
	ExportDocuments(ctx context.Context) error
	ExportSummaries(ctx context.Context) error
}
