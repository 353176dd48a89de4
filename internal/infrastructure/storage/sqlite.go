// Package storage persists documents and summaries in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS full_documents (
    id          TEXT PRIMARY KEY,
    title       TEXT,
    authors     TEXT,
    affiliation TEXT,
    pdf_url     TEXT,
    abstract    TEXT,
    conclusion  TEXT,
    selected    TEXT
);

CREATE TABLE IF NOT EXISTS summaries (
    id      TEXT PRIMARY KEY,
    summary TEXT
);
`

// pragmas applied on every open; WAL plus a generous busy timeout keeps the
// single-writer stages from tripping over the snapshot reads.
var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// SQLiteStore persists documents into a single SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ ports.DocumentStore = (*SQLiteStore)(nil)

// Open creates (if needed) and opens the database at path.
func Open(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every pool connection to :memory: would otherwise get its own empty
	// database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// OpenMemory opens an in-memory store for testing; Cleanup closes it.
func OpenMemory(t testing.TB) *SQLiteStore {
	t.Helper()
	store, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("storage.OpenMemory: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// Close releases the underlying connection pool.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertDocuments writes fetch-time metadata. Enrichment fields already
// present in the row are preserved: an empty incoming value never overwrites
// a stored one.
func (s *SQLiteStore) UpsertDocuments(ctx context.Context, docs []domain.Document) error {
	for _, doc := range docs {
		query := sq.Insert("full_documents").
			Columns("id", "title", "authors", "affiliation", "pdf_url", "abstract", "selected").
			Values(doc.ID, doc.Title, doc.Authors, nullIfEmpty(doc.Affiliation), doc.PDFURL, nullIfEmpty(doc.Abstract), nullIfEmpty(string(doc.Selected))).
			Suffix(`ON CONFLICT(id) DO UPDATE SET
                title       = excluded.title,
                authors     = excluded.authors,
                pdf_url     = excluded.pdf_url,
                affiliation = COALESCE(excluded.affiliation, affiliation),
                abstract    = COALESCE(excluded.abstract, abstract)`)

		if _, err := query.RunWith(s.db).ExecContext(ctx); err != nil {
			return fmt.Errorf("upsert document %s: %w", doc.ID, err)
		}

		seed := sq.Insert("summaries").
			Columns("id").
			Values(doc.ID).
			Suffix("ON CONFLICT(id) DO NOTHING")
		if _, err := seed.RunWith(s.db).ExecContext(ctx); err != nil {
			return fmt.Errorf("seed summary row %s: %w", doc.ID, err)
		}
	}
	return nil
}

// ListIDs returns every document id in stable order.
func (s *SQLiteStore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := sq.Select("id").From("full_documents").OrderBy("id").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListDownloadable returns documents carrying a source-fetch URL.
func (s *SQLiteStore) ListDownloadable(ctx context.Context) ([]domain.Document, error) {
	rows, err := sq.Select("id", "pdf_url").From("full_documents").
		Where(sq.And{sq.NotEq{"pdf_url": nil}, sq.NotEq{"pdf_url": ""}}).
		OrderBy("id").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query downloadable: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.PDFURL); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// UpdateSections writes only the non-nil fields; both nil is a no-op.
func (s *SQLiteStore) UpdateSections(ctx context.Context, id string, abstract, conclusion *string) error {
	if abstract == nil && conclusion == nil {
		return nil
	}

	query := sq.Update("full_documents").Where(sq.Eq{"id": id})
	if abstract != nil {
		query = query.Set("abstract", *abstract)
	}
	if conclusion != nil {
		query = query.Set("conclusion", *conclusion)
	}

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update sections %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s not found", id)
	}
	return nil
}

// GetSections reads back the enrichment fields for one document.
func (s *SQLiteStore) GetSections(ctx context.Context, id string) (*string, *string, error) {
	var abstract, conclusion sql.NullString
	err := sq.Select("abstract", "conclusion").From("full_documents").
		Where(sq.Eq{"id": id}).
		RunWith(s.db).QueryRowContext(ctx).
		Scan(&abstract, &conclusion)
	if err != nil {
		return nil, nil, fmt.Errorf("read sections %s: %w", id, err)
	}
	return fromNull(abstract), fromNull(conclusion), nil
}

// ListForSummary returns every document with its extracted sections.
func (s *SQLiteStore) ListForSummary(ctx context.Context) ([]domain.Document, error) {
	rows, err := sq.Select("id", "title", "abstract", "conclusion").From("full_documents").
		OrderBy("id").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var (
			doc                  domain.Document
			abstract, conclusion sql.NullString
		)
		if err := rows.Scan(&doc.ID, &doc.Title, &abstract, &conclusion); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.Abstract = abstract.String
		doc.Conclusion = conclusion.String
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// SaveSummary upserts the generated summary for one document.
func (s *SQLiteStore) SaveSummary(ctx context.Context, id, summary string) error {
	query := sq.Insert("summaries").
		Columns("id", "summary").
		Values(id, summary).
		Suffix("ON CONFLICT(id) DO UPDATE SET summary = excluded.summary")
	if _, err := query.RunWith(s.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("save summary %s: %w", id, err)
	}
	return nil
}

// ListPendingRelevance returns documents awaiting a selection verdict.
func (s *SQLiteStore) ListPendingRelevance(ctx context.Context) ([]domain.Document, error) {
	rows, err := sq.Select("id", "title", "authors", "affiliation", "abstract").
		From("full_documents").
		Where(sq.Eq{"selected": nil}).
		OrderBy("id").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query pending documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var (
			doc                   domain.Document
			affiliation, abstract sql.NullString
		)
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Authors, &affiliation, &abstract); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.Affiliation = affiliation.String
		doc.Abstract = abstract.String
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// SetSelected stores the tri-state relevance verdict.
func (s *SQLiteStore) SetSelected(ctx context.Context, id string, sel domain.Selection) error {
	query := sq.Update("full_documents").
		Set("selected", nullIfEmpty(string(sel))).
		Where(sq.Eq{"id": id})
	if _, err := query.RunWith(s.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("set selected %s: %w", id, err)
	}
	return nil
}

// SelectionStats counts documents grouped by their selection state.
func (s *SQLiteStore) SelectionStats(ctx context.Context) (map[domain.Selection]int, error) {
	rows, err := sq.Select("selected", "COUNT(*)").From("full_documents").
		GroupBy("selected").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query selection stats: %w", err)
	}
	defer rows.Close()

	stats := map[domain.Selection]int{}
	for rows.Next() {
		var (
			sel   sql.NullString
			count int
		)
		if err := rows.Scan(&sel, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[domain.Selection(sel.String)] = count
	}
	return stats, rows.Err()
}

// SummariesReport joins documents with their non-null summaries.
func (s *SQLiteStore) SummariesReport(ctx context.Context) ([]domain.SummaryRow, error) {
	rows, err := sq.Select("f.id", "f.title", "s.summary").
		From("full_documents f").
		Join("summaries s ON f.id = s.id").
		Where(sq.NotEq{"s.summary": nil}).
		OrderBy("f.id").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query summaries report: %w", err)
	}
	defer rows.Close()

	var report []domain.SummaryRow
	for rows.Next() {
		var row domain.SummaryRow
		if err := rows.Scan(&row.ID, &row.Title, &row.Summary); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		report = append(report, row)
	}
	return report, rows.Err()
}

// ClearAll removes every row from both tables. Documents are otherwise
// never deleted.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	for _, table := range []string{"full_documents", "summaries"} {
		res, err := sq.Delete(table).RunWith(s.db).ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			s.logger.Info("cleared table", "table", table, "rows", n)
		}
	}
	return nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func fromNull(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	value := v.String
	return &value
}
