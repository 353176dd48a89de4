package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// DumpDocuments returns every document row keyed by id, the id column
// folded out of the row body.
func (s *SQLiteStore) DumpDocuments(ctx context.Context) (map[string]map[string]any, error) {
	rows, err := sq.Select("id", "title", "authors", "affiliation", "pdf_url", "abstract", "conclusion", "selected").
		From("full_documents").
		OrderBy("id").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("dump documents: %w", err)
	}
	defer rows.Close()

	dump := map[string]map[string]any{}
	for rows.Next() {
		var (
			id, title, authors, pdfURL               string
			affiliation, abstract, conclusion, selct sql.NullString
		)
		if err := rows.Scan(&id, &title, &authors, &affiliation, &pdfURL, &abstract, &conclusion, &selct); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		dump[id] = map[string]any{
			"title":       title,
			"authors":     authors,
			"affiliation": anyOrNil(affiliation),
			"pdf_url":     pdfURL,
			"abstract":    anyOrNil(abstract),
			"conclusion":  anyOrNil(conclusion),
			"selected":    anyOrNil(selct),
		}
	}
	return dump, rows.Err()
}

// DumpSummaries returns every summary row keyed by id.
func (s *SQLiteStore) DumpSummaries(ctx context.Context) (map[string]map[string]any, error) {
	rows, err := sq.Select("id", "summary").From("summaries").OrderBy("id").
		RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("dump summaries: %w", err)
	}
	defer rows.Close()

	dump := map[string]map[string]any{}
	for rows.Next() {
		var (
			id      string
			summary sql.NullString
		)
		if err := rows.Scan(&id, &summary); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		dump[id] = map[string]any{"summary": anyOrNil(summary)}
	}
	return dump, rows.Err()
}

func anyOrNil(v sql.NullString) any {
	if !v.Valid {
		return nil
	}
	return v.String
}
