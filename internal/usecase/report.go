package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// ShowSummaries renders every stored summary with its paper title. It is a
// read-only report run after the workflow when requested.
func (s *Steps) ShowSummaries(ctx context.Context, w io.Writer) error {
	rows, err := s.store.SummariesReport(ctx)
	if err != nil {
		return fmt.Errorf("load summaries: %w", err)
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "No summaries found")
		return nil
	}

	rule := strings.Repeat("=", 100)
	fmt.Fprintf(w, "%s\nFound %d summaries:\n%s\n\n", rule, len(rows), rule)
	for _, row := range rows {
		fmt.Fprintf(w, "Paper ID: %s\n", row.ID)
		fmt.Fprintf(w, "Title: %s\n", row.Title)
		fmt.Fprintln(w, strings.Repeat("-", 50))
		fmt.Fprintf(w, "Summary: %s\n%s\n\n", row.Summary, rule)
	}
	return nil
}
