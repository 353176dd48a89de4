// Package arxiv implements the metadata source on top of the arXiv
// Atom query API.
package arxiv

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

// Source queries the export API for recent papers matching the configured
// keywords, optionally enriching each hit with affiliation metadata.
type Source struct {
	cfg    config.QueryConfig
	fetch  config.FetchConfig
	parser *gofeed.Parser
	affil  *AffiliationClient
	logger *slog.Logger
}

var _ ports.MetadataSource = (*Source)(nil)

func NewSource(cfg config.QueryConfig, fetch config.FetchConfig, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Source{
		cfg:    cfg,
		fetch:  fetch,
		parser: gofeed.NewParser(),
		logger: logger,
	}
	if fetch.WithAffiliation {
		s.affil = NewAffiliationClient(cfg.APIURL, fetch.PoliteDelay, logger)
	}
	return s
}

// Fetch pulls the newest matching papers, sorted by submission date.
func (s *Source) Fetch(ctx context.Context) ([]domain.Document, error) {
	feedURL := s.queryURL()
	s.logger.Info("fetching metadata", "query", s.cfg.Name, "url", feedURL)

	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("query arxiv: %w", err)
	}

	docs := make([]domain.Document, 0, len(feed.Items))
	for _, item := range feed.Items {
		doc := documentFromItem(item)
		if doc.ID == "" {
			s.logger.Warn("skipping entry without id", "title", item.Title)
			continue
		}
		docs = append(docs, doc)
	}

	if s.affil != nil {
		if err := s.enrichAffiliations(ctx, docs); err != nil {
			return nil, err
		}
	}

	s.logger.Info("metadata fetched", "count", len(docs))
	return docs, nil
}

func (s *Source) queryURL() string {
	terms := make([]string, 0, len(s.cfg.Keywords))
	for _, kw := range s.cfg.Keywords {
		terms = append(terms, fmt.Sprintf("all:%q", kw))
	}

	values := url.Values{}
	values.Set("search_query", strings.Join(terms, " OR "))
	values.Set("max_results", fmt.Sprintf("%d", s.cfg.MaxResults))
	values.Set("sortBy", "submittedDate")
	values.Set("sortOrder", "descending")
	return s.cfg.APIURL + "?" + values.Encode()
}

func (s *Source) enrichAffiliations(ctx context.Context, docs []domain.Document) error {
	for i := range docs {
		affiliation, err := s.affil.Lookup(ctx, docs[i].ID)
		if err != nil {
			s.logger.Warn("affiliation lookup failed", "id", docs[i].ID, "error", err)
			continue
		}
		docs[i].Affiliation = affiliation

		select {
		case <-time.After(s.fetch.PoliteDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func documentFromItem(item *gofeed.Item) domain.Document {
	doc := domain.Document{
		Title:    collapseSpace(item.Title),
		Abstract: collapseSpace(item.Description),
	}

	doc.ID = idFromEntry(item.GUID)
	if doc.ID == "" {
		doc.ID = idFromEntry(item.Link)
	}

	authors := make([]string, 0, len(item.Authors))
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			authors = append(authors, a.Name)
		}
	}
	doc.Authors = strings.Join(authors, ", ")

	for _, link := range item.Links {
		if strings.Contains(link, "/pdf/") {
			doc.PDFURL = link
			break
		}
	}
	if doc.PDFURL == "" && doc.ID != "" {
		doc.PDFURL = "https://arxiv.org/pdf/" + doc.ID
	}

	return doc
}

// idFromEntry extracts the bare paper id from an abs URL,
// e.g. http://arxiv.org/abs/2501.01234v2 -> 2501.01234v2.
func idFromEntry(s string) string {
	idx := strings.LastIndex(s, "/abs/")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(s[idx+len("/abs/"):])
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
