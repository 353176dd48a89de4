package arxiv

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// orgMarkers flag a comment segment as naming an institution when the feed
// carries no explicit affiliation tags.
var orgMarkers = []string{
	"university", "institute", "lab", "corporation", "inc.", "company",
}

// AffiliationClient resolves author affiliations for a single paper through
// the id_list query endpoint. The export API returns affiliation tags only
// on per-id lookups, not on search results.
type AffiliationClient struct {
	apiURL string
	client *http.Client
	delay  time.Duration
	logger *slog.Logger
}

func NewAffiliationClient(apiURL string, delay time.Duration, logger *slog.Logger) *AffiliationClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &AffiliationClient{
		apiURL: apiURL,
		client: &http.Client{Timeout: 30 * time.Second},
		delay:  delay,
		logger: logger,
	}
}

// Lookup fetches the single-entry feed for id and extracts whatever
// affiliation signal it carries. An empty result is not an error.
func (c *AffiliationClient) Lookup(ctx context.Context, id string) (string, error) {
	values := url.Values{}
	values.Set("id_list", stripVersion(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+values.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch entry %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch entry %s: status %d", id, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse entry %s: %w", id, err)
	}

	if affiliations := explicitAffiliations(doc); len(affiliations) > 0 {
		return strings.Join(affiliations, "; "), nil
	}

	comment := strings.TrimSpace(doc.Find(`arxiv\:comment`).First().Text())
	if guess := affiliationFromComment(comment); guess != "" {
		c.logger.Debug("affiliation inferred from comment", "id", id, "value", guess)
		return guess, nil
	}
	return "", nil
}

func explicitAffiliations(doc *goquery.Document) []string {
	seen := map[string]bool{}
	var out []string
	doc.Find(`arxiv\:affiliation`).Each(func(_ int, sel *goquery.Selection) {
		v := strings.TrimSpace(sel.Text())
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	})
	return out
}

// affiliationFromComment picks the first comment segment that mentions an
// organization marker. Authors frequently note their institution there.
func affiliationFromComment(comment string) string {
	if comment == "" {
		return ""
	}
	for _, segment := range strings.FieldsFunc(comment, func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		lower := strings.ToLower(segment)
		for _, marker := range orgMarkers {
			if strings.Contains(lower, marker) {
				return strings.TrimSpace(segment)
			}
		}
	}
	return ""
}

// stripVersion removes a trailing vN revision marker: 2501.01234v2 -> 2501.01234.
func stripVersion(id string) string {
	idx := strings.LastIndex(id, "v")
	if idx <= 0 {
		return id
	}
	suffix := id[idx+1:]
	if suffix == "" {
		return id
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return id
		}
	}
	return id[:idx]
}
