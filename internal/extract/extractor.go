package extract

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"ArxivDigest/internal/domain"
)

// Extractor converts reconstructed paper text into typed section fields by
// running ordered pattern cascades. It never fails: any malformed or empty
// input yields a result with both fields nil, logged as a warning.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor wires a component logger.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract applies the abstract cascade, the conclusion cascade, and the
// discussion fallback (only when no conclusion qualified) to the given text.
func (e *Extractor) Extract(id, content string) domain.ExtractionResult {
	var result domain.ExtractionResult

	if strings.TrimSpace(content) == "" {
		e.logger.Warn("no content to extract", "id", id)
		return result
	}

	if text, rule, ok := applyCascade(abstractRules, content, false); ok {
		result.Abstract = &text
		e.logger.Debug("found abstract", "id", id, "rule", rule, "chars", len(text))
	}

	if text, rule, ok := applyCascade(conclusionRules, content, true); ok {
		result.Conclusion = &text
		result.ConclusionSource = domain.SourceConclusion
		e.logger.Debug("found conclusion", "id", id, "rule", rule, "chars", len(text))
	} else if text, rule, ok := applyCascade(discussionRules, content, true); ok {
		result.Conclusion = &text
		result.ConclusionSource = domain.SourceDiscussion
		e.logger.Debug("found discussion as conclusion", "id", id, "rule", rule, "chars", len(text))
	}

	switch {
	case result.Abstract == nil && result.Conclusion == nil:
		e.logger.Warn("no sections found", "id", id)
	case result.Abstract == nil:
		e.logger.Info("no abstract found", "id", id)
	case result.Conclusion == nil:
		e.logger.Info("no conclusion found", "id", id)
	}

	return result
}

// applyCascade tries each rule in priority order and returns the first
// capture that still meets the minimum length after cleanup. A short capture
// does not stop the cascade; later rules are still tried.
func applyCascade(rules []Rule, content string, cutReferences bool) (string, string, bool) {
	for _, rule := range rules {
		m := rule.Pattern.FindStringSubmatch(content)
		if m == nil {
			continue
		}

		text := m[1]
		if cutReferences {
			text = truncateAtReferences(text)
		}
		text = normalizeWhitespace(text)

		if utf8.RuneCountInString(text) >= minSectionLength {
			return text, rule.Name, true
		}
	}
	return "", "", false
}

// truncateAtReferences cuts the capture at the first bibliography heading,
// defending against boundary alternations that fail to catch it.
func truncateAtReferences(text string) string {
	if loc := referencesCut.FindStringIndex(text); loc != nil {
		return text[:loc[0]]
	}
	return text
}

// normalizeWhitespace collapses runs of whitespace (newlines included) into
// single spaces and trims the result.
func normalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
