package extract

import "regexp"

// Rule is one candidate matching pattern inside a cascade. Rules are tried
// strictly in slice order; the first rule whose capture survives truncation,
// normalization and the minimum-length gate wins.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// minSectionLength is the shortest normalized capture, counted in runes,
// accepted as a section.
const minSectionLength = 50

// Section labels are matched case-insensitively via scoped (?i:...) groups so
// that heading-boundary classes like [A-Z][a-z] keep their case semantics.
var abstractRules = []Rule{
	{
		Name:    "abstract-newline",
		Pattern: regexp.MustCompile(`(?s)(?i:abstract)\s*\n(.*?)(?:\n\s*\d|\n\s*[A-Z][a-z]|\z)`),
	},
	{
		Name:    "abstract-dash",
		Pattern: regexp.MustCompile(`(?s)(?i:abstract)\s*[-–—]\s*(.*?)(?:\n\s*\d|\n\s*[A-Z][a-z]|\z)`),
	},
	{
		Name:    "abstract-inline",
		Pattern: regexp.MustCompile(`(?s)(?i:abstract)[:.]?\s*(.*?)(?:\n\s*(?:\d+\.?\s*[A-Z]|(?i:introduction))|\z)`),
	},
}

var conclusionRules = []Rule{
	{
		Name:    "conclusion-newline",
		Pattern: regexp.MustCompile(`(?s)(?:\d+\.?\s*)?(?i:conclusions?)\s*\n(.*?)(?:\n\s*(?:(?i:acknowledgement)|(?i:reference)|\d+\.?\s*[A-Z])|\z)`),
	},
	{
		Name:    "conclusion-limitations",
		Pattern: regexp.MustCompile(`(?s)(?i:conclusion and limitations)\s*\n(.*?)(?:\n\s*(?:(?i:acknowledgement)|(?i:reference)|\d+\.?\s*[A-Z])|\z)`),
	},
	{
		Name:    "conclusion-inline",
		Pattern: regexp.MustCompile(`(?s)(?:\d+\.?\s*)?(?i:conclusions?)[:.]?\s*(.*?)(?:\n\s*(?:(?i:acknowledgement)|(?i:reference)|\d+\.?\s*[A-Z])|\z)`),
	},
	{
		Name:    "concluding-remarks",
		Pattern: regexp.MustCompile(`(?s)(?i:concluding remarks)\s*\n(.*?)(?:\n\s*(?:(?i:acknowledgement)|(?i:reference)|\d+\.?\s*[A-Z])|\z)`),
	},
}

var discussionRules = []Rule{
	{
		Name:    "discussion-newline",
		Pattern: regexp.MustCompile(`(?s)(?:\d+\.?\s*)?(?i:discussion)\s*\n(.*?)(?:\n\s*(?:(?i:conclusion)|(?i:acknowledgement)|(?i:reference)|\d+\.?\s*[A-Z])|\z)`),
	},
	{
		Name:    "discussion-future-work",
		Pattern: regexp.MustCompile(`(?s)(?i:discussion and future work)\s*\n(.*?)(?:\n\s*(?:(?i:conclusion)|(?i:acknowledgement)|(?i:reference)|\d+\.?\s*[A-Z])|\z)`),
	},
	{
		Name:    "discussion-inline",
		Pattern: regexp.MustCompile(`(?s)(?:\d+\.?\s*)?(?i:discussion)[:.]?\s*(.*?)(?:\n\s*(?:(?i:conclusion)|(?i:acknowledgement)|(?i:reference)|\d+\.?\s*[A-Z])|\z)`),
	},
	{
		Name:    "discussion-analysis",
		Pattern: regexp.MustCompile(`(?s)(?i:discussion and analysis)\s*\n(.*?)(?:\n\s*(?:(?i:conclusion)|(?i:acknowledgement)|(?i:reference)|\d+\.?\s*[A-Z])|\z)`),
	},
}

// referencesCut truncates captures at a trailing bibliography heading. This is
// a second pass independent of the boundary alternations above; the two are
// kept composable on purpose.
var referencesCut = regexp.MustCompile(`\n\s*(?i:references?)`)

var whitespaceRun = regexp.MustCompile(`\s+`)
