package domain

import "time"

// Document is a core entity describing one paper tracked by the pipeline.
// Only ID, Title, Authors and PDFURL are populated at fetch time; the
// remaining fields are filled in by later stages and never regress to empty.
type Document struct {
	ID          string
	Title       string
	Authors     string
	Affiliation string
	PDFURL      string
	Abstract    string
	Conclusion  string
	Selected    Selection
	Summary     string
}

// ConclusionSource records which pattern family produced a conclusion value.
type ConclusionSource string

const (
	SourceConclusion ConclusionSource = "conclusion"
	SourceDiscussion ConclusionSource = "discussion"
)

// ExtractionResult is the transient output of the section extractor.
// Nil fields mean the section was not found; a nil field never overwrites
// an existing document value.
type ExtractionResult struct {
	Abstract         *string          `json:"abstract"`
	Conclusion       *string          `json:"conclusion"`
	ConclusionSource ConclusionSource `json:"conclusion_source,omitempty"`
}

// Empty reports whether the extraction produced no usable output at all.
func (r ExtractionResult) Empty() bool {
	return r.Abstract == nil && r.Conclusion == nil
}

// Selection is the tri-state relevance verdict for a document.
type Selection string

const (
	SelectionPending Selection = ""
	SelectionYes     Selection = "yes"
	SelectionNo      Selection = "no"
)

// StageRecord captures the outcome of one workflow stage within a run.
// Records live only for the duration of the run.
type StageRecord struct {
	Name      string
	Required  bool
	Succeeded bool
	Duration  time.Duration
}

// SummaryRow pairs a document title with its generated summary for reporting.
type SummaryRow struct {
	ID      string
	Title   string
	Summary string
}
