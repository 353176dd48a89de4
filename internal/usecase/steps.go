package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ArxivDigest/internal/convert"
	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

// SectionExtractor is the narrow view of the extraction engine the steps
// need; it lets tests count invocations.
type SectionExtractor interface {
	Extract(id, content string) domain.ExtractionResult
}

// StepDeps wires all driven adapters into the concrete workflow steps.
type StepDeps struct {
	Source     ports.MetadataSource
	Store      ports.DocumentStore
	Downloader ports.Downloader
	Converter  ports.Converter
	Pool       *convert.Pool
	Extractor  SectionExtractor
	Summarizer ports.Summarizer
	Relevance  ports.RelevanceEvaluator
	Logger     *slog.Logger

	PDFDir        string
	ConversionDir string
	SnapshotDir   string
	ParallelParse bool
}

// Steps implements the per-stage logic driven by the workflow orchestrator.
type Steps struct {
	source     ports.MetadataSource
	store      ports.DocumentStore
	downloader ports.Downloader
	converter  ports.Converter
	pool       *convert.Pool
	extractor  SectionExtractor
	summarizer ports.Summarizer
	relevance  ports.RelevanceEvaluator
	logger     *slog.Logger

	pdfDir        string
	conversionDir string
	snapshotDir   string
	parallelParse bool
}

// NewSteps constructs the step set.
func NewSteps(deps StepDeps) *Steps {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Steps{
		source:        deps.Source,
		store:         deps.Store,
		downloader:    deps.Downloader,
		converter:     deps.Converter,
		pool:          deps.Pool,
		extractor:     deps.Extractor,
		summarizer:    deps.Summarizer,
		relevance:     deps.Relevance,
		logger:        logger,
		pdfDir:        deps.PDFDir,
		conversionDir: deps.ConversionDir,
		snapshotDir:   deps.SnapshotDir,
		parallelParse: deps.ParallelParse,
	}
}

// Clear empties both store tables and removes generated artifacts from the
// working directories.
func (s *Steps) Clear(ctx context.Context) error {
	if err := s.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}

	s.clearDirectory(s.pdfDir, "*.pdf")
	s.clearDirectory(s.conversionDir, "*.json")
	s.clearDirectory(s.snapshotDir, "*.json")

	s.logger.Info("workspace cleared")
	return nil
}

func (s *Steps) clearDirectory(dir, pattern string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		s.logger.Warn("directory not found", "dir", dir)
		return
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		s.logger.Error("glob failed", "dir", dir, "pattern", pattern, "error", err)
		return
	}

	count := 0
	for _, file := range matches {
		if err := os.Remove(file); err != nil {
			s.logger.Error("error deleting file", "file", file, "error", err)
			continue
		}
		count++
	}
	s.logger.Info("cleared files", "dir", dir, "count", count)
}

// Fetch pulls fresh paper metadata and upserts it into the store.
func (s *Steps) Fetch(ctx context.Context) error {
	docs, err := s.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch metadata: %w", err)
	}

	if err := s.store.UpsertDocuments(ctx, docs); err != nil {
		return fmt.Errorf("save documents: %w", err)
	}

	s.logger.Info("fetched papers", "count", len(docs))
	return nil
}

// Relevance evaluates every document with a pending selection verdict. An
// evaluation failure rejects the document rather than aborting the stage.
func (s *Steps) Relevance(ctx context.Context) error {
	docs, err := s.store.ListPendingRelevance(ctx)
	if err != nil {
		return fmt.Errorf("load pending documents: %w", err)
	}

	if len(docs) == 0 {
		s.logger.Info("no papers to evaluate")
		return nil
	}

	for _, doc := range docs {
		sel, reason, err := s.relevance.Evaluate(ctx, doc)
		if err != nil {
			s.logger.Warn("relevance evaluation failed, rejecting", "id", doc.ID, "error", err)
			sel = domain.SelectionNo
		}
		if err := s.store.SetSelected(ctx, doc.ID, sel); err != nil {
			s.logger.Error("save selection", "id", doc.ID, "error", err)
			continue
		}
		s.logger.Info("paper evaluated", "id", doc.ID, "selected", sel, "reason", reason)
	}

	stats, err := s.store.SelectionStats(ctx)
	if err != nil {
		s.logger.Warn("selection statistics unavailable", "error", err)
		return nil
	}
	s.logger.Info("selection statistics",
		"selected", stats[domain.SelectionYes],
		"rejected", stats[domain.SelectionNo],
		"pending", stats[domain.SelectionPending],
	)
	return nil
}

// Download retrieves the PDF payload of every document with a source URL.
// Existing files are skipped; single-document failures are tallied, not
// escalated.
func (s *Steps) Download(ctx context.Context) error {
	docs, err := s.store.ListDownloadable(ctx)
	if err != nil {
		return fmt.Errorf("load downloadable documents: %w", err)
	}

	if err := os.MkdirAll(s.pdfDir, 0o755); err != nil {
		return fmt.Errorf("create pdf directory: %w", err)
	}

	var succeeded, failed, skipped int
	for _, doc := range docs {
		dest := filepath.Join(s.pdfDir, doc.ID+".pdf")
		if _, err := os.Stat(dest); err == nil {
			skipped++
			continue
		}

		if err := s.downloader.Download(ctx, doc.PDFURL, dest); err != nil {
			s.logger.Warn("download failed", "id", doc.ID, "url", doc.PDFURL, "error", err)
			failed++
			continue
		}
		succeeded++
	}

	s.logger.Info("download summary", "succeeded", succeeded, "failed", failed, "skipped", skipped)
	return nil
}

// Parse converts downloaded PDFs into structured-text artifacts, either
// sequentially or through the round-robin pool.
func (s *Steps) Parse(ctx context.Context) error {
	pdfs, err := filepath.Glob(filepath.Join(s.pdfDir, "*.pdf"))
	if err != nil {
		return fmt.Errorf("list pdfs: %w", err)
	}
	sort.Strings(pdfs)

	if len(pdfs) == 0 {
		s.logger.Info("no pdf files to parse")
		return nil
	}

	if err := os.MkdirAll(s.conversionDir, 0o755); err != nil {
		return fmt.Errorf("create conversion directory: %w", err)
	}

	jobs := make([]convert.Job, 0, len(pdfs))
	for _, pdf := range pdfs {
		stem := strings.TrimSuffix(filepath.Base(pdf), ".pdf")
		jobs = append(jobs, convert.Job{
			Input:  pdf,
			Output: filepath.Join(s.conversionDir, stem+".json"),
		})
	}

	if s.parallelParse && s.pool != nil {
		s.pool.Run(ctx, jobs)
		return nil
	}

	var succeeded, failed, skipped int
	for _, job := range jobs {
		if _, err := os.Stat(job.Output); err == nil {
			skipped++
			continue
		}
		if err := s.converter.Convert(ctx, job.Input, job.Output); err != nil {
			s.logger.Warn("conversion failed", "input", job.Input, "error", err)
			failed++
			continue
		}
		succeeded++
	}

	s.logger.Info("parse summary", "succeeded", succeeded, "failed", failed, "skipped", skipped)
	return nil
}

// Summarise generates summaries for every document carrying at least one
// extracted section and stores them.
func (s *Steps) Summarise(ctx context.Context) error {
	docs, err := s.store.ListForSummary(ctx)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	if len(docs) == 0 {
		s.logger.Info("no documents to summarize")
		return nil
	}

	var succeeded, failed, skipped int
	for _, doc := range docs {
		abstract := strings.TrimSpace(doc.Abstract)
		conclusion := strings.TrimSpace(doc.Conclusion)

		if abstract == "" && conclusion == "" {
			s.logger.Info("skipping summary, no content available", "id", doc.ID)
			skipped++
			continue
		}

		summary, err := s.summarizer.Summarize(ctx, abstract, conclusion)
		if err != nil {
			s.logger.Warn("summarization failed", "id", doc.ID, "error", err)
			failed++
			continue
		}

		summary = prefixMissingSections(summary, abstract, conclusion)
		if err := s.store.SaveSummary(ctx, doc.ID, summary); err != nil {
			s.logger.Error("save summary", "id", doc.ID, "error", err)
			failed++
			continue
		}
		succeeded++
	}

	s.logger.Info("summarise summary", "succeeded", succeeded, "failed", failed, "skipped", skipped)
	return nil
}

// prefixMissingSections flags summaries built from partial input.
func prefixMissingSections(summary, abstract, conclusion string) string {
	var flags []string
	if abstract == "" {
		flags = append(flags, "(missing abstract)")
	}
	if conclusion == "" {
		flags = append(flags, "(missing conclusion)")
	}
	if len(flags) == 0 {
		return summary
	}
	return strings.Join(flags, " ") + " " + summary
}
