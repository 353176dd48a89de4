package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

// Stage is one named unit of pipeline work.
type Stage struct {
	Name     string
	Required bool
	Run      func(ctx context.Context) error
}

// Canonical stage names, in execution order.
const (
	StageClear     = "clear"
	StageFetch     = "fetch"
	StageRelevance = "relevance"
	StageDownload  = "download"
	StageParse     = "parse"
	StageExtract   = "extract"
	StageSummarise = "summarise"
)

// Workflow executes an ordered list of stages with resumability and
// partial-failure tolerance. A failing required stage aborts the run; a
// failing optional stage is logged and skipped over.
type Workflow struct {
	stages     []Stage
	snapshots  ports.SnapshotExporter
	graceDelay time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	records []domain.StageRecord
}

// NewWorkflow builds the orchestrator. graceDelay is the fixed wait after a
// successful extraction stage; it is configuration, never a runtime signal.
func NewWorkflow(stages []Stage, snapshots ports.SnapshotExporter, graceDelay time.Duration, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		stages:     stages,
		snapshots:  snapshots,
		graceDelay: graceDelay,
		logger:     logger,
	}
}

// Run executes the stages strictly in order, optionally starting from a named
// stage. An unknown startFrom is a configuration error reported before any
// stage runs. Resuming from stage K never re-executes stages before K.
func (w *Workflow) Run(ctx context.Context, startFrom string) error {
	stages := w.stages
	if startFrom != "" {
		idx := -1
		for i, st := range stages {
			if st.Name == startFrom {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("unknown starting stage %q", startFrom)
		}
		stages = stages[idx:]
	}

	w.mu.Lock()
	w.records = make([]domain.StageRecord, 0, len(stages))
	w.mu.Unlock()

	start := time.Now()
	w.logger.Info("starting workflow", "stages", len(stages), "start_from", startFrom)

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("workflow interrupted before stage %s: %w", st.Name, err)
		}

		record := runStage(ctx, st, w.logger)
		w.appendRecord(record)

		if !record.Succeeded {
			if st.Required {
				w.logSummary(time.Since(start))
				return fmt.Errorf("required stage %s failed", st.Name)
			}
			w.logger.Warn("optional stage failed, continuing", "stage", st.Name)
			continue
		}

		w.afterStage(ctx, st.Name)
	}

	w.exportSnapshot(ctx, "documents", w.snapshotDocuments)
	w.logSummary(time.Since(start))
	return nil
}

// Status returns a copy of the per-stage outcome vector for the current run.
// Safe to call while the run is in progress.
func (w *Workflow) Status() []domain.StageRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]domain.StageRecord, len(w.records))
	copy(out, w.records)
	return out
}

// runStage invokes one stage and reports its outcome with timing.
func runStage(ctx context.Context, st Stage, logger *slog.Logger) domain.StageRecord {
	logger.Info("starting stage", "stage", st.Name, "required", st.Required)
	start := time.Now()
	err := st.Run(ctx)
	record := domain.StageRecord{
		Name:      st.Name,
		Required:  st.Required,
		Succeeded: err == nil,
		Duration:  time.Since(start),
	}

	if err != nil {
		logger.Error("stage failed", "stage", st.Name, "duration", record.Duration, "error", err)
	} else {
		logger.Info("stage completed", "stage", st.Name, "duration", record.Duration)
	}
	return record
}

func (w *Workflow) appendRecord(record domain.StageRecord) {
	w.mu.Lock()
	w.records = append(w.records, record)
	w.mu.Unlock()
}

// afterStage runs the documented post-stage hooks. Hook failures never abort
// the run.
func (w *Workflow) afterStage(ctx context.Context, name string) {
	switch name {
	case StageExtract:
		if w.graceDelay <= 0 {
			return
		}
		w.logger.Info("waiting before summarization", "delay", w.graceDelay)
		select {
		case <-time.After(w.graceDelay):
		case <-ctx.Done():
		}
	case StageSummarise:
		w.exportSnapshot(ctx, "summaries", w.snapshotSummaries)
	}
}

func (w *Workflow) snapshotDocuments(ctx context.Context) error {
	return w.snapshots.ExportDocuments(ctx)
}

func (w *Workflow) snapshotSummaries(ctx context.Context) error {
	return w.snapshots.ExportSummaries(ctx)
}

func (w *Workflow) exportSnapshot(ctx context.Context, kind string, export func(context.Context) error) {
	if w.snapshots == nil {
		return
	}
	if err := export(ctx); err != nil {
		w.logger.Warn("snapshot export failed", "kind", kind, "error", err)
		return
	}
	w.logger.Info("snapshot exported", "kind", kind)
}

func (w *Workflow) logSummary(total time.Duration) {
	w.mu.Lock()
	records := make([]domain.StageRecord, len(w.records))
	copy(records, w.records)
	w.mu.Unlock()

	w.logger.Info("workflow summary", "total", total)
	for _, rec := range records {
		w.logger.Info("stage outcome",
			"stage", rec.Name,
			"succeeded", rec.Succeeded,
			"duration", rec.Duration,
		)
	}
}
