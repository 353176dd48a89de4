package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type countingSnapshots struct {
	documents int
	summaries int
}

func (s *countingSnapshots) ExportDocuments(context.Context) error {
	s.documents++
	return nil
}

func (s *countingSnapshots) ExportSummaries(context.Context) error {
	s.summaries++
	return nil
}

func namedStage(name string, required bool, calls *[]string, err error) Stage {
	return Stage{
		Name:     name,
		Required: required,
		Run: func(context.Context) error {
			*calls = append(*calls, name)
			return err
		},
	}
}

func TestRunExecutesStagesInOrder(t *testing.T) {
	t.Parallel()

	var calls []string
	stages := []Stage{
		namedStage(StageClear, true, &calls, nil),
		namedStage(StageFetch, true, &calls, nil),
		namedStage(StageDownload, true, &calls, nil),
	}

	w := NewWorkflow(stages, nil, 0, nil)
	if err := w.Run(context.Background(), ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := strings.Join(calls, ","); got != "clear,fetch,download" {
		t.Fatalf("unexpected order: %s", got)
	}
}

func TestRunRequiredStageFailureAborts(t *testing.T) {
	t.Parallel()

	var calls []string
	stages := []Stage{
		namedStage(StageClear, true, &calls, nil),
		namedStage(StageFetch, true, &calls, errors.New("boom")),
		namedStage(StageDownload, true, &calls, nil),
	}

	w := NewWorkflow(stages, nil, 0, nil)
	err := w.Run(context.Background(), "")
	if err == nil {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(err.Error(), StageFetch) {
		t.Fatalf("error must name the failed stage: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("stages after a required failure must not run, got %v", calls)
	}

	records := w.Status()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Succeeded != true || records[1].Succeeded != false {
		t.Fatalf("unexpected outcome vector: %+v", records)
	}
}

func TestRunOptionalStageFailureContinues(t *testing.T) {
	t.Parallel()

	var calls []string
	stages := []Stage{
		namedStage(StageFetch, true, &calls, nil),
		namedStage(StageRelevance, false, &calls, errors.New("model offline")),
		namedStage(StageDownload, true, &calls, nil),
	}

	w := NewWorkflow(stages, nil, 0, nil)
	if err := w.Run(context.Background(), ""); err != nil {
		t.Fatalf("optional failure must not abort: %v", err)
	}
	if got := strings.Join(calls, ","); got != "fetch,relevance,download" {
		t.Fatalf("unexpected order: %s", got)
	}

	records := w.Status()
	if records[1].Succeeded {
		t.Fatalf("failed optional stage must be recorded as failed")
	}
}

func TestRunStartFromSkipsEarlierStages(t *testing.T) {
	t.Parallel()

	var calls []string
	stages := []Stage{
		namedStage(StageClear, true, &calls, nil),
		namedStage(StageFetch, true, &calls, nil),
		namedStage(StageDownload, true, &calls, nil),
		namedStage(StageParse, true, &calls, nil),
	}

	w := NewWorkflow(stages, nil, 0, nil)
	if err := w.Run(context.Background(), StageDownload); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.Join(calls, ","); got != "download,parse" {
		t.Fatalf("resume must not re-run earlier stages, got %s", got)
	}
}

func TestRunUnknownStartFrom(t *testing.T) {
	t.Parallel()

	var calls []string
	stages := []Stage{namedStage(StageClear, true, &calls, nil)}

	w := NewWorkflow(stages, nil, 0, nil)
	err := w.Run(context.Background(), "does-not-exist")
	if err == nil {
		t.Fatalf("expected configuration error")
	}
	if len(calls) != 0 {
		t.Fatalf("no stage may run on an unknown start stage, got %v", calls)
	}
	if !strings.Contains(err.Error(), "does-not-exist") {
		t.Fatalf("error must name the unknown stage: %v", err)
	}
}

func TestRunSnapshotHooks(t *testing.T) {
	t.Parallel()

	var calls []string
	stages := []Stage{
		namedStage(StageExtract, true, &calls, nil),
		namedStage(StageSummarise, true, &calls, nil),
	}

	snaps := &countingSnapshots{}
	w := NewWorkflow(stages, snaps, 0, nil)
	if err := w.Run(context.Background(), ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	if snaps.summaries != 1 {
		t.Fatalf("expected one summaries export, got %d", snaps.summaries)
	}
	if snaps.documents != 1 {
		t.Fatalf("expected one final documents export, got %d", snaps.documents)
	}
}

func TestRunCancelledContext(t *testing.T) {
	t.Parallel()

	var calls []string
	stages := []Stage{namedStage(StageClear, true, &calls, nil)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWorkflow(stages, nil, 0, nil)
	if err := w.Run(ctx, ""); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
	if len(calls) != 0 {
		t.Fatalf("no stage may run after cancellation, got %v", calls)
	}
}
