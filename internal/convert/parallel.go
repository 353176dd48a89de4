// Package convert distributes conversion jobs across a small fixed pool of
// converter instances.
package convert

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"ArxivDigest/internal/ports"
)

// DefaultPoolSize is the number of converter instances used when none is
// configured.
const DefaultPoolSize = 2

// Job is one input/output pair for the pool.
type Job struct {
	Input  string
	Output string
}

// Status enumerates per-job outcomes.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Result records the outcome of exactly one job.
type Result struct {
	Job    Job
	Worker int
	Status Status
	Err    error
}

// Summary aggregates the outcomes of a pool run.
type Summary struct {
	Results   []Result
	Succeeded int
	Failed    int
	Skipped   int
	Elapsed   time.Duration
}

// Average returns the mean elapsed time per job.
func (s Summary) Average() time.Duration {
	if len(s.Results) == 0 {
		return 0
	}
	return s.Elapsed / time.Duration(len(s.Results))
}

// Pool runs jobs over its converter instances in round-robin assignment.
// Each worker slot processes at most one job at a time; one job's failure
// never cancels the others.
type Pool struct {
	converters []ports.Converter
	logger     *slog.Logger
}

// NewPool wires one converter instance per worker slot.
func NewPool(converters []ports.Converter, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{converters: converters, logger: logger}
}

// Size returns the number of worker slots.
func (p *Pool) Size() int {
	return len(p.converters)
}

// Assign maps a job index onto a worker slot. The assignment is a pure
// modulo so fairness is testable without spinning up workers.
func Assign(jobIndex, poolSize int) int {
	return jobIndex % poolSize
}

// Run processes all jobs and blocks until every one has settled. Jobs whose
// output already exists are skipped without re-conversion.
func (p *Pool) Run(ctx context.Context, jobs []Job) Summary {
	start := time.Now()
	results := make([]Result, len(jobs))

	var wg sync.WaitGroup
	for slot := 0; slot < p.Size(); slot++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			for i := range jobs {
				if Assign(i, p.Size()) != slot {
					continue
				}
				results[i] = p.runJob(ctx, jobs[i], slot)
			}
		}(slot)
	}
	wg.Wait()

	summary := Summary{Results: results, Elapsed: time.Since(start)}
	for _, res := range results {
		switch res.Status {
		case StatusSucceeded:
			summary.Succeeded++
		case StatusFailed:
			summary.Failed++
		case StatusSkipped:
			summary.Skipped++
		}
	}

	p.logger.Info("conversion summary",
		"total", len(jobs),
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"elapsed", summary.Elapsed,
		"average", summary.Average(),
	)
	return summary
}

func (p *Pool) runJob(ctx context.Context, job Job, slot int) Result {
	if _, err := os.Stat(job.Output); err == nil {
		p.logger.Info("skipping conversion, output exists", "worker", slot, "input", job.Input)
		return Result{Job: job, Worker: slot, Status: StatusSkipped}
	}

	p.logger.Info("converting", "worker", slot, "input", job.Input)
	if err := p.converters[slot].Convert(ctx, job.Input, job.Output); err != nil {
		p.logger.Error("conversion failed", "worker", slot, "input", job.Input, "error", err)
		return Result{Job: job, Worker: slot, Status: StatusFailed, Err: err}
	}
	return Result{Job: job, Worker: slot, Status: StatusSucceeded}
}
