// Package app wires configuration to adapters and the workflow.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/convert"
	"ArxivDigest/internal/extract"
	"ArxivDigest/internal/infrastructure/arxiv"
	"ArxivDigest/internal/infrastructure/docling"
	"ArxivDigest/internal/infrastructure/download"
	"ArxivDigest/internal/infrastructure/llm"
	"ArxivDigest/internal/infrastructure/storage"
	"ArxivDigest/internal/logging"
	"ArxivDigest/internal/ports"
	"ArxivDigest/internal/snapshot"
	"ArxivDigest/internal/usecase"
)

// RunOptions carries the per-invocation switches that affect wiring.
// The starting stage is passed to Run directly.
type RunOptions struct {
	ParallelParse bool
}

// Application owns the wired workflow and the store lifetime.
type Application struct {
	cfg      config.Config
	store    *storage.SQLiteStore
	steps    *usecase.Steps
	workflow *usecase.Workflow
	logger   *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, opts RunOptions, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.NewWithFile(cfg.Logging.Level, cfg.Logging.File)
	}

	store, err := storage.Open(cfg.Paths.Database, baseLogger.With("component", "storage"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	source := arxiv.NewSource(cfg.Query, cfg.Fetch, baseLogger.With("component", "arxiv"))
	downloader := download.NewHTTPDownloader(cfg.Download, baseLogger.With("component", "download"))

	clients := docling.PoolClients(cfg.Converter.Endpoint, cfg.Converter.PoolSize, cfg.Converter.Timeout)
	converters := make([]ports.Converter, len(clients))
	for i, c := range clients {
		converters[i] = c
	}
	pool := convert.NewPool(converters, baseLogger.With("component", "convert"))

	ollama := llm.NewOllamaClient(cfg.LLM.Ollama, baseLogger.With("component", "ollama"))

	registry := llm.NewRegistry()
	registry.Register(llm.Named("ollama", ollama))
	registry.Register(llm.Named("anthropic", llm.NewAnthropicClient(cfg.LLM.Anthropic, cfg.LLM.Ollama.SystemPrompt)))

	summarizer, err := registry.Resolve(cfg.LLM.Backend)
	if err != nil {
		store.Close()
		return nil, err
	}

	var relevance ports.RelevanceEvaluator
	if cfg.Relevance.Enabled {
		relevance = ollama
	}

	snapshots := snapshot.NewExporter(store, cfg.Paths.Snapshots, baseLogger.With("component", "snapshot"))

	steps := usecase.NewSteps(usecase.StepDeps{
		Source:     source,
		Store:      store,
		Downloader: downloader,
		Converter:  clients[0],
		Pool:       pool,
		Extractor:  extract.NewExtractor(baseLogger.With("component", "extract")),
		Summarizer: summarizer,
		Relevance:  relevance,
		Logger:     baseLogger.With("component", "steps"),

		PDFDir:        cfg.Paths.PDFs,
		ConversionDir: cfg.Paths.Conversions,
		SnapshotDir:   cfg.Paths.Snapshots,
		ParallelParse: opts.ParallelParse || cfg.Converter.Parallel,
	})

	workflow := usecase.NewWorkflow(
		buildStages(steps, cfg.Relevance.Enabled),
		snapshots,
		cfg.Workflow.GraceDelay,
		baseLogger.With("component", "workflow"),
	)

	return &Application{
		cfg:      cfg,
		store:    store,
		steps:    steps,
		workflow: workflow,
		logger:   baseLogger,
	}, nil
}

func buildStages(steps *usecase.Steps, withRelevance bool) []usecase.Stage {
	stages := []usecase.Stage{
		{Name: usecase.StageClear, Required: true, Run: steps.Clear},
		{Name: usecase.StageFetch, Required: true, Run: steps.Fetch},
	}
	if withRelevance {
		stages = append(stages, usecase.Stage{Name: usecase.StageRelevance, Required: false, Run: steps.Relevance})
	}
	stages = append(stages,
		usecase.Stage{Name: usecase.StageDownload, Required: true, Run: steps.Download},
		usecase.Stage{Name: usecase.StageParse, Required: true, Run: steps.Parse},
		usecase.Stage{Name: usecase.StageExtract, Required: true, Run: steps.Extract},
		usecase.Stage{Name: usecase.StageSummarise, Required: true, Run: steps.Summarise},
	)
	return stages
}

// Run executes one full pipeline pass from the configured starting stage.
func (a *Application) Run(ctx context.Context, startFrom string) error {
	return a.workflow.Run(ctx, startFrom)
}

// ShowSummaries renders the stored summaries report to w.
func (a *Application) ShowSummaries(ctx context.Context, w io.Writer) error {
	return a.steps.ShowSummaries(ctx, w)
}

// Close releases the store.
func (a *Application) Close() error {
	return a.store.Close()
}
