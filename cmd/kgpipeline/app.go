package main

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/kg-pipeline/internal/common"
	"github.com/joseph-ayodele/kg-pipeline/internal/core/extraction"
	"github.com/joseph-ayodele/kg-pipeline/internal/core/graph"
	"github.com/joseph-ayodele/kg-pipeline/internal/core/mathpix"
	"github.com/joseph-ayodele/kg-pipeline/internal/core/ocr"
	"github.com/joseph-ayodele/kg-pipeline/internal/core/parser"
	"github.com/joseph-ayodele/kg-pipeline/internal/core/pipeline"
	"github.com/joseph-ayodele/kg-pipeline/internal/ingest"
	"github.com/joseph-ayodele/kg-pipeline/internal/llm"
	"github.com/joseph-ayodele/kg-pipeline/internal/llm/openai"
	"github.com/joseph-ayodele/kg-pipeline/internal/repository"
)

// app is the fully wired pipeline. The graph store opens lazily on the first
// document or question.
type app struct {
	lifecycle    *ingest.Manager
	orchestrator *extraction.Orchestrator
	driver       *pipeline.Driver
	logger       *slog.Logger
}

func graphRepoConfig(cfg *common.Config) repository.Config {
	return repository.Config{
		DSN:             cfg.Graph.DSN,
		MaxConns:        cfg.Graph.MaxConns,
		MinConns:        cfg.Graph.MinConns,
		MaxConnLifetime: cfg.Graph.MaxConnLifetime,
		DialTimeout:     cfg.Graph.DialTimeout,
	}
}

func newLifecycle(cfg *common.Config, logger *slog.Logger) *ingest.Manager {
	return ingest.NewManager(ingest.Dirs{
		Inbox:   cfg.Paths.Inbox,
		Archive: cfg.Paths.Archive,
		Error:   cfg.Paths.Error,
	}, logger)
}

func buildApp(cfg *common.Config, logger *slog.Logger) (*app, error) {
	// OCR: math-aware service first, local text extraction as fallback
	var mpOpts []mathpix.Option
	if dir := cfg.Mathpix.ArtifactCacheDir; dir != "" {
		cache, err := mathpix.NewDirCache(dir)
		if err != nil {
			return nil, fmt.Errorf("artifact cache: %w", err)
		}
		mpOpts = append(mpOpts, mathpix.WithCache(cache))
	}
	mp := mathpix.NewClient(mathpix.Config{
		AppID:           cfg.Mathpix.AppID,
		AppKey:          cfg.Mathpix.AppKey,
		BaseURL:         cfg.Mathpix.BaseURL,
		Timeout:         cfg.Mathpix.Timeout,
		PollInterval:    cfg.Mathpix.PollInterval,
		MaxPollAttempts: cfg.Mathpix.MaxPollAttempts,
	}, logger, mpOpts...)
	local := ocr.NewExtractor(ocr.Config{Pdftotext: cfg.Mathpix.Pdftotext}, logger)
	docParser := parser.New(mp, local, logger)

	// LLM + graph index
	llmClient := openai.NewClient(openai.Config{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		EmbeddingModel:  cfg.LLM.EmbeddingModel,
		Temperature:     cfg.LLM.Temperature,
		Timeout:         cfg.LLM.Timeout,
		LenientTriplets: true,
	}, logger)
	var embedder llm.Embedder
	if llmClient.CanEmbed() {
		embedder = llmClient
	}
	index := graph.NewPropertyGraphIndex(graphRepoConfig(cfg), llmClient, embedder, llmClient, graph.Options{
		ChunkSize:    cfg.Graph.ChunkSize,
		ChunkOverlap: cfg.Graph.ChunkOverlap,
		Workers:      cfg.Graph.ExtractWorkers,
	}, logger)
	orch := extraction.New(index, logger, extraction.WithTopK(cfg.Graph.TopK))

	lifecycle := newLifecycle(cfg, logger)
	proc := pipeline.NewProcessor(logger, docParser, orch)
	driver := pipeline.NewDriver(pipeline.Config{
		MaxConcurrentFiles: cfg.Processing.MaxConcurrentFiles,
		ProcessTimeout:     cfg.Processing.ProcessTimeout,
		CredentialsPresent: cfg.Credentials().RequiredPresent(),
	}, lifecycle, proc, logger)

	return &app{
		lifecycle:    lifecycle,
		orchestrator: orch,
		driver:       driver,
		logger:       logger,
	}, nil
}

func (a *app) Close() {
	if err := a.orchestrator.Close(); err != nil {
		a.logger.Warn("app.close.error", "error", err)
	}
}
