package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joseph-ayodele/kg-pipeline/constants"
	"github.com/joseph-ayodele/kg-pipeline/internal/common"
	"github.com/joseph-ayodele/kg-pipeline/internal/core/graph"
	"github.com/joseph-ayodele/kg-pipeline/internal/llm"
	"github.com/joseph-ayodele/kg-pipeline/internal/llm/openai"
)

// llm runs triplet extraction on the first chunk of a text file several times
// to compare the model's output across runs. Nothing is persisted.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: llm <text-file> [times]")
		os.Exit(2)
	}
	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("read input", "path", os.Args[1], "error", err)
		os.Exit(2)
	}
	times := 3
	if len(os.Args) >= 3 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			times = n
		}
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if cfg.LLM.APIKey == "" {
		logger.Error("OPENAI_API_KEY env var is required")
		os.Exit(2)
	}

	client := openai.NewClient(openai.Config{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		Timeout:         cfg.LLM.Timeout,
		LenientTriplets: true,
	}, logger)

	chunks := graph.SentenceSplitter{ChunkSize: cfg.Graph.ChunkSize, Overlap: cfg.Graph.ChunkOverlap}.Split(string(raw))
	if len(chunks) == 0 {
		logger.Error("input has no text")
		os.Exit(1)
	}
	req := llm.TripletRequest{
		Text:          chunks[0],
		SourceFile:    os.Args[1],
		EntityKinds:   constants.EntityKindStrings(),
		RelationKinds: constants.RelationKindStrings(),
	}

	for i := 1; i <= times; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.LLM.Timeout)
		start := time.Now()
		logger.Info("llm.run.start", "iter", i, "chars", len(req.Text))

		triplets, _, err := client.ExtractTriplets(ctx, req)
		cancel()

		if err != nil {
			logger.Error("llm.run.error", "iter", i, "err", err)
			continue
		}
		for _, t := range triplets {
			logger.Info("llm.triplet", "iter", i,
				"subject", t.Subject.Name, "relation", t.Relation, "object", t.Object.Name)
		}
		logger.Info("llm.run.ok", "iter", i, "triplets", len(triplets), "elapsed_ms", time.Since(start).Milliseconds())
	}

	logger.Info("done", "times", times)
}
