package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/kg-pipeline/internal/common"
	"github.com/joseph-ayodele/kg-pipeline/internal/core/mathpix"
	"github.com/joseph-ayodele/kg-pipeline/internal/core/ocr"
	"github.com/joseph-ayodele/kg-pipeline/internal/core/parser"
)

// runocr parses one PDF the same way the pipeline does and prints the
// normalized Markdown. The file is never moved.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runocr <file.pdf>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Processing.ProcessTimeout)
	defer cancel()

	mp := mathpix.NewClient(mathpix.Config{
		AppID:           cfg.Mathpix.AppID,
		AppKey:          cfg.Mathpix.AppKey,
		BaseURL:         cfg.Mathpix.BaseURL,
		Timeout:         cfg.Mathpix.Timeout,
		PollInterval:    cfg.Mathpix.PollInterval,
		MaxPollAttempts: cfg.Mathpix.MaxPollAttempts,
	}, logger)
	local := ocr.NewExtractor(ocr.Config{Pdftotext: cfg.Mathpix.Pdftotext}, logger)
	p := parser.New(mp, local, logger)

	start := time.Now()
	doc, err := p.Parse(ctx, path)
	dur := time.Since(start)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	logger.Info("text extraction OK",
		"document_id", doc.ID,
		"method", doc.Method,
		"used_primary", doc.UsedPrimary,
		"pages", doc.PageCount,
		"math_blocks", len(doc.MathBlocks),
		"bytes", len(doc.Text),
		"duration_ms", dur.Milliseconds(),
	)
	fmt.Println(doc.Text)
}
