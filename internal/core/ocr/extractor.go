package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/kg-pipeline/constants"
)

type Config struct {
	Pdftotext string // optional binary used when pdfcpu cannot read a file; empty disables it
	MaxPages  int    // 0 = no limit
}

// Result is the outcome of a local, math-unaware extraction.
type Result struct {
	Text     string
	Pages    int
	Method   constants.ParseMethod
	Duration time.Duration
	Warnings []string
}

// Extractor produces per-page plain text without any external service.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the command runner used for pdftotext.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Extract reads every page of the PDF at path and renders the pages as
// "## Page N" sections. A document with zero pages yields empty text.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		return Result{}, fmt.Errorf("unsupported extension: %q", ext)
	}

	method := constants.ParseMethodPDFText
	var warnings []string
	pages, readErr := readPDFPages(path, e.cfg.MaxPages)
	if readErr != nil {
		if e.cfg.Pdftotext == "" {
			e.logger.Error("ocr.pdfcpu.failed", "path", path, "error", readErr)
			return Result{Method: method}, readErr
		}
		e.logger.Warn("ocr.pdfcpu.fallback", "path", path, "error", readErr, "bin", e.cfg.Pdftotext)
		warnings = append(warnings, readErr.Error())

		p, errb, err := e.pdfToText(ctx, path)
		if err != nil {
			warnings = append(warnings, strings.TrimSpace(string(errb)))
			return Result{Method: constants.ParseMethodPdftotext, Warnings: warnings}, errors.Join(readErr, err)
		}
		pages = p
		method = constants.ParseMethodPdftotext
	}

	res := Result{
		Text:     ComposePages(pages),
		Pages:    len(pages),
		Method:   method,
		Duration: time.Since(start),
		Warnings: warnings,
	}
	e.logger.Debug("ocr.extract.ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// PageCount returns the number of pages without extracting text.
func (e *Extractor) PageCount(path string) (int, error) {
	return countPDFPages(path)
}

func (e *Extractor) pdfToText(ctx context.Context, path string) ([]string, []byte, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, errb, err
	}
	// pdftotext terminates every page with a form feed
	text := strings.TrimSuffix(string(out), "\f")
	if strings.TrimSpace(text) == "" {
		return nil, nil, nil
	}
	pages := strings.Split(text, "\f")
	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		pages = pages[:e.cfg.MaxPages]
	}
	return pages, nil, nil
}

// ComposePages renders page texts as "## Page N\n\n<text>" joined by a blank line.
func ComposePages(pages []string) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = fmt.Sprintf("## Page %d\n\n%s", i+1, Normalize(p))
	}
	return strings.Join(parts, "\n\n")
}
