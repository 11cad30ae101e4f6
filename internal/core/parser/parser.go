package parser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/kg-pipeline/constants"
	"github.com/joseph-ayodele/kg-pipeline/internal/common"
	"github.com/joseph-ayodele/kg-pipeline/internal/core/ocr"
	"github.com/joseph-ayodele/kg-pipeline/internal/entity"
)

// OCRService is the math-aware conversion service tried first.
type OCRService interface {
	IsConfigured() bool
	Convert(ctx context.Context, pdf []byte) (string, error)
}

// LocalExtractor is the best-effort fallback that needs no network.
type LocalExtractor interface {
	Extract(ctx context.Context, path string) (ocr.Result, error)
	PageCount(path string) (int, error)
}

// Parser turns a PDF path into a ParsedDocument.
type Parser struct {
	primary OCRService
	local   LocalExtractor
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Parser)

// WithClock replaces time.Now for duration measurement.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

func New(primary OCRService, local LocalExtractor, logger *slog.Logger, opts ...Option) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Parser{primary: primary, local: local, logger: logger, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

// attempt is the tagged outcome of one parse path.
type attempt struct {
	viaPrimary bool
	method     constants.ParseMethod
	text       string
	pages      int
	math       []string
	err        error
}

// Parse reads the file at path. The OCR service is used when configured; any
// failure there, including a poll timeout, falls back to local extraction.
// Errors: ErrNotFound when path does not exist, ErrParseFailure when no path
// produced text.
func (p *Parser) Parse(ctx context.Context, path string) (*entity.ParsedDocument, error) {
	start := p.now()

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.NewAppError("NOT_FOUND", "pdf not found: "+path, common.ErrNotFound)
		}
		return nil, common.NewAppError("PARSE_FAILURE", "read "+path, common.Tag(common.ErrParseFailure, err))
	}
	var primaryErr error
	res := attempt{err: errors.New("ocr service not configured")}
	if p.primary != nil && p.primary.IsConfigured() {
		res = p.viaService(ctx, path, raw)
		if res.err != nil {
			primaryErr = res.err
			p.logger.Warn("parser.primary.failed",
				"path", path,
				"error", res.err,
				"timeout", errors.Is(res.err, common.ErrServiceTimeout),
			)
		}
	}
	if res.err != nil {
		res = p.viaLocal(ctx, path)
	}
	if res.err != nil {
		p.logger.Error("parser.local.failed", "path", path, "error", res.err)
		return nil, common.NewAppError("PARSE_FAILURE", "no text extracted from "+path,
			common.Tag(common.ErrParseFailure, errors.Join(primaryErr, res.err)))
	}

	doc := &entity.ParsedDocument{
		ID:          DocumentID(filepath.Base(path), raw),
		SourceName:  filepath.Base(path),
		SourcePath:  path,
		Text:        res.text,
		MathBlocks:  res.math,
		PageCount:   res.pages,
		UsedPrimary: res.viaPrimary,
		Method:      res.method,
		Duration:    p.now().Sub(start),
	}
	p.logger.Info("parser.parse.ok",
		"path", path,
		"method", doc.Method,
		"pages", doc.PageCount,
		"math_blocks", len(doc.MathBlocks),
		"elapsed_ms", doc.Duration.Milliseconds(),
	)
	return doc, nil
}

func (p *Parser) viaService(ctx context.Context, path string, raw []byte) attempt {
	md, err := p.primary.Convert(ctx, raw)
	if err != nil {
		return attempt{viaPrimary: true, err: err}
	}
	pages, err := p.local.PageCount(path)
	if err != nil {
		return attempt{viaPrimary: true, err: fmt.Errorf("count pages: %w", err)}
	}
	return attempt{
		viaPrimary: true,
		method:     constants.ParseMethodMathpix,
		text:       md,
		pages:      pages,
		math:       ExtractMathBlocks(md),
	}
}

func (p *Parser) viaLocal(ctx context.Context, path string) attempt {
	res, err := p.local.Extract(ctx, path)
	if err != nil {
		return attempt{method: res.Method, err: err}
	}
	return attempt{
		method: res.Method,
		text:   res.Text,
		pages:  res.Pages,
		math:   []string{},
	}
}

// DocumentID identifies a source file by its name and contents, so that
// reprocessing the same file replaces its graph rows while two files with
// identical bytes stay separate documents.
func DocumentID(name string, raw []byte) string {
	h := sha256.New()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil))
}
