package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/kg-pipeline/internal/common"
	"github.com/joseph-ayodele/kg-pipeline/internal/entity"
)

// DocumentParser turns a PDF path into normalized text.
type DocumentParser interface {
	Parse(ctx context.Context, path string) (*entity.ParsedDocument, error)
}

// EntityExtractor indexes a parsed document and summarizes it.
type EntityExtractor interface {
	Process(ctx context.Context, doc *entity.ParsedDocument) (entity.EntityBundle, error)
}

// Processor coordinates parse then extraction for one file. It never moves
// the file; the driver commits the outcome.
type Processor struct {
	logger    *slog.Logger
	parser    DocumentParser
	extractor EntityExtractor
	now       func() time.Time
}

func NewProcessor(logger *slog.Logger, parser DocumentParser, extractor EntityExtractor) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, parser: parser, extractor: extractor, now: time.Now}
}

// ProcessFile returns the file's outcome. Errors are folded into the result.
func (p *Processor) ProcessFile(ctx context.Context, path string) entity.ExtractionResult {
	name := filepath.Base(path)
	start := p.now()
	ctx = common.WithSourceFile(ctx, name)

	// 1) parse → normalized text + math blocks
	doc, err := p.parser.Parse(ctx, path)
	if err != nil {
		p.logger.Error("processor.parse.failed", "run_id", common.RunIDFromContext(ctx), "file", name, "error", err)
		return entity.Failed(name, err, p.now().Sub(start))
	}
	p.logger.Debug("processor parse stage success",
		"file", name,
		"method", doc.Method,
		"pages", doc.PageCount,
		"used_primary", doc.UsedPrimary,
	)

	// 2) extract → graph insert + local summary
	bundle, err := p.extractor.Process(ctx, doc)
	if err != nil {
		p.logger.Error("processor.extract.failed", "run_id", common.RunIDFromContext(ctx), "file", name, "error", err)
		return entity.Failed(name, err, p.now().Sub(start))
	}
	p.logger.Debug("processor extract stage success", "file", name)
	return entity.Succeeded(name, bundle, p.now().Sub(start))
}
