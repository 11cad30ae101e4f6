package extraction

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/joseph-ayodele/kg-pipeline/constants"
	"github.com/joseph-ayodele/kg-pipeline/internal/common"
	"github.com/joseph-ayodele/kg-pipeline/internal/core/graph"
	"github.com/joseph-ayodele/kg-pipeline/internal/entity"
)

// NothingIndexedAnswer is returned by Answer before any document was indexed.
const NothingIndexedAnswer = "No documents have been indexed yet. Please process some PDFs first."

// DefaultTopK is the number of passages requested per question.
const DefaultTopK = 5

// Answer is a generated reply and the distinct source files behind it.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Orchestrator drives parsed documents into the graph index. It owns the
// index handle: the first Process opens it, Close releases it.
type Orchestrator struct {
	index  graph.Index
	schema graph.Schema
	topK   int
	logger *slog.Logger

	mu    sync.Mutex
	ready bool
	built bool

	inflight singleflight.Group
}

type Option func(*Orchestrator)

// WithTopK overrides the number of passages per question.
func WithTopK(k int) Option {
	return func(o *Orchestrator) {
		if k > 0 {
			o.topK = k
		}
	}
}

func New(index graph.Index, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		index: index,
		schema: graph.Schema{
			Entities:  constants.EntityKindStrings(),
			Relations: constants.RelationKindStrings(),
			Strict:    false,
		},
		topK:   DefaultTopK,
		logger: logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) ensureReady(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ready {
		return nil
	}
	if err := o.index.EnsureReady(ctx); err != nil {
		return err
	}
	o.ready = true
	return nil
}

// Process inserts doc into the graph index and returns the local summary
// bundle. At most one insertion per document id is in flight; a concurrent
// caller for the same id shares the outcome of the running one.
func (o *Orchestrator) Process(ctx context.Context, doc *entity.ParsedDocument) (entity.EntityBundle, error) {
	if doc == nil {
		return entity.EntityBundle{}, common.NewAppError("EXTRACTION_ERROR", "nil document", common.ErrExtraction)
	}
	start := time.Now()

	if err := o.ensureReady(ctx); err != nil {
		o.logger.Error("extraction.index.unavailable", "source_file", doc.SourceName, "error", err)
		return entity.EntityBundle{}, common.NewAppError("EXTRACTION_ERROR",
			"graph index unavailable", common.Tag(common.ErrExtraction, err))
	}

	_, err, shared := o.inflight.Do(doc.ID, func() (any, error) {
		return nil, o.index.Insert(ctx, graph.Document{
			ID:   doc.ID,
			Text: doc.Text,
			Metadata: graph.Metadata{
				SourceFile:     doc.SourceName,
				PageCount:      doc.PageCount,
				UsedPrimary:    doc.UsedPrimary,
				MathBlockCount: len(doc.MathBlocks),
			},
		}, o.schema)
	})
	if err != nil {
		o.logger.Error("extraction.insert.failed", "source_file", doc.SourceName, "error", err)
		return entity.EntityBundle{}, common.NewAppError("EXTRACTION_ERROR",
			"extract "+doc.SourceName, common.Tag(common.ErrExtraction, err))
	}

	o.mu.Lock()
	o.built = true
	o.mu.Unlock()

	bundle := SummarizeLocally(doc)
	concepts, strategies, problems := bundle.Counts()
	o.logger.Info("extraction.process.ok",
		"source_file", doc.SourceName,
		"shared", shared,
		"concepts", concepts,
		"strategies", strategies,
		"problems", problems,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return bundle, nil
}

// Answer runs a retrieval query. Before anything is indexed, including when
// the store cannot be loaded, it returns NothingIndexedAnswer and no sources.
func (o *Orchestrator) Answer(ctx context.Context, question string) (Answer, error) {
	o.mu.Lock()
	built := o.built
	o.mu.Unlock()

	if !built {
		if err := o.index.LoadExisting(ctx); err != nil {
			o.logger.Info("extraction.answer.nothing_indexed", "reason", err)
			return Answer{Answer: NothingIndexedAnswer, Sources: []string{}}, nil
		}
		o.mu.Lock()
		o.ready, o.built = true, true
		o.mu.Unlock()
	}

	res, err := o.index.Query(ctx, question, o.topK)
	if err != nil {
		if errors.Is(err, graph.ErrNoDocuments) {
			return Answer{Answer: NothingIndexedAnswer, Sources: []string{}}, nil
		}
		return Answer{}, common.NewAppError("EXTRACTION_ERROR", "query failed", common.Tag(common.ErrExtraction, err))
	}
	return Answer{Answer: res.Answer, Sources: dedupe(res.Sources)}, nil
}

// Close releases the index. Safe to call more than once.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ready, o.built = false, false
	return o.index.Close()
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
