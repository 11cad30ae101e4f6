package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/kg-pipeline/constants"
	"github.com/joseph-ayodele/kg-pipeline/internal/common"
	"github.com/joseph-ayodele/kg-pipeline/internal/entity"
	"github.com/joseph-ayodele/kg-pipeline/internal/llm"
	"github.com/joseph-ayodele/kg-pipeline/internal/repository"
)

const maxFacts = 20

// Options tunes chunking and extraction fan-out.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	Workers      int
	Now          func() time.Time
}

// PropertyGraphIndex stores documents as chunks plus a labeled property graph
// extracted from them, and answers questions by retrieval over both.
type PropertyGraphIndex struct {
	cfg       repository.Config
	extractor llm.TripletExtractor
	embedder  llm.Embedder
	answerer  llm.Answerer
	splitter  SentenceSplitter
	workers   int
	now       func() time.Time
	logger    *slog.Logger

	mu   sync.Mutex
	db   *repository.DB
	repo repository.GraphRepository
}

// NewPropertyGraphIndex wires the collaborators. embedder may be nil, in which
// case retrieval falls back to term overlap.
func NewPropertyGraphIndex(cfg repository.Config, extractor llm.TripletExtractor, embedder llm.Embedder, answerer llm.Answerer, opts Options, logger *slog.Logger) *PropertyGraphIndex {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &PropertyGraphIndex{
		cfg:       cfg,
		extractor: extractor,
		embedder:  embedder,
		answerer:  answerer,
		splitter:  SentenceSplitter{ChunkSize: opts.ChunkSize, Overlap: opts.ChunkOverlap},
		workers:   opts.Workers,
		now:       opts.Now,
		logger:    logger,
	}
}

// EnsureReady opens the store and creates the schema on first use.
func (p *PropertyGraphIndex) EnsureReady(ctx context.Context) error {
	_, err := p.store(ctx)
	return err
}

func (p *PropertyGraphIndex) store(ctx context.Context) (repository.GraphRepository, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.repo != nil {
		return p.repo, nil
	}

	db, err := repository.Open(ctx, p.cfg, p.logger)
	if err != nil {
		return nil, common.Tag(common.ErrDatabase, fmt.Errorf("open graph store: %w", err))
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, common.Tag(common.ErrDatabase, err)
	}
	p.db = db
	p.repo = repository.NewGraphRepository(db, p.logger)
	p.logger.Info("graph.index.ready", "postgres", repository.IsPostgres(p.cfg.DSN))
	return p.repo, nil
}

// Close releases the store. It is safe to call more than once.
func (p *PropertyGraphIndex) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db, p.repo = nil, nil
	return err
}

// Insert chunks the document, extracts triplets per chunk, and replaces any
// earlier version of the same document in the store.
func (p *PropertyGraphIndex) Insert(ctx context.Context, doc Document, schema Schema) error {
	repo, err := p.store(ctx)
	if err != nil {
		return err
	}
	start := p.now()

	texts := p.splitter.Split(doc.Text)
	chunks := make([]entity.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = entity.Chunk{
			ID:         uuid.NewSHA1(uuid.NameSpaceOID, []byte(doc.ID+":"+strconv.Itoa(i))).String(),
			DocumentID: doc.ID,
			Seq:        i,
			SourceFile: doc.Metadata.SourceFile,
			Text:       t,
		}
	}

	perChunk := make([][]llm.Triplet, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range chunks {
		i := i
		g.Go(func() error {
			triplets, _, err := p.extractor.ExtractTriplets(gctx, llm.TripletRequest{
				Text:          chunks[i].Text,
				SourceFile:    doc.Metadata.SourceFile,
				EntityKinds:   schema.Entities,
				RelationKinds: schema.Relations,
				Strict:        schema.Strict,
			})
			if err != nil {
				return fmt.Errorf("extract chunk %d: %w", i, err)
			}
			perChunk[i] = triplets
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if p.embedder != nil && len(texts) > 0 {
		vecs, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}
		for i := range chunks {
			if i < len(vecs) {
				chunks[i].Embedding = vecs[i]
			}
		}
	}

	nodes, edges := buildGraph(doc.ID, chunks, perChunk, schema.Strict)
	record := entity.GraphDocument{
		ID:          doc.ID,
		SourceFile:  doc.Metadata.SourceFile,
		PageCount:   doc.Metadata.PageCount,
		UsedPrimary: doc.Metadata.UsedPrimary,
		MathBlocks:  doc.Metadata.MathBlockCount,
		ChunkCount:  len(chunks),
		IndexedAt:   p.now().UTC(),
	}
	if err := repo.ReplaceDocument(ctx, record, chunks, nodes, edges); err != nil {
		return err
	}

	p.logger.Info("graph.insert.ok",
		"document_id", doc.ID,
		"source_file", doc.Metadata.SourceFile,
		"chunks", len(chunks),
		"nodes", len(nodes),
		"edges", len(edges),
		"elapsed_ms", p.now().Sub(start).Milliseconds(),
	)
	return nil
}

// LoadExisting opens the store and fails with ErrNoDocuments when it is empty.
func (p *PropertyGraphIndex) LoadExisting(ctx context.Context) error {
	repo, err := p.store(ctx)
	if err != nil {
		return err
	}
	n, err := repo.CountDocuments(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoDocuments
	}
	p.logger.Info("graph.index.loaded", "documents", n)
	return nil
}

// Query retrieves the topK best chunks and the graph facts whose endpoints
// are named in the question, then asks the answerer.
func (p *PropertyGraphIndex) Query(ctx context.Context, question string, topK int) (QueryResult, error) {
	repo, err := p.store(ctx)
	if err != nil {
		return QueryResult{}, err
	}
	chunks, err := repo.ListChunks(ctx)
	if err != nil {
		return QueryResult{}, err
	}
	if len(chunks) == 0 {
		return QueryResult{}, ErrNoDocuments
	}

	scores, err := p.score(ctx, question, chunks)
	if err != nil {
		return QueryResult{}, err
	}
	best := rankTop(scores, topK)

	req := llm.AnswerRequest{Question: question}
	sources := make([]string, 0, len(best))
	for _, i := range best {
		req.Contexts = append(req.Contexts, llm.ContextChunk{SourceFile: chunks[i].SourceFile, Text: chunks[i].Text})
		sources = append(sources, chunks[i].SourceFile)
	}

	edges, err := repo.ListEdges(ctx)
	if err != nil {
		return QueryResult{}, err
	}
	req.Facts = factsFor(question, edges)

	answer, err := p.answerer.Answer(ctx, req)
	if err != nil {
		return QueryResult{}, fmt.Errorf("answer: %w", err)
	}
	p.logger.Info("graph.query.ok", "contexts", len(req.Contexts), "facts", len(req.Facts))
	return QueryResult{Answer: answer, Sources: sources}, nil
}

func (p *PropertyGraphIndex) score(ctx context.Context, question string, chunks []entity.Chunk) ([]float64, error) {
	scores := make([]float64, len(chunks))

	embedded := false
	for _, c := range chunks {
		if len(c.Embedding) > 0 {
			embedded = true
			break
		}
	}
	if p.embedder != nil && embedded {
		vecs, err := p.embedder.Embed(ctx, []string{question})
		if err != nil {
			return nil, fmt.Errorf("embed question: %w", err)
		}
		if len(vecs) != 1 {
			return nil, errors.New("embed question: no vector returned")
		}
		for i, c := range chunks {
			scores[i] = cosine(vecs[0], c.Embedding)
		}
		return scores, nil
	}

	q := terms(question)
	for i, c := range chunks {
		scores[i] = termOverlap(q, c.Text)
	}
	return scores, nil
}

func nodeFor(ref llm.EntityRef, strict bool) (entity.Node, bool) {
	name := strings.TrimSpace(ref.Name)
	if name == "" {
		return entity.Node{}, false
	}
	kind, known := constants.CanonicalEntity(ref.Type)
	if strict && !known {
		return entity.Node{}, false
	}
	return entity.Node{
		ID:    string(kind) + ":" + strings.ToLower(name),
		Name:  name,
		Label: string(kind),
	}, true
}

func buildGraph(docID string, chunks []entity.Chunk, perChunk [][]llm.Triplet, strict bool) ([]entity.Node, []entity.Edge) {
	var (
		nodes     []entity.Node
		edges     []entity.Edge
		seenNode  = map[string]struct{}{}
		seenEdges = map[string]struct{}{}
	)
	addNode := func(n entity.Node) {
		if _, ok := seenNode[n.ID]; !ok {
			seenNode[n.ID] = struct{}{}
			nodes = append(nodes, n)
		}
	}

	for i, triplets := range perChunk {
		for _, t := range triplets {
			subj, ok := nodeFor(t.Subject, strict)
			if !ok {
				continue
			}
			obj, ok := nodeFor(t.Object, strict)
			if !ok {
				continue
			}
			rel, known := constants.CanonicalRelation(t.Relation)
			if rel == "" || (strict && !known) {
				continue
			}

			id := uuid.NewSHA1(uuid.NameSpaceOID,
				[]byte(chunks[i].ID+"|"+subj.ID+"|"+string(rel)+"|"+obj.ID)).String()
			if _, dup := seenEdges[id]; dup {
				continue
			}
			seenEdges[id] = struct{}{}
			addNode(subj)
			addNode(obj)
			edges = append(edges, entity.Edge{
				ID:          id,
				DocumentID:  docID,
				ChunkID:     chunks[i].ID,
				SubjectID:   subj.ID,
				SubjectName: subj.Name,
				Relation:    string(rel),
				ObjectID:    obj.ID,
				ObjectName:  obj.Name,
			})
		}
	}
	return nodes, edges
}

// factsFor returns edges whose subject or object name occurs in the question.
func factsFor(question string, edges []entity.Edge) []string {
	q := strings.ToLower(question)
	var out []string
	seen := map[string]struct{}{}
	for _, e := range edges {
		if !mentions(q, e.SubjectName) && !mentions(q, e.ObjectName) {
			continue
		}
		f := e.Fact()
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
		if len(out) == maxFacts {
			break
		}
	}
	return out
}

func mentions(lowerQuestion, name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	return len(name) >= 3 && strings.Contains(lowerQuestion, name)
}
