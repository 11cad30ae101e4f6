package graph

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/kg-pipeline/internal/core/parser"
	"github.com/joseph-ayodele/kg-pipeline/internal/llm"
	"github.com/joseph-ayodele/kg-pipeline/internal/repository"
)

type fakeExtractor struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeExtractor) ExtractTriplets(_ context.Context, req llm.TripletRequest) ([]llm.Triplet, []byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, nil, f.err
	}
	out := []llm.Triplet{{
		Subject:  llm.EntityRef{Name: "Fractions", Type: "concept"},
		Relation: "solved with",
		Object:   llm.EntityRef{Name: "Bar model", Type: "Strategy"},
	}}
	if strings.Contains(req.Text, "ratio") {
		out = append(out, llm.Triplet{
			Subject:  llm.EntityRef{Name: "Ratio", Type: "Unit"},
			Relation: "compares",
			Object:   llm.EntityRef{Name: "Quantities"},
		})
	}
	return out, nil, nil
}

type fakeAnswerer struct {
	last llm.AnswerRequest
}

func (f *fakeAnswerer) Answer(_ context.Context, req llm.AnswerRequest) (string, error) {
	f.last = req
	return "answer", nil
}

// axisEmbedder maps texts mentioning "ratio" onto one axis and the rest onto another.
type axisEmbedder struct{}

func (axisEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if strings.Contains(strings.ToLower(t), "ratio") {
			out[i] = []float32{1, 0}
		} else {
			out[i] = []float32{0, 1}
		}
	}
	return out, nil
}

func newTestIndex(t *testing.T, ex llm.TripletExtractor, em llm.Embedder, an llm.Answerer) *PropertyGraphIndex {
	t.Helper()
	idx := NewPropertyGraphIndex(
		repository.Config{DSN: filepath.Join(t.TempDir(), "graph.db")},
		ex, em, an,
		Options{ChunkSize: 60, ChunkOverlap: 0},
		nil,
	)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func doc(id, source, text string) Document {
	return Document{ID: id, Text: text, Metadata: Metadata{SourceFile: source, PageCount: 1}}
}

var testSchema = Schema{Entities: []string{"Concept", "Strategy"}, Relations: []string{"SOLVED_BY"}}

func TestPropertyGraphIndex_LoadExistingEmpty(t *testing.T) {
	idx := newTestIndex(t, &fakeExtractor{}, nil, &fakeAnswerer{})
	err := idx.LoadExisting(context.Background())
	assert.ErrorIs(t, err, ErrNoDocuments)

	_, err = idx.Query(context.Background(), "anything", 5)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestPropertyGraphIndex_InsertAndQuery(t *testing.T) {
	ctx := context.Background()
	ex := &fakeExtractor{}
	an := &fakeAnswerer{}
	idx := newTestIndex(t, ex, nil, an)

	require.NoError(t, idx.Insert(ctx, doc("d1", "fractions.pdf",
		"Fractions can be compared with a bar model. Draw two bars of equal length."), testSchema))
	require.NoError(t, idx.Insert(ctx, doc("d2", "ratio.pdf", "A ratio compares two quantities."), testSchema))
	assert.Equal(t, 3, ex.calls)
	require.NoError(t, idx.LoadExisting(ctx))

	res, err := idx.Query(ctx, "How does a ratio compare quantities?", 1)
	require.NoError(t, err)
	assert.Equal(t, "answer", res.Answer)
	assert.Equal(t, []string{"ratio.pdf"}, res.Sources)
	assert.Contains(t, an.last.Facts, "Ratio COMPARES Quantities")
	assert.NotContains(t, an.last.Facts, "Fractions SOLVED_BY Bar model")
}

func TestPropertyGraphIndex_ReinsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, &fakeExtractor{}, nil, &fakeAnswerer{})

	d := doc("d1", "fractions.pdf", "Fractions can be compared with a bar model.")
	require.NoError(t, idx.Insert(ctx, d, testSchema))
	require.NoError(t, idx.Insert(ctx, d, testSchema))

	repo, err := idx.store(ctx)
	require.NoError(t, err)
	chunks, err := repo.ListChunks(ctx)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
	edges, err := repo.ListEdges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestPropertyGraphIndex_SameBytesDifferentFilesKeepProvenance(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, &fakeExtractor{}, nil, &fakeAnswerer{})

	text := "Fractions can be compared with a bar model."
	raw := []byte("%PDF-1.4 identical")
	for _, name := range []string{"unit1-fractions.pdf", "copy-for-class-5B.pdf"} {
		require.NoError(t, idx.Insert(ctx, doc(parser.DocumentID(name, raw), name, text), testSchema))
	}

	repo, err := idx.store(ctx)
	require.NoError(t, err)
	docs, err := repo.ListDocuments(ctx)
	require.NoError(t, err)
	sources := make([]string, 0, len(docs))
	for _, d := range docs {
		sources = append(sources, d.SourceFile)
	}
	assert.ElementsMatch(t, []string{"unit1-fractions.pdf", "copy-for-class-5B.pdf"}, sources)
}

func TestPropertyGraphIndex_StrictDropsUnknownLabels(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, &fakeExtractor{}, nil, &fakeAnswerer{})

	strict := testSchema
	strict.Strict = true
	require.NoError(t, idx.Insert(ctx, doc("d2", "ratio.pdf", "A ratio compares two quantities."), strict))

	repo, err := idx.store(ctx)
	require.NoError(t, err)
	edges, err := repo.ListEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "SOLVED_BY", edges[0].Relation)
	assert.Equal(t, "Concept:fractions", edges[0].SubjectID)
}

func TestPropertyGraphIndex_ExtractorFailure(t *testing.T) {
	idx := newTestIndex(t, &fakeExtractor{err: errors.New("llm down")}, nil, &fakeAnswerer{})
	err := idx.Insert(context.Background(), doc("d1", "a.pdf", "Some text."), testSchema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm down")

	assert.ErrorIs(t, idx.LoadExisting(context.Background()), ErrNoDocuments, "nothing written on failure")
}

func TestPropertyGraphIndex_EmbeddingRetrieval(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, &fakeExtractor{}, axisEmbedder{}, &fakeAnswerer{})

	require.NoError(t, idx.Insert(ctx, doc("d1", "fractions.pdf", "Fractions and bars."), testSchema))
	require.NoError(t, idx.Insert(ctx, doc("d2", "ratio.pdf", "Ratio lesson."), testSchema))

	res, err := idx.Query(ctx, "ratio", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"ratio.pdf"}, res.Sources)
}

func TestPropertyGraphIndex_CloseTwice(t *testing.T) {
	idx := newTestIndex(t, &fakeExtractor{}, nil, &fakeAnswerer{})
	require.NoError(t, idx.EnsureReady(context.Background()))
	assert.NoError(t, idx.Close())
	assert.NoError(t, idx.Close())
}
