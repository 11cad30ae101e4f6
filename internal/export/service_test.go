package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/kg-pipeline/internal/entity"
)

type fakeGraph struct {
	docs  []entity.GraphDocument
	nodes []entity.Node
	edges []entity.Edge
	err   error
}

func (f *fakeGraph) ListDocuments(context.Context) ([]entity.GraphDocument, error) {
	return f.docs, f.err
}
func (f *fakeGraph) ListNodes(context.Context) ([]entity.Node, error) { return f.nodes, nil }
func (f *fakeGraph) ListEdges(context.Context) ([]entity.Edge, error) { return f.edges, nil }

func TestExportGraphXLSX(t *testing.T) {
	g := &fakeGraph{
		docs: []entity.GraphDocument{{
			ID: "doc-1", SourceFile: "ratios.pdf", PageCount: 3, UsedPrimary: true, MathBlocks: 2, ChunkCount: 4,
			IndexedAt: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
		}},
		nodes: []entity.Node{
			{ID: "concept:ratio", Name: "Ratio", Label: "CONCEPT"},
			{ID: "strategy:bar model", Name: "Bar Model", Label: "STRATEGY"},
		},
		edges: []entity.Edge{{
			ID: "e1", DocumentID: "doc-1", ChunkID: "c1",
			SubjectID: "strategy:bar model", SubjectName: "Bar Model",
			Relation: "APPLIES_TO", ObjectID: "concept:ratio", ObjectName: "Ratio",
		}},
	}

	raw, err := NewService(g, nil).ExportGraphXLSX(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetDocuments, SheetNodes, SheetEdges}, f.GetSheetList())

	docRows, err := f.GetRows(SheetDocuments)
	require.NoError(t, err)
	require.Len(t, docRows, 2)
	assert.Equal(t, "Source File", docRows[0][0])
	assert.Equal(t, "ratios.pdf", docRows[1][0])
	assert.Equal(t, "2026-10-17T09:00:00Z", docRows[1][5])

	nodeRows, err := f.GetRows(SheetNodes)
	require.NoError(t, err)
	require.Len(t, nodeRows, 3)
	assert.Equal(t, []string{"STRATEGY", "Bar Model", "strategy:bar model"}, nodeRows[2])

	edgeRows, err := f.GetRows(SheetEdges)
	require.NoError(t, err)
	require.Len(t, edgeRows, 2)
	assert.Equal(t, []string{"Bar Model", "APPLIES_TO", "Ratio", "ratios.pdf", "c1"}, edgeRows[1])
}

func TestExportGraphXLSX_EmptyGraphHasHeadersOnly(t *testing.T) {
	raw, err := NewService(&fakeGraph{}, nil).ExportGraphXLSX(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetEdges)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestExportGraphXLSX_QueryError(t *testing.T) {
	_, err := NewService(&fakeGraph{err: errors.New("db gone")}, nil).ExportGraphXLSX(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query documents")
}
