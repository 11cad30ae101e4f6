package graph

import (
	"context"
	"errors"
)

// ErrNoDocuments is returned by LoadExisting and Query when the store is empty.
var ErrNoDocuments = errors.New("graph: no documents indexed")

// Metadata travels with a document into the store.
type Metadata struct {
	SourceFile     string `json:"source_file"`
	PageCount      int    `json:"page_count"`
	UsedPrimary    bool   `json:"used_mathpix"`
	MathBlockCount int    `json:"latex_block_count"`
}

// Document is one unit of work for the index.
type Document struct {
	ID       string
	Text     string
	Metadata Metadata
}

// Schema lists the entity and relation labels offered to the extractor.
// When Strict is false, labels outside the lists are kept.
type Schema struct {
	Entities  []string
	Relations []string
	Strict    bool
}

// QueryResult is a generated answer and the source files of the passages used.
type QueryResult struct {
	Answer  string
	Sources []string
}

// Index is the graph persistence collaborator. Implementations open their
// backing store lazily in EnsureReady and release it in Close.
type Index interface {
	EnsureReady(ctx context.Context) error
	Insert(ctx context.Context, doc Document, schema Schema) error
	LoadExisting(ctx context.Context) error
	Query(ctx context.Context, question string, topK int) (QueryResult, error)
	Close() error
}
