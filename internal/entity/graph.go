package entity

import "time"

// GraphDocument is the persisted record of one indexed document.
type GraphDocument struct {
	ID          string    `json:"id"`
	SourceFile  string    `json:"source_file"`
	PageCount   int       `json:"page_count"`
	UsedPrimary bool      `json:"used_primary"`
	MathBlocks  int       `json:"math_blocks"`
	ChunkCount  int       `json:"chunk_count"`
	IndexedAt   time.Time `json:"indexed_at"`
}

// Chunk is a retrievable slice of a document's text.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Seq        int       `json:"seq"`
	SourceFile string    `json:"source_file"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"-"`
}

// Node is a graph entity. Nodes are shared across documents.
type Node struct {
	ID    string `json:"id"` // label:lowercased name
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Edge is a relation extracted from one chunk.
type Edge struct {
	ID          string `json:"id"`
	DocumentID  string `json:"document_id"`
	ChunkID     string `json:"chunk_id"`
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	Relation    string `json:"relation"`
	ObjectID    string `json:"object_id"`
	ObjectName  string `json:"object_name"`
}

// Fact renders the edge as a single line for prompts.
func (e Edge) Fact() string {
	return e.SubjectName + " " + e.Relation + " " + e.ObjectName
}
