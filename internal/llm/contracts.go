package llm

import "context"

// EntityRef names one end of a triplet.
type EntityRef struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Triplet is a single (subject, relation, object) fact extracted from text.
type Triplet struct {
	Subject  EntityRef `json:"subject"`
	Relation string    `json:"relation"`
	Object   EntityRef `json:"object"`
}

// TripletRequest describes one chunk of a document to extract from.
type TripletRequest struct {
	Text          string
	SourceFile    string
	EntityKinds   []string
	RelationKinds []string
	Strict        bool // when true, labels outside the kinds are rejected by the schema
	MaxTriplets   int
}

// TripletExtractor is the graph extraction collaborator.
type TripletExtractor interface {
	ExtractTriplets(ctx context.Context, req TripletRequest) ([]Triplet, []byte /*rawJSON*/, error)
}

// ContextChunk is a retrieved passage handed to the answerer.
type ContextChunk struct {
	SourceFile string
	Text       string
}

// AnswerRequest packages a question with retrieved passages and graph facts.
type AnswerRequest struct {
	Question string
	Contexts []ContextChunk
	Facts    []string
}

// Answerer produces a grounded natural-language answer.
type Answerer interface {
	Answer(ctx context.Context, req AnswerRequest) (string, error)
}

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
