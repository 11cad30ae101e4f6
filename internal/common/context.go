package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRunID      contextKey = "run_id"
	ContextKeySourceFile contextKey = "source_file"
)

// WithRunID adds a pipeline run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// RunIDFromContext extracts the run ID from context
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(ContextKeyRunID).(string); ok {
		return runID
	}
	return ""
}

// WithSourceFile records the document currently being processed.
func WithSourceFile(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ContextKeySourceFile, name)
}

// SourceFileFromContext extracts the source file name from context
func SourceFileFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(ContextKeySourceFile).(string); ok {
		return name
	}
	return ""
}
