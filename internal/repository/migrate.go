package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

const (
	tableDocuments = "documents"
	tableChunks    = "chunks"
	tableNodes     = "nodes"
	tableEdges     = "edges"
)

// schemaStatements returns the DDL for the graph tables. Only the embedding
// column type differs between dialects.
func schemaStatements(dialectName string) []string {
	blob := "BLOB"
	if dialectName == dialect.Postgres {
		blob = "BYTEA"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + tableDocuments + ` (
	id TEXT NOT NULL PRIMARY KEY,
	source_file TEXT NOT NULL,
	page_count INTEGER NOT NULL DEFAULT 0,
	used_primary BOOLEAN NOT NULL DEFAULT FALSE,
	math_blocks INTEGER NOT NULL DEFAULT 0,
	chunk_count INTEGER NOT NULL DEFAULT 0,
	indexed_at TEXT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS ` + tableChunks + ` (
	id TEXT NOT NULL PRIMARY KEY,
	document_id TEXT NOT NULL,
	seq INTEGER NOT NULL DEFAULT 0,
	source_file TEXT NOT NULL,
	text TEXT NOT NULL,
	embedding ` + blob + `
)`,
		`CREATE TABLE IF NOT EXISTS ` + tableNodes + ` (
	id TEXT NOT NULL PRIMARY KEY,
	name TEXT NOT NULL,
	label TEXT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS ` + tableEdges + ` (
	id TEXT NOT NULL PRIMARY KEY,
	document_id TEXT NOT NULL,
	chunk_id TEXT NOT NULL,
	subject_id TEXT NOT NULL,
	subject_name TEXT NOT NULL,
	relation TEXT NOT NULL,
	object_id TEXT NOT NULL,
	object_name TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS chunks_document_id ON ` + tableChunks + ` (document_id)`,
		`CREATE INDEX IF NOT EXISTS edges_document_id ON ` + tableEdges + ` (document_id)`,
		`CREATE INDEX IF NOT EXISTS nodes_label ON ` + tableNodes + ` (label)`,
	}
}

// Migrate creates the graph tables and indexes when they are missing.
func (d *DB) Migrate(ctx context.Context) error {
	for _, query := range schemaStatements(d.Dialect()) {
		if err := d.drv.Exec(ctx, query, []any{}, nil); err != nil {
			d.logger.Error("migration failed", "query", query, "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	d.logger.Info("database schema ready", "dialect", d.Dialect())
	return nil
}
