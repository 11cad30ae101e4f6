package repository

import (
	"context"
	"strings"
	"testing"

	"entgo.io/ent/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_RunsTwice(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Migrate(context.Background()))

	var n int
	row := db.Driver().DB().QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('documents', 'chunks', 'nodes', 'edges')")
	require.NoError(t, row.Scan(&n))
	assert.Equal(t, 4, n)
}

func TestSchemaStatements_EmbeddingType(t *testing.T) {
	sqlite := strings.Join(schemaStatements(dialect.SQLite), "\n")
	pg := strings.Join(schemaStatements(dialect.Postgres), "\n")

	assert.Contains(t, sqlite, "embedding BLOB")
	assert.NotContains(t, sqlite, "BYTEA")
	assert.Contains(t, pg, "embedding BYTEA")
	assert.NotContains(t, pg, "BLOB")
}
