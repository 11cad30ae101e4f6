package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats_CountsDocumentsPerDirectory(t *testing.T) {
	m := newTestManager(t)
	a := touch(t, m.Dirs().Inbox, "a.pdf")
	touch(t, m.Dirs().Inbox, "b.pdf")
	touch(t, m.Dirs().Inbox, "readme.txt")
	bad := touch(t, m.Dirs().Inbox, "bad.pdf")

	_, err := m.CommitSuccess(a)
	require.NoError(t, err)
	_, err = m.CommitFailure(context.Background(), bad, "boom")
	require.NoError(t, err)

	stats, err := m.Stats()
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, "Inbox", stats[0].Name)
	assert.Equal(t, 1, stats[0].Files)
	assert.EqualValues(t, len("%PDF-1.4"), stats[0].Bytes)
	assert.Equal(t, 1, stats[1].Files)
	// logs.txt is not a document
	assert.Equal(t, 1, stats[2].Files)
}

func TestStats_MissingDirectoriesAreEmpty(t *testing.T) {
	root := t.TempDir()
	m := NewManager(Dirs{
		Inbox:   filepath.Join(root, "in"),
		Archive: filepath.Join(root, "arch"),
		Error:   filepath.Join(root, "err"),
	}, nil)

	stats, err := m.Stats()
	require.NoError(t, err)
	for _, s := range stats {
		assert.Zero(t, s.Files)
	}
	_, statErr := os.Stat(filepath.Join(root, "in"))
	assert.True(t, os.IsNotExist(statErr), "Stats never creates directories")
}
