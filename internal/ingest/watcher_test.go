package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_InitialScanAndNewFiles(t *testing.T) {
	inbox := t.TempDir()
	existing := filepath.Join(inbox, "existing.pdf")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := Watch(ctx, WatchConfig{Inbox: inbox, InitialScan: true, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	select {
	case p := <-events:
		assert.Equal(t, existing, p)
	case <-time.After(2 * time.Second):
		t.Fatal("initial scan not emitted")
	}

	require.NoError(t, os.WriteFile(filepath.Join(inbox, "ignored.txt"), []byte("x"), 0o644))
	added := filepath.Join(inbox, "new.pdf")
	require.NoError(t, os.WriteFile(added, []byte("x"), 0o644))

	select {
	case p := <-events:
		assert.Equal(t, added, p)
	case <-time.After(2 * time.Second):
		t.Fatal("new file not emitted")
	}

	cancel()
	for range events {
	}
}

func TestWatch_RequiresInbox(t *testing.T) {
	_, _, err := Watch(context.Background(), WatchConfig{})
	assert.Error(t, err)
}
