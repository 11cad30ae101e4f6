package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/joseph-ayodele/kg-pipeline/constants"
	"github.com/joseph-ayodele/kg-pipeline/internal/common"
)

// Dirs are the three sibling locations of the file state machine.
type Dirs struct {
	Inbox   string
	Archive string
	Error   string
}

// Manager moves inbox files to their terminal directory. A move is a single
// rename and is never undone.
type Manager struct {
	dirs   Dirs
	now    func() time.Time
	logger *slog.Logger

	logMu sync.Mutex // serializes failure log appends
}

type Option func(*Manager)

// WithClock replaces time.Now for move prefixes and log records.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(dirs Dirs, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{dirs: dirs, now: time.Now, logger: logger}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) Dirs() Dirs { return m.dirs }

// EnsureDirectories creates the inbox, archive and error directories if absent.
func (m *Manager) EnsureDirectories() error {
	for _, d := range []string{m.dirs.Inbox, m.dirs.Archive, m.dirs.Error} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	return nil
}

// ListPending returns the documents directly inside the inbox, sorted by name.
// Subdirectories, hidden files and other extensions are ignored.
func (m *Manager) ListPending() ([]string, error) {
	entries, err := os.ReadDir(m.dirs.Inbox)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read inbox: %w", err)
	}

	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !isCandidate(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(m.dirs.Inbox, e.Name()))
	}
	sort.Strings(out)
	m.logger.Debug("lifecycle.pending", "count", len(out), "state", constants.FileStatePending)
	return out, nil
}

// CommitSuccess moves path to the archive directory under a timestamped name.
func (m *Manager) CommitSuccess(path string) (string, error) {
	dest, err := m.move(path, m.dirs.Archive)
	if err != nil {
		m.logger.Error("lifecycle.archive.failed", "path", path, "error", err)
		return "", err
	}
	m.logger.Info("lifecycle.archived", "path", path, "dest", dest, "state", constants.FileStateArchived)
	return dest, nil
}

// CommitFailure moves path to the error directory and appends a record to
// the shared failure log. The record is written even when the move fails;
// both errors are returned joined.
func (m *Manager) CommitFailure(ctx context.Context, path, reason string) (string, error) {
	dest, moveErr := m.move(path, m.dirs.Error)

	m.logMu.Lock()
	logErr := appendFailure(filepath.Join(m.dirs.Error, constants.ErrorLogName), failureRecord{
		File:  filepath.Base(path),
		Time:  m.now(),
		RunID: common.RunIDFromContext(ctx),
		Error: reason,
	})
	m.logMu.Unlock()

	if err := errors.Join(moveErr, logErr); err != nil {
		m.logger.Error("lifecycle.error_commit.failed", "path", path, "error", err)
		return dest, err
	}
	m.logger.Info("lifecycle.errored", "path", path, "dest", dest, "state", constants.FileStateErrored)
	return dest, nil
}

func (m *Manager) move(path, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	name := m.now().Format(constants.MoveTimestampLayout) + "_" + filepath.Base(path)
	dest := filepath.Join(dir, name)

	if _, err := os.Lstat(dest); err == nil {
		return "", common.Tag(common.ErrDestinationExists, errors.New(dest))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat %s: %w", dest, err)
	}

	if err := os.Rename(path, dest); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", common.Tag(common.ErrNotFound, err)
		}
		return "", fmt.Errorf("move %s: %w", path, err)
	}
	return dest, nil
}
