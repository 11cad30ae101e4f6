package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// DirStat counts the documents directly inside one lifecycle directory.
type DirStat struct {
	Name  string
	Path  string
	Files int
	Bytes int64
}

// Stats reports the inbox, archive and error directories in that order.
// A missing directory counts as empty.
func (m *Manager) Stats() ([]DirStat, error) {
	out := []DirStat{
		{Name: "Inbox", Path: m.dirs.Inbox},
		{Name: "Archive", Path: m.dirs.Archive},
		{Name: "Error", Path: m.dirs.Error},
	}
	for i := range out {
		entries, err := os.ReadDir(out[i].Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", out[i].Path, err)
		}
		for _, e := range entries {
			if !e.Type().IsRegular() || !isCandidate(e.Name()) {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue // removed between ReadDir and Info
			}
			out[i].Files++
			out[i].Bytes += info.Size()
		}
	}
	return out, nil
}
