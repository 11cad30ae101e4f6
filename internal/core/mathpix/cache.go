package mathpix

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Artifact is a rendered document kept on disk so a reprocessed file does
// not pay for a second conversion.
type Artifact struct {
	JobID     string    `msgpack:"job_id"`
	Markdown  string    `msgpack:"markdown"`
	CreatedAt time.Time `msgpack:"created_at"`
}

// Cache stores artifacts keyed by the hex sha256 of the PDF bytes.
type Cache interface {
	Get(key string) (Artifact, bool)
	Put(key string, a Artifact) error
}

// DirCache keeps one msgpack file per artifact under a directory.
type DirCache struct {
	dir string
}

func NewDirCache(dir string) (*DirCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &DirCache{dir: dir}, nil
}

func (d *DirCache) path(key string) string {
	return filepath.Join(d.dir, key+".mpk")
}

func (d *DirCache) Get(key string) (Artifact, bool) {
	raw, err := os.ReadFile(d.path(key))
	if err != nil {
		return Artifact{}, false
	}
	var a Artifact
	if err := msgpack.Unmarshal(raw, &a); err != nil {
		return Artifact{}, false
	}
	return a, true
}

// Put writes through a temp file so readers never observe a partial artifact.
func (d *DirCache) Put(key string, a Artifact) error {
	raw, err := msgpack.Marshal(&a)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	tmp, err := os.CreateTemp(d.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), d.path(key))
}
