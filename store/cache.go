package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileCache persists the last delivered snapshot of each collection to disk
// so the service can keep serving stale reads when the backing store is
// unreachable. It is a best-effort offline cache, not a durable outbox:
// queued writes are not replayed from it.
type FileCache struct {
	dir string
}

func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache dir: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

// Store writes the snapshot for a collection. A nil snapshot clears the
// cached file.
func (c *FileCache) Store(collection string, snapshot json.RawMessage) error {
	path := c.path(collection)
	if snapshot == nil {
		err := os.Remove(path)
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, snapshot, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load returns the cached snapshot for a collection, nil when none exists.
func (c *FileCache) Load(collection string) (json.RawMessage, error) {
	raw, err := os.ReadFile(c.path(collection))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *FileCache) path(collection string) string {
	return filepath.Join(c.dir, collection+".json")
}
