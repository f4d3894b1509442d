package cache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/woofnb/woofnb/internal/model"
	"github.com/woofnb/woofnb/internal/woofterr"
)

// Store persists CacheEntry values under Dir/<cell-id>.json, one file
// per cell, using the teacher's write-to-temp-then-rename pattern
// (internal/core.writeFileAtomic) so a crash mid-write never leaves a
// corrupt entry at the canonical path.
type Store struct {
	Dir string
}

// NewStore returns a Store rooted at dir (typically
// `.woof-cache/<notebook-stem>`).
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) entryPath(cellID string) string {
	return filepath.Join(s.Dir, cellID+".json")
}

// Lookup returns the stored entry for cellID if its Key matches the
// caller's freshly computed key. A key mismatch is reported as a plain
// miss (found=false), not an error: it means the cell's content changed
// since the entry was written.
func (s *Store) Lookup(key, cellID string) (*model.CacheEntry, bool, error) {
	data, err := os.ReadFile(s.entryPath(cellID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, woofterr.Wrap(woofterr.KindCacheIOError, err, "reading cache entry for "+cellID)
	}

	var entry model.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, woofterr.Wrap(woofterr.KindCacheCorrupt, err, "parsing cache entry for "+cellID)
	}
	if entry.Key != key {
		return nil, false, nil
	}
	return &entry, true, nil
}

// Store writes entry atomically, creating Dir if needed.
func (s *Store) Store(entry model.CacheEntry) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return woofterr.Wrap(woofterr.KindCacheIOError, err, "creating cache directory")
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return woofterr.Wrap(woofterr.KindCacheIOError, err, "encoding cache entry")
	}
	if err := writeFileAtomic(s.entryPath(entry.CellID), data, 0o644); err != nil {
		return woofterr.Wrap(woofterr.KindCacheIOError, err, "writing cache entry for "+entry.CellID)
	}
	return nil
}

// Clean removes every cache entry file under Dir and returns the count
// removed. A missing Dir is not an error.
func (s *Store) Clean() (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, woofterr.Wrap(woofterr.KindCacheIOError, err, "reading cache directory")
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, e.Name())); err == nil {
			n++
		}
	}
	return n, nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	_ = tmp.Sync()
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
