// Package cacheindex maintains a derived, rebuildable sqlite index over
// the cache directory's `<cell-id>.json` entries (SPEC_FULL.md §4.13).
// It exists purely to answer "what's cached, and how big is it"
// queries faster than a directory walk for notebooks with many cells;
// it is never the source of truth — internal/cache's files are — and
// Rebuild must always be able to reconstruct it from nothing.
//
// Grounded on internal/cache.Store for the on-disk entry shape it
// indexes; modernc.org/sqlite is the pack's pure-Go sqlite driver, used
// here instead of a cgo one so the binary keeps its static-link
// simplicity.
package cacheindex

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/woofnb/woofnb/internal/model"
	"github.com/woofnb/woofnb/internal/woofterr"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	cell_id        TEXT PRIMARY KEY,
	key             TEXT NOT NULL,
	exit_code       INTEGER NOT NULL,
	elapsed_ms      INTEGER NOT NULL,
	runner_version  TEXT NOT NULL,
	size_bytes      INTEGER NOT NULL
);
`

// Index is a handle on the derived sqlite index for one cache directory.
type Index struct {
	db *sql.DB
}

// Open opens (creating if absent) the index database at
// filepath.Join(cacheDir, "index.sqlite") and ensures its schema exists.
func Open(cacheDir string) (*Index, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, woofterr.Wrap(woofterr.KindCacheIOError, err, "creating cache directory")
	}
	path := filepath.Join(cacheDir, "index.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, woofterr.Wrap(woofterr.KindCacheIOError, err, "opening cache index")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, woofterr.Wrap(woofterr.KindCacheIOError, err, "initializing cache index schema")
	}
	return &Index{db: db}, nil
}

// Close releases the underlying database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Upsert records or replaces one cell's index row.
func (idx *Index) Upsert(entry model.CacheEntry, sizeBytes int64) error {
	_, err := idx.db.Exec(
		`INSERT INTO cache_entries (cell_id, key, exit_code, elapsed_ms, runner_version, size_bytes)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(cell_id) DO UPDATE SET
			key=excluded.key,
			exit_code=excluded.exit_code,
			elapsed_ms=excluded.elapsed_ms,
			runner_version=excluded.runner_version,
			size_bytes=excluded.size_bytes`,
		entry.CellID, entry.Key, entry.ExitCode, entry.ElapsedMS, entry.RunnerVersion, sizeBytes,
	)
	if err != nil {
		return woofterr.Wrap(woofterr.KindCacheIOError, err, "upserting cache index row for "+entry.CellID)
	}
	return nil
}

// Row is one indexed cache entry's summary.
type Row struct {
	CellID        string
	Key           string
	ExitCode      int
	ElapsedMS     int64
	RunnerVersion string
	SizeBytes     int64
}

// List returns every indexed row, ordered by cell ID.
func (idx *Index) List() ([]Row, error) {
	rows, err := idx.db.Query(`SELECT cell_id, key, exit_code, elapsed_ms, runner_version, size_bytes FROM cache_entries ORDER BY cell_id`)
	if err != nil {
		return nil, woofterr.Wrap(woofterr.KindCacheIOError, err, "listing cache index")
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.CellID, &r.Key, &r.ExitCode, &r.ElapsedMS, &r.RunnerVersion, &r.SizeBytes); err != nil {
			return nil, woofterr.Wrap(woofterr.KindCacheIOError, err, "scanning cache index row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Rebuild truncates the index and repopulates it by scanning cacheDir
// for `<cell-id>.json` entry files, reconstructing every row from the
// on-disk cache files rather than trusting prior index state.
func Rebuild(cacheDir string) (*Index, error) {
	idx, err := Open(cacheDir)
	if err != nil {
		return nil, err
	}
	if _, err := idx.db.Exec(`DELETE FROM cache_entries`); err != nil {
		idx.Close()
		return nil, woofterr.Wrap(woofterr.KindCacheIOError, err, "truncating cache index")
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		idx.Close()
		return nil, woofterr.Wrap(woofterr.KindCacheIOError, err, "reading cache directory")
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(cacheDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var entry model.CacheEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if err := idx.Upsert(entry, info.Size()); err != nil {
			idx.Close()
			return nil, err
		}
	}
	return idx, nil
}

// Remove deletes a cell's row, e.g. after internal/cache.Store.Clean.
func (idx *Index) Remove(cellID string) error {
	_, err := idx.db.Exec(`DELETE FROM cache_entries WHERE cell_id = ?`, cellID)
	if err != nil {
		return fmt.Errorf("cacheindex: removing row for %s: %w", cellID, err)
	}
	return nil
}
