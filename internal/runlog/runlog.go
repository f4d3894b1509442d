// Package runlog persists a per-invocation run manifest to
// `.woof-cache/<stem>/runs/<run-id>.json` (spec.md §10): the roll-up
// telemetry record a CI system would poll after `woof run` exits,
// distinct from the sidecar's per-cell JSON-Lines stream in
// internal/sidecar. Run IDs come from github.com/google/uuid so
// concurrent invocations against the same notebook never collide.
//
// Grounded on internal/cache.Store's atomic-write idiom: a run manifest
// is written once, at the end of a run, so the same
// temp-file-then-rename approach applies unchanged.
package runlog

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/woofnb/woofnb/internal/runner"
	"github.com/woofnb/woofnb/internal/woofterr"
)

// CellSummary is one cell's contribution to a run manifest.
type CellSummary struct {
	CellID    string           `json:"cell_id"`
	State     runner.CellState `json:"state"`
	Attempts  int              `json:"attempts"`
	ElapsedMS int64            `json:"elapsed_ms"`
	CacheHit  bool             `json:"cache_hit"`
}

// Manifest is the full record of one `woof run` invocation.
type Manifest struct {
	RunID         string        `json:"run_id"`
	NotebookPath  string        `json:"notebook_path"`
	RunnerVersion string        `json:"runner_version"`
	Cells         []CellSummary `json:"cells"`
	ExitCode      int           `json:"exit_code"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Dir returns the runs directory for a cache root, e.g.
// ".woof-cache/mynotebook/runs".
func Dir(cacheRoot string) string {
	return filepath.Join(cacheRoot, "runs")
}

// Write persists m to Dir(cacheRoot)/<m.RunID>.json, creating the
// directory if needed.
func Write(cacheRoot string, m Manifest) error {
	dir := Dir(cacheRoot)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return woofterr.Wrap(woofterr.KindCacheIOError, err, "creating run log directory")
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return woofterr.Wrap(woofterr.KindCacheIOError, err, "encoding run manifest")
	}
	path := filepath.Join(dir, m.RunID+".json")
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return woofterr.Wrap(woofterr.KindCacheIOError, err, "writing run manifest")
	}
	return nil
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
