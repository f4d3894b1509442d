// Package sidecar writes the per-cell JSON-Lines execution log (spec.md
// §4.8): one line per cell outcome appended to `<notebook>.woofnb.out`.
//
// Grounded on the teacher's internal/recovery/state durability pattern
// (write, fsync, append) but specialized to line-atomic appends rather
// than whole-file atomic replace, since the sidecar is an append-only
// log, not a point-in-time snapshot.
package sidecar

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/woofnb/woofnb/internal/model"
)

// Entry is one line of the sidecar file. Field names follow spec.md
// §4.8's mandated record `{ cell, timestamp, elapsed_ms, status,
// outputs }` verbatim; run_id, reason, exit_code and cache_hit are
// additional fields the record carries alongside those five.
type Entry struct {
	RunID     string         `json:"run_id"`
	CellID    string         `json:"cell"`
	Timestamp string         `json:"timestamp"`
	ElapsedMS int64          `json:"elapsed_ms"`
	Status    string         `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	Outputs   []model.Output `json:"outputs"`
	ExitCode  int            `json:"exit_code"`
	CacheHit  bool           `json:"cache_hit"`
}

// Writer appends Entry values to a sidecar file, one JSON object per
// line. Writer is not safe for concurrent use from multiple goroutines;
// the orchestrator drives it from a single loop (spec.md §5).
type Writer struct {
	f *os.File
}

// Open creates or appends to the sidecar file at path.
func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening sidecar file: %w", err)
	}
	return &Writer{f: f}, nil
}

// Append writes entry as one line, fsyncing after the write so a crash
// immediately after Append never leaves a torn line: the write itself
// (a single os.File.Write of one line) is already atomic at the
// filesystem level for a single append, so the remaining risk this
// guards against is data sitting in the page cache, not a partial line.
func (w *Writer) Append(entry Entry) error {
	if entry.Outputs == nil {
		entry.Outputs = []model.Output{}
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding sidecar entry: %w", err)
	}
	line = append(line, '\n')
	if _, err := w.f.Write(line); err != nil {
		return fmt.Errorf("writing sidecar entry: %w", err)
	}
	return w.f.Sync()
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	return w.f.Close()
}

// Path returns the sidecar path for a notebook source path, e.g.
// "notebook.woofnb" -> "notebook.woofnb.out".
func Path(notebookPath string) string {
	return notebookPath + ".out"
}
