package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/woofnb/woofnb/internal/model"
	"github.com/woofnb/woofnb/internal/orchestrator"
	"github.com/woofnb/woofnb/internal/parser"
	"github.com/woofnb/woofnb/internal/plan"
	"github.com/woofnb/woofnb/internal/runlog"
	"github.com/woofnb/woofnb/internal/runner"
	"github.com/woofnb/woofnb/internal/runner/backend/goeval"
	"github.com/woofnb/woofnb/internal/runner/backend/luaeval"
	"github.com/woofnb/woofnb/internal/runner/backend/shell"
	"github.com/woofnb/woofnb/internal/sidecar"
	"github.com/woofnb/woofnb/internal/woofconfig"
	"github.com/woofnb/woofnb/internal/woodlog"
)

// loadNotebook reads and parses the notebook at path. Every CLI verb
// that touches notebook content goes through this one function so
// parse-error reporting stays consistent.
func loadNotebook(path string) (*model.Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	nb, err := parser.Parse(string(data))
	if err != nil {
		return nil, err
	}
	return nb, nil
}

// newRegistry builds the backend registry shared by `run` and `test`:
// go (yaegi), lua (gopher-lua), bash (os/exec), per SPEC_FULL.md §4.7a.
// The PATH lookup here is the shell backend's own allow-listed process
// environment, not a WOOFNB config knob, so it bypasses woofconfig.
func newRegistry() runner.Registry {
	reg := runner.NewRegistry()
	reg.Register("go", &goeval.Backend{})
	reg.Register("lua", &luaeval.Backend{})
	reg.Register("bash", &shell.Backend{Env: map[string]string{
		"PATH": os.Getenv("PATH"),
	}})
	return reg
}

// notebookStem returns the cache-directory component derived from a
// notebook's file name, e.g. "notebooks/demo.woofnb" -> "demo".
func notebookStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// cacheRoot returns the per-notebook cache directory under the
// configured cache root (WOOF_CACHE_DIR, spec.md §6).
func cacheRoot(cfg woofconfig.Config, notebookPath string) string {
	return filepath.Join(cfg.CacheDir, notebookStem(notebookPath))
}

func newLogger(cfg woofconfig.Config) *zap.Logger {
	logger, err := woodlog.New(cfg)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// driveNotebook wires config, logging, the backend registry, and the
// orchestrator together for one `run`/`test` invocation, then persists a
// run manifest and prints a one-line summary per cell. It returns the
// orchestrator result so the caller can decide the process exit code.
func driveNotebook(out io.Writer, path string, nb *model.Notebook, planOpts plan.Options) (*orchestrator.Result, error) {
	cfg := woofconfig.Load()
	logger := newLogger(cfg)
	defer logger.Sync()

	runID := runlog.NewRunID()
	runLogger := woodlog.ForRun(logger, path, runID)

	opts := orchestrator.Options{
		Plan:          planOpts,
		CacheDir:      cacheRoot(cfg, path),
		RunnerVersion: cfg.RunnerVersion,
		SidecarPath:   sidecar.Path(path),
		RunID:         runID,
		Logger:        runLogger,
	}

	result, err := orchestrator.Drive(context.Background(), nb, newRegistry(), opts)
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", path, err)
	}
	if result.Aborted {
		return result, result.AbortErr
	}

	summary := runlog.Manifest{
		RunID:         runID,
		NotebookPath:  path,
		RunnerVersion: cfg.RunnerVersion,
	}
	for _, cr := range result.Cells {
		fmt.Fprintf(out, "%-24s %-20s %s\n", cr.CellID, cr.State, cr.Reason)
		summary.Cells = append(summary.Cells, runlog.CellSummary{
			CellID:    cr.CellID,
			State:     cr.State,
			Attempts:  cr.Attempts,
			ElapsedMS: cr.ElapsedMS,
			CacheHit:  cr.CacheHit,
		})
	}
	if !result.Success() {
		summary.ExitCode = 1
	}
	if err := runlog.Write(opts.CacheDir, summary); err != nil {
		runLogger.Warn("failed to write run manifest", zap.Error(err))
	}

	return result, nil
}
