// Package orchestrator drives one notebook run end to end (spec.md
// §4.9): lint (abort on error-severity) → plan → per cell: policy →
// cache lookup → (miss) runner → cache store → sidecar.
//
// Grounded on the mutex-guarded state-tracking shape of the teacher's
// dag.Executor (SPEC_FULL.md §5): Drive keeps one runner.ExecutionState
// map and advances it through runner.Transition exactly as the
// teacher's Executor does, even though v1 never dispatches cells
// concurrently, so a later parallel extension slots into the same
// structure unchanged.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/woofnb/woofnb/internal/cache"
	"github.com/woofnb/woofnb/internal/lint"
	"github.com/woofnb/woofnb/internal/model"
	"github.com/woofnb/woofnb/internal/plan"
	"github.com/woofnb/woofnb/internal/policy"
	"github.com/woofnb/woofnb/internal/runner"
	"github.com/woofnb/woofnb/internal/sidecar"
)

// ReasonUpstreamFailed and ReasonPolicyDenied are the stable reason
// strings attached to a BLOCKED cell result (spec.md §4.9, §7).
const (
	ReasonUpstreamFailed = "UpstreamFailed"
	ReasonPolicyDenied   = "PolicyDenied"
)

// Options configures one Drive invocation.
type Options struct {
	Plan          plan.Options
	CacheDir      string
	RunnerVersion string
	SidecarPath   string
	RunID         string
	Logger        *zap.Logger
}

// CellResult is one cell's outcome within a Drive run.
type CellResult struct {
	CellID    string
	State     runner.CellState
	Reason    string
	Attempts  int
	ElapsedMS int64
	CacheHit  bool
	Outputs   []model.Output
}

// Result is the full outcome of one Drive invocation. Aborted is set
// when the run never reached per-cell execution (lint or plan failure);
// AbortErr then carries the reason and Cells is empty.
type Result struct {
	Cells    []CellResult
	Aborted  bool
	AbortErr error
}

// Success reports whether every attempted cell ended SUCCESS or
// REPLAYED, matching spec.md §6's exit-code rule for `run`/`test`.
func (r *Result) Success() bool {
	if r.Aborted {
		return false
	}
	for _, c := range r.Cells {
		if !runner.IsSuccessful(c.State) {
			return false
		}
	}
	return true
}

// Drive runs lint, plan, and per-cell execution against an already
// parsed notebook. It opens and owns the sidecar file and every shared
// runner session for the duration of the call.
func Drive(ctx context.Context, nb *model.Notebook, reg runner.Registry, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	diags := lint.Lint(nb)
	if lint.HasErrors(diags) {
		return &Result{Aborted: true, AbortErr: fmt.Errorf("notebook has lint errors, aborting before planning: %d diagnostic(s)", len(diags))}, nil
	}

	cells, err := plan.Plan(nb, opts.Plan)
	if err != nil {
		return &Result{Aborted: true, AbortErr: err}, nil
	}

	sc, err := sidecar.Open(opts.SidecarPath)
	if err != nil {
		return nil, err
	}
	defer sc.Close()

	useCache := nb.Header.Execution.Cache == model.CacheContentHash
	var cacheStore *cache.Store
	if useCache {
		cacheStore = cache.NewStore(opts.CacheDir)
	}

	rn := runner.New(reg)
	defer rn.Close()

	dependents := buildDependents(cells)
	blockedReason := map[string]string{}
	linear := nb.Header.Execution.Order != model.OrderGraph

	state := make(runner.ExecutionState, len(cells))
	for _, cell := range cells {
		state[cell.ID] = runner.StatePending
	}

	result := &Result{}

	for _, cell := range cells {
		if reason, isBlocked := blockedReason[cell.ID]; isBlocked {
			advance(logger, state, cell.ID, runner.StatePending, runner.StateBlocked)
			cr := blockedResult(cell.ID, reason)
			result.Cells = append(result.Cells, cr)
			appendSidecar(sc, opts.RunID, cr)
			propagateBlocked(cell.ID, dependents, blockedReason)
			continue
		}

		if err := policy.Check(nb.Header.IOPolicy, cell); err != nil {
			advance(logger, state, cell.ID, runner.StatePending, runner.StateBlocked)
			cr := CellResult{
				CellID: cell.ID,
				State:  runner.StateBlocked,
				Reason: ReasonPolicyDenied,
				Outputs: []model.Output{
					model.NewErrorOutput("PolicyDenied", err.Error(), nil),
				},
			}
			result.Cells = append(result.Cells, cr)
			appendSidecar(sc, opts.RunID, cr)
			if linear {
				break
			}
			propagateBlocked(cell.ID, dependents, blockedReason)
			continue
		}

		var key string
		if useCache && cell.Type.Executable() {
			if k, keyErr := cache.Key(nb, cell.ID, opts.RunnerVersion); keyErr == nil {
				key = k
				if entry, hit, lookupErr := cacheStore.Lookup(key, cell.ID); lookupErr == nil && hit {
					advance(logger, state, cell.ID, runner.StatePending, runner.StateReplayed)
					cr := CellResult{
						CellID:    cell.ID,
						State:     runner.StateReplayed,
						ElapsedMS: entry.ElapsedMS,
						CacheHit:  true,
						Outputs:   entry.Outputs,
					}
					result.Cells = append(result.Cells, cr)
					appendSidecar(sc, opts.RunID, cr)
					logger.Debug("cache hit", zap.String("cell_id", cell.ID))
					continue
				} else if lookupErr != nil {
					logger.Warn("cache lookup failed, treating as miss", zap.String("cell_id", cell.ID), zap.Error(lookupErr))
				}
			} else {
				logger.Warn("cache key computation failed, skipping cache for cell", zap.String("cell_id", cell.ID), zap.Error(keyErr))
			}
		}

		advance(logger, state, cell.ID, runner.StatePending, runner.StateRunning)

		start := time.Now()
		outcome := rn.Run(ctx, nb, cell)
		elapsed := time.Since(start).Milliseconds()

		advance(logger, state, cell.ID, runner.StateRunning, outcome.State)

		cr := CellResult{
			CellID:    cell.ID,
			State:     outcome.State,
			Attempts:  outcome.Attempts,
			ElapsedMS: elapsed,
			Outputs:   outcome.Result.Outputs,
		}
		if outcome.Err != nil {
			cr.Outputs = append(cr.Outputs, errorOutputFor(outcome.Err))
		}
		result.Cells = append(result.Cells, cr)
		appendSidecar(sc, opts.RunID, cr)

		if outcome.State == runner.StateSuccess && useCache && cell.Type.Executable() && key != "" {
			entry := model.CacheEntry{
				Key:           key,
				CellID:        cell.ID,
				Outputs:       cr.Outputs,
				ExitCode:      outcome.Result.ExitCode,
				ElapsedMS:     elapsed,
				RunnerVersion: opts.RunnerVersion,
			}
			if storeErr := cacheStore.Store(entry); storeErr != nil {
				logger.Warn("cache store failed", zap.String("cell_id", cell.ID), zap.Error(storeErr))
			}
		}

		if !runner.IsSuccessful(outcome.State) {
			if linear {
				break
			}
			propagateBlocked(cell.ID, dependents, blockedReason)
		}
	}

	return result, nil
}

// advance drives state through runner.Transition, logging (rather than
// failing the run on) a transition the orchestrator's own bookkeeping
// should never produce.
func advance(logger *zap.Logger, state runner.ExecutionState, cellID string, from, to runner.CellState) {
	if err := runner.Transition(state, cellID, from, to); err != nil {
		logger.Warn("unexpected state transition", zap.String("cell_id", cellID), zap.Error(err))
	}
}

func blockedResult(cellID, reason string) CellResult {
	return CellResult{
		CellID: cellID,
		State:  runner.StateBlocked,
		Reason: reason,
		Outputs: []model.Output{
			model.NewErrorOutput(reason, fmt.Sprintf("cell %q skipped: %s", cellID, reason), nil),
		},
	}
}

func errorOutputFor(err error) model.Output {
	return model.NewErrorOutput("Runtime", err.Error(), nil)
}

func appendSidecar(sc *sidecar.Writer, runID string, cr CellResult) {
	_ = sc.Append(sidecar.Entry{
		RunID:     runID,
		CellID:    cr.CellID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		ElapsedMS: cr.ElapsedMS,
		Status:    string(cr.State),
		Reason:    cr.Reason,
		Outputs:   cr.Outputs,
		ExitCode:  exitCodeFor(cr.State),
		CacheHit:  cr.CacheHit,
	})
}

func exitCodeFor(state runner.CellState) int {
	if runner.IsSuccessful(state) {
		return 0
	}
	return 1
}

// buildDependents inverts cells' Deps edges into a map from cell id to
// the ids that directly depend on it, scoped to the cells actually in
// the plan.
func buildDependents(cells []model.Cell) map[string][]string {
	dependents := make(map[string][]string, len(cells))
	for _, c := range cells {
		for _, d := range c.Deps {
			dependents[d] = append(dependents[d], c.ID)
		}
	}
	return dependents
}

// propagateBlocked marks every transitive dependent of rootID as
// blocked with ReasonUpstreamFailed, skipping ids already marked.
func propagateBlocked(rootID string, dependents map[string][]string, blocked map[string]string) {
	queue := append([]string(nil), dependents[rootID]...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := blocked[id]; ok {
			continue
		}
		blocked[id] = ReasonUpstreamFailed
		queue = append(queue, dependents[id]...)
	}
}
