// Package runner implements the WOOFNB execution dispatch table (spec.md
// §4.7): it resolves a cell's lang to a Backend, manages shared vs
// isolated Sessions, and applies the timeout/retry/backoff policy around
// each attempt.
//
// The state machine (PENDING -> RUNNING -> SUCCESS |
// FAILED_DETERMINISTIC | FAILED_TRANSIENT -> RUNNING(retry) |
// FAILED_EXHAUSTED, plus PENDING -> BLOCKED and PENDING -> REPLAYED) is
// grounded on internal/dag's TaskState machine
// (internal/dag/state_machine.go): explicit named states and an explicit
// Transition step rather than ad hoc booleans.
package runner

import (
	"context"

	"github.com/woofnb/woofnb/internal/model"
)

// Session is an opaque per-notebook execution context a Backend may
// reuse across cells that share it (spec.md §4.7, §9).
type Session interface {
	Close() error
}

// ExecResult is what Exec produces for one cell attempt.
type ExecResult struct {
	Outputs  []model.Output
	ExitCode int
}

// Backend implements the language-backend contract: Prepare opens a
// Session, Exec runs one cell's body in it, and the Session's own Close
// tears it down. A shared session is prepared once per notebook+lang and
// reused; an isolated cell (sidefx=isolated) gets Prepare called fresh
// and Close called immediately after Exec.
type Backend interface {
	Prepare(ctx context.Context) (Session, error)
	Exec(ctx context.Context, sess Session, cell model.Cell) (ExecResult, error)
}

// Registry maps a lang string to the Backend that implements it.
type Registry map[string]Backend

// NewRegistry returns an empty Registry.
func NewRegistry() Registry { return Registry{} }

// Register associates lang with a Backend, overwriting any prior entry.
func (r Registry) Register(lang string, b Backend) { r[lang] = b }

// Lookup resolves lang to its Backend.
func (r Registry) Lookup(lang string) (Backend, bool) {
	b, ok := r[lang]
	return b, ok
}
