// Package woofterr defines the stable error taxonomy used across parsing,
// linting, planning, policy, and execution.
//
// Grounded on internal/dag.GraphError and internal/recovery/state's
// *FailureError family: a sentinel Kind plus a free-form Msg, joined by
// Unwrap so callers use errors.Is/errors.As instead of string matching.
package woofterr

import "fmt"

// Kind is a stable identifier. These strings are part of the external
// contract (spec.md §7: lint diagnostic codes, error Output enames, CLI
// exit-code mapping) and must never be renamed once published.
type Kind string

const (
	// Parser
	KindMissingMagic      Kind = "MissingMagic"
	KindUnsupportedVersion Kind = "UnsupportedVersion"
	KindUnterminatedCell  Kind = "UnterminatedCell"
	KindDuplicateToken    Kind = "DuplicateToken"
	KindBadTokenSyntax    Kind = "BadTokenSyntax"

	// Linter
	KindDuplicateCellID Kind = "DuplicateCellId"
	KindBadCellID       Kind = "BadCellId"
	KindMissingDep      Kind = "MissingDep"
	KindCycle           Kind = "Cycle"
	KindPolicyConflict  Kind = "PolicyConflict"
	KindUnknownToken    Kind = "UnknownToken"

	// Policy / Runner
	KindPolicyDenied  Kind = "PolicyDenied"
	KindTimeout       Kind = "Timeout"
	KindBackendCrashed Kind = "BackendCrashed"
	KindRuntime       Kind = "Runtime"

	// Cache
	KindCacheCorrupt Kind = "CacheCorrupt"
	KindCacheIOError Kind = "CacheIOError"

	// Data cells
	KindInvalidDataBody Kind = "InvalidDataBody"
)

// Error is the concrete error type carried across package boundaries.
// Pos, when non-zero, locates the failure in the source file for parse
// and lint diagnostics.
type Error struct {
	Kind  Kind
	Line  int // 1-based source line, 0 if not applicable
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", e.Kind, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no cause and no line.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf builds an Error from a format string.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// At builds an Error located at a source line.
func At(kind Kind, line int, msg string) *Error {
	return &Error{Kind: kind, Line: line, Msg: msg}
}

// Atf builds a located Error from a format string.
func Atf(kind Kind, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error carrying an underlying cause, so errors.Is/As can
// still reach it through Unwrap.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Cause: cause, Msg: msg}
}
