// Package goeval implements the "go" language backend using
// github.com/traefik/yaegi, an embeddable Go interpreter. A shared
// session is one *interp.Interpreter reused across cells so top-level
// declarations from an earlier cell remain visible to a later one, the
// same shared-state contract internal/core gives a task's declared
// outputs across a run.
package goeval

import (
	"bytes"
	"context"
	"fmt"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/woofnb/woofnb/internal/model"
	"github.com/woofnb/woofnb/internal/runner"
)

// Backend is the yaegi-backed "go" language backend.
type Backend struct{}

type session struct {
	interp *interp.Interpreter
	stdout *bytes.Buffer
}

func (s *session) Close() error { return nil }

// Prepare returns a fresh interpreter with the standard library
// symbols loaded.
func (b *Backend) Prepare(ctx context.Context) (runner.Session, error) {
	var stdout bytes.Buffer
	i := interp.New(interp.Options{Stdout: &stdout})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading yaegi stdlib symbols: %w", err)
	}
	return &session{interp: i, stdout: &stdout}, nil
}

// Exec evaluates cell.Body as a Go source fragment. Prepare created the
// interpreter with interp.Options.Stdout set to the session's buffer, so
// the os.Stdout that interpreted code sees (and that stdlib-backed calls
// like fmt.Println write through) lands in that buffer; Exec resets it
// first and returns what this cell wrote as a stream Output. The interpreter's
// last expression value, if any, becomes an execute_result Output.
func (b *Backend) Exec(ctx context.Context, sess runner.Session, cell model.Cell) (runner.ExecResult, error) {
	s, ok := sess.(*session)
	if !ok {
		return runner.ExecResult{}, fmt.Errorf("goeval: unexpected session type %T", sess)
	}

	s.stdout.Reset()

	v, err := s.interp.EvalWithContext(ctx, cell.Body)
	if err != nil {
		return runner.ExecResult{
			Outputs:  []model.Output{model.NewErrorOutput("Runtime", err.Error(), nil)},
			ExitCode: 1,
		}, nil
	}

	var outputs []model.Output
	if s.stdout.Len() > 0 {
		outputs = append(outputs, model.NewStreamOutput("stdout", s.stdout.String()))
	}
	if v.IsValid() && v.CanInterface() {
		outputs = append(outputs, model.NewExecuteResultOutput(fmt.Sprintf("%v", v.Interface())))
	}

	return runner.ExecResult{Outputs: outputs, ExitCode: 0}, nil
}
