// Package luaeval implements the "lua" language backend using
// github.com/yuin/gopher-lua, a second embeddable VM exercising the same
// Backend contract as goeval to prove the dispatch table is not
// hardwired to one language (spec.md §4.7a).
package luaeval

import (
	"bytes"
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/woofnb/woofnb/internal/model"
	"github.com/woofnb/woofnb/internal/runner"
)

// Backend is the gopher-lua-backed "lua" language backend.
type Backend struct{}

type session struct {
	L   *lua.LState
	out *bytes.Buffer
}

func (s *session) Close() error {
	s.L.Close()
	return nil
}

// Prepare returns a fresh Lua state with print redirected into an
// internal buffer so stdout can be captured as a stream Output instead
// of leaking to the host process's real stdout.
func (b *Backend) Prepare(ctx context.Context) (runner.Session, error) {
	L := lua.NewState()
	out := &bytes.Buffer{}
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		for i := 1; i <= n; i++ {
			if i > 1 {
				out.WriteByte('\t')
			}
			out.WriteString(L.ToStringMeta(L.Get(i)).String())
		}
		out.WriteByte('\n')
		return 0
	}))
	return &session{L: L, out: out}, nil
}

// Exec evaluates cell.Body as a Lua chunk. A top-level `return <expr>`
// becomes an execute_result Output.
func (b *Backend) Exec(ctx context.Context, sess runner.Session, cell model.Cell) (runner.ExecResult, error) {
	s, ok := sess.(*session)
	if !ok {
		return runner.ExecResult{}, fmt.Errorf("luaeval: unexpected session type %T", sess)
	}
	s.out.Reset()

	top := s.L.GetTop()
	if err := s.L.DoString(cell.Body); err != nil {
		return runner.ExecResult{
			Outputs:  []model.Output{model.NewErrorOutput("Runtime", err.Error(), nil)},
			ExitCode: 1,
		}, nil
	}

	var outputs []model.Output
	if s.out.Len() > 0 {
		outputs = append(outputs, model.NewStreamOutput("stdout", s.out.String()))
	}
	if s.L.GetTop() > top {
		v := s.L.Get(-1)
		outputs = append(outputs, model.NewExecuteResultOutput(v.String()))
		s.L.SetTop(top)
	}

	return runner.ExecResult{Outputs: outputs, ExitCode: 0}, nil
}
