// Package shell implements the "bash" language backend: it runs a
// cell's body as a shell script via os/exec with a strictly allow-listed
// environment.
//
// Grounded directly on internal/core.Executor.Execute: the environment
// starts empty (never os.Environ()), a process group is created via
// Setpgid so a timeout or cancellation kills the whole tree with
// SIGKILL, not just the direct child.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"syscall"

	"github.com/woofnb/woofnb/internal/model"
	"github.com/woofnb/woofnb/internal/runner"
)

// Backend is the "bash" language backend. It has no persistent session
// state: every cell gets its own subprocess regardless of shared vs
// isolated sidefx, since a shell has no meaningful mid-process state to
// keep across cells the way an interpreter session does.
type Backend struct {
	// WorkingDir is the directory shell commands execute in.
	WorkingDir string

	// Env is the allow-listed environment visible to every shell cell,
	// keyed by variable name (spec.md §4.6/§4.7: only declared variables
	// are visible, mirroring internal/core.Executor's isolation model).
	Env map[string]string
}

type session struct{}

func (session) Close() error { return nil }

// Prepare returns a stateless session; bash cells carry no state between
// invocations.
func (b *Backend) Prepare(ctx context.Context) (runner.Session, error) {
	return session{}, nil
}

// Exec runs cell.Body as `sh -c <body>`, capturing stdout/stderr as
// stream Outputs and applying a best-effort memory_mb rlimit on Linux
// (spec.md §9: warning-only, never fatal, bash-only).
func (b *Backend) Exec(ctx context.Context, sess runner.Session, cell model.Cell) (runner.ExecResult, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", scriptWithMemoryLimit(cell))
	cmd.Dir = b.WorkingDir
	cmd.Env = buildIsolatedEnv(b.Env)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return runner.ExecResult{}, fmt.Errorf("starting shell: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var waitErr error
	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
		return runner.ExecResult{}, ctx.Err()
	case waitErr = <-done:
	}

	exitCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return runner.ExecResult{}, fmt.Errorf("running shell: %w", waitErr)
		}
	}

	var outputs []model.Output
	if stdout.Len() > 0 {
		outputs = append(outputs, model.NewStreamOutput("stdout", stdout.String()))
	}
	if stderr.Len() > 0 {
		outputs = append(outputs, model.NewStreamOutput("stderr", stderr.String()))
	}
	if exitCode != 0 {
		outputs = append(outputs, model.NewErrorOutput("Runtime", fmt.Sprintf("exit code %d", exitCode), nil))
	}

	return runner.ExecResult{Outputs: outputs, ExitCode: exitCode}, nil
}

func buildIsolatedEnv(env map[string]string) []string {
	if len(env) == 0 {
		return []string{}
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(env))
	for _, k := range keys {
		result = append(result, fmt.Sprintf("%s=%s", k, env[k]))
	}
	return result
}

// scriptWithMemoryLimit prefixes cell.Body with a best-effort `ulimit -v`
// on Linux when memory_mb is set. `ulimit` failing (e.g. an
// unprivileged limit already lower than requested) does not abort the
// script: spec.md §9 treats memory_mb enforcement as advisory for this
// backend, never fatal.
func scriptWithMemoryLimit(cell model.Cell) string {
	if cell.MemoryMB == nil || runtime.GOOS != "linux" {
		return cell.Body
	}
	limitKB := *cell.MemoryMB * 1024
	return fmt.Sprintf("ulimit -v %d 2>/dev/null; %s", limitKB, cell.Body)
}
