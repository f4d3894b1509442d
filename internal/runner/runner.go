package runner

import (
	"context"
	"encoding/json"
	"time"

	"github.com/woofnb/woofnb/internal/model"
	"github.com/woofnb/woofnb/internal/woofterr"
)

// Runner dispatches executable cells to their Backend and applies the
// timeout/retry/backoff policy of spec.md §4.7. It owns one shared
// Session per lang for the lifetime of a run; isolated cells bypass the
// shared session entirely.
type Runner struct {
	Registry Registry
	sessions map[string]Session
}

// New returns a Runner backed by reg.
func New(reg Registry) *Runner {
	return &Runner{Registry: reg, sessions: map[string]Session{}}
}

// Outcome is the result of running one cell, possibly across several
// attempts.
type Outcome struct {
	State    CellState
	Result   ExecResult
	Err      error
	Attempts int
}

// Run executes cell against nb's defaults, retrying transient failures
// up to cell.Retries additional times with linear backoff. A non-zero
// exit code from a backend that completed normally is
// FAILED_DETERMINISTIC and is never retried: spec.md treats it as a
// faithful, reproducible result of the cell's own content.
func (r *Runner) Run(ctx context.Context, nb *model.Notebook, cell model.Cell) Outcome {
	if !cell.Type.Executable() {
		return Outcome{State: StateSuccess}
	}

	// data cells never reach a backend: the body is parsed as JSON and
	// reported back as a compact JSON execute_result.
	if cell.Type == model.CellData {
		var v any
		if err := json.Unmarshal([]byte(cell.Body), &v); err != nil {
			return Outcome{State: StateFailedDeterministic, Err: woofterr.Wrap(woofterr.KindInvalidDataBody, err, "data cell body is not valid JSON"), Attempts: 1}
		}
		repr, _ := json.Marshal(v)
		return Outcome{State: StateSuccess, Result: ExecResult{Outputs: []model.Output{model.NewExecuteResultOutput(string(repr))}}, Attempts: 1}
	}

	lang := backendLang(nb, cell)
	backend, ok := r.Registry.Lookup(lang)
	if !ok {
		return Outcome{
			State: StateFailedDeterministic,
			Err:   woofterr.Newf(woofterr.KindBackendCrashed, "no backend registered for lang %q", lang),
		}
	}

	timeout := cell.EffectiveTimeoutSec(nb.Header.Defaults)
	maxAttempts := cell.Retries + 1

	var last Outcome
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		runCtx := ctx
		var cancel context.CancelFunc
		if timeout != nil {
			runCtx, cancel = context.WithTimeout(ctx, time.Duration(*timeout)*time.Second)
		}

		sess, err := r.sessionFor(runCtx, backend, lang, cell)
		if err != nil {
			if cancel != nil {
				cancel()
			}
			last = Outcome{State: StateFailedTransient, Err: woofterr.Wrap(woofterr.KindBackendCrashed, err, "preparing session"), Attempts: attempt}
			if attempt < maxAttempts {
				backoff(attempt)
				continue
			}
			last.State = StateFailedExhausted
			return last
		}

		res, execErr := backend.Exec(runCtx, sess, cell)
		timedOut := runCtx.Err() == context.DeadlineExceeded
		if cancel != nil {
			cancel()
		}

		if cell.SideFX == model.SideFXIsolated {
			_ = sess.Close()
		} else if timedOut {
			// Cooperative interrupt (context cancellation) already happened
			// above; a shared session left mid-eval past a timeout cannot be
			// trusted for the next cell, so kill it and let the next
			// sessionFor call prepare a fresh one.
			_ = sess.Close()
			delete(r.sessions, lang)
		}

		if execErr != nil {
			if timedOut {
				last = Outcome{State: StateFailedTransient, Err: woofterr.New(woofterr.KindTimeout, "cell exceeded its timeout"), Attempts: attempt}
			} else {
				last = Outcome{State: StateFailedTransient, Err: woofterr.Wrap(woofterr.KindBackendCrashed, execErr, "backend execution error"), Attempts: attempt}
			}
			if attempt < maxAttempts {
				backoff(attempt)
				continue
			}
			last.State = StateFailedExhausted
			return last
		}

		if res.ExitCode != 0 {
			return Outcome{State: StateFailedDeterministic, Result: res, Attempts: attempt}
		}
		return Outcome{State: StateSuccess, Result: res, Attempts: attempt}
	}
	return last
}

// Close tears down every shared session this Runner opened.
func (r *Runner) Close() error {
	var firstErr error
	for _, sess := range r.sessions {
		if err := sess.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Runner) sessionFor(ctx context.Context, backend Backend, lang string, cell model.Cell) (Session, error) {
	if cell.SideFX == model.SideFXIsolated {
		return backend.Prepare(ctx)
	}
	if sess, ok := r.sessions[lang]; ok {
		return sess, nil
	}
	sess, err := backend.Prepare(ctx)
	if err != nil {
		return nil, err
	}
	r.sessions[lang] = sess
	return sess, nil
}

func backendLang(nb *model.Notebook, cell model.Cell) string {
	if cell.Type == model.CellBash {
		return "bash"
	}
	if cell.Lang != "" {
		return cell.Lang
	}
	return nb.Header.Language
}

func backoff(attempt int) {
	time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
}
