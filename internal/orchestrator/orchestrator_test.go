package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/woofnb/woofnb/internal/model"
	"github.com/woofnb/woofnb/internal/plan"
	"github.com/woofnb/woofnb/internal/runner"
)

type fakeSession struct{}

func (fakeSession) Close() error { return nil }

type fakeBackend struct {
	exec func(cell model.Cell) (runner.ExecResult, error)
}

func (b *fakeBackend) Prepare(ctx context.Context) (runner.Session, error) { return fakeSession{}, nil }
func (b *fakeBackend) Exec(ctx context.Context, sess runner.Session, cell model.Cell) (runner.ExecResult, error) {
	return b.exec(cell)
}

func alwaysSucceeds(cell model.Cell) (runner.ExecResult, error) {
	return runner.ExecResult{ExitCode: 0, Outputs: []model.Output{model.NewStreamOutput("stdout", cell.ID)}}, nil
}

func failsFor(failID string) func(model.Cell) (runner.ExecResult, error) {
	return func(cell model.Cell) (runner.ExecResult, error) {
		if cell.ID == failID {
			return runner.ExecResult{ExitCode: 1}, nil
		}
		return alwaysSucceeds(cell)
	}
}

func newTestOptions(t *testing.T) (Options, string) {
	dir := t.TempDir()
	sidecarPath := filepath.Join(dir, "nb.woofnb.out")
	return Options{
		CacheDir:      filepath.Join(dir, "cache"),
		RunnerVersion: "test",
		SidecarPath:   sidecarPath,
		RunID:         "run-1",
	}, sidecarPath
}

func readSidecarLines(t *testing.T, path string) []map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading sidecar: %v", err)
	}
	var lines []map[string]any
	for _, raw := range splitLines(data) {
		if len(raw) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("unmarshal sidecar line: %v", err)
		}
		lines = append(lines, m)
	}
	return lines
}

func splitLines(data []byte) [][]byte {
	var out [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			out = append(out, data[start:i])
			start = i + 1
		}
	}
	return out
}

func TestDrive_LinearStopsOnFailure(t *testing.T) {
	nb := &model.Notebook{
		Header: model.Header{Language: "py"},
		Cells: []model.Cell{
			{ID: "a", Type: model.CellCode, Lang: "py"},
			{ID: "b", Type: model.CellCode, Lang: "py"},
			{ID: "c", Type: model.CellCode, Lang: "py"},
		},
	}
	reg := runner.NewRegistry()
	reg.Register("py", &fakeBackend{exec: failsFor("b")})

	opts, _ := newTestOptions(t)
	result, err := Drive(context.Background(), nb, reg, opts)
	if err != nil {
		t.Fatalf("Drive: %v", err)
	}
	if len(result.Cells) != 2 {
		t.Fatalf("Cells = %d, want 2 (stopped after b fails)", len(result.Cells))
	}
	if result.Cells[0].State != runner.StateSuccess || result.Cells[1].State != runner.StateFailedDeterministic {
		t.Fatalf("states = %+v", result.Cells)
	}
	if result.Success() {
		t.Fatalf("Success() = true, want false")
	}
}

func TestDrive_GraphSkipsDescendantsButRunsSiblings(t *testing.T) {
	nb := &model.Notebook{
		Header: model.Header{
			Language:  "py",
			Execution: model.ExecutionConfig{Order: model.OrderGraph},
		},
		Cells: []model.Cell{
			{ID: "a", Type: model.CellCode, Lang: "py"},
			{ID: "b", Type: model.CellCode, Lang: "py", Deps: []string{"a"}},
			{ID: "c", Type: model.CellCode, Lang: "py"},
		},
	}
	reg := runner.NewRegistry()
	reg.Register("py", &fakeBackend{exec: failsFor("a")})

	opts, _ := newTestOptions(t)
	result, err := Drive(context.Background(), nb, reg, opts)
	if err != nil {
		t.Fatalf("Drive: %v", err)
	}

	states := map[string]runner.CellState{}
	reasons := map[string]string{}
	for _, cr := range result.Cells {
		states[cr.CellID] = cr.State
		reasons[cr.CellID] = cr.Reason
	}
	if states["a"] != runner.StateFailedDeterministic {
		t.Fatalf("a state = %v, want FAILED_DETERMINISTIC", states["a"])
	}
	if states["b"] != runner.StateBlocked || reasons["b"] != ReasonUpstreamFailed {
		t.Fatalf("b = %v/%v, want BLOCKED/UpstreamFailed", states["b"], reasons["b"])
	}
	if states["c"] != runner.StateSuccess {
		t.Fatalf("c state = %v, want SUCCESS (sibling unaffected)", states["c"])
	}
}

func TestDrive_PolicyDeniedBlocksBashCell(t *testing.T) {
	nb := &model.Notebook{
		Header: model.Header{Language: "py"},
		Cells: []model.Cell{
			{ID: "sh", Type: model.CellBash, SideFX: model.SideFXShell},
		},
	}
	reg := runner.NewRegistry()
	opts, sidecarPath := newTestOptions(t)

	result, err := Drive(context.Background(), nb, reg, opts)
	if err != nil {
		t.Fatalf("Drive: %v", err)
	}
	if len(result.Cells) != 1 || result.Cells[0].State != runner.StateBlocked {
		t.Fatalf("Cells = %+v, want one BLOCKED entry", result.Cells)
	}
	if result.Cells[0].Reason != ReasonPolicyDenied {
		t.Fatalf("Reason = %q, want PolicyDenied", result.Cells[0].Reason)
	}

	lines := readSidecarLines(t, sidecarPath)
	if len(lines) != 1 || lines[0]["status"] != "BLOCKED" {
		t.Fatalf("sidecar lines = %+v", lines)
	}
}

func TestDrive_AbortsBeforePlanningOnLintError(t *testing.T) {
	nb := &model.Notebook{
		Header: model.Header{Language: "py"},
		Cells: []model.Cell{
			{ID: "a", Type: model.CellCode},
			{ID: "a", Type: model.CellCode},
		},
	}
	reg := runner.NewRegistry()
	opts, _ := newTestOptions(t)

	result, err := Drive(context.Background(), nb, reg, opts)
	if err != nil {
		t.Fatalf("Drive: %v", err)
	}
	if !result.Aborted {
		t.Fatalf("Aborted = false, want true for duplicate cell id")
	}
	if len(result.Cells) != 0 {
		t.Fatalf("Cells = %d, want 0 on abort", len(result.Cells))
	}
}

func TestDrive_CacheHitSkipsBackendOnSecondRun(t *testing.T) {
	nb := &model.Notebook{
		Header: model.Header{
			Language:  "py",
			Execution: model.ExecutionConfig{Cache: model.CacheContentHash},
		},
		Cells: []model.Cell{
			{ID: "a", Type: model.CellCode, Lang: "py", Body: "print(1)"},
		},
	}
	calls := 0
	reg := runner.NewRegistry()
	reg.Register("py", &fakeBackend{exec: func(cell model.Cell) (runner.ExecResult, error) {
		calls++
		return alwaysSucceeds(cell)
	}})

	opts, _ := newTestOptions(t)

	if _, err := Drive(context.Background(), nb, reg, opts); err != nil {
		t.Fatalf("first Drive: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls after first run = %d, want 1", calls)
	}

	result, err := Drive(context.Background(), nb, reg, opts)
	if err != nil {
		t.Fatalf("second Drive: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls after second run = %d, want 1 (cache hit)", calls)
	}
	if result.Cells[0].State != runner.StateReplayed {
		t.Fatalf("second run state = %v, want REPLAYED", result.Cells[0].State)
	}
}

func TestDrive_SelectorRestrictsPlannedCells(t *testing.T) {
	nb := &model.Notebook{
		Header: model.Header{Language: "py"},
		Cells: []model.Cell{
			{ID: "a", Type: model.CellCode, Lang: "py"},
			{ID: "b", Type: model.CellCode, Lang: "py"},
		},
	}
	reg := runner.NewRegistry()
	reg.Register("py", &fakeBackend{exec: alwaysSucceeds})

	opts, _ := newTestOptions(t)
	opts.Plan = plan.Options{Selectors: []string{"a"}}

	result, err := Drive(context.Background(), nb, reg, opts)
	if err != nil {
		t.Fatalf("Drive: %v", err)
	}
	if len(result.Cells) != 1 || result.Cells[0].CellID != "a" {
		t.Fatalf("Cells = %+v, want only cell a", result.Cells)
	}
}
