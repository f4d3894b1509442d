package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const simpleNotebook = `%WOOFNB 1.0
name: demo
language: lua
` + "```cell id=a\nprint(1)\n```\n"

const cycleNotebook = `%WOOFNB 1.0
name: demo
language: lua
execution:
  order: graph
` + "```cell id=a deps=b\nprint(1)\n```\n" + "```cell id=b deps=a\nprint(2)\n```\n"

func writeNotebook(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing notebook: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestLintCommand_ReportsCycleAsError(t *testing.T) {
	dir := t.TempDir()
	path := writeNotebook(t, dir, "nb.woofnb", cycleNotebook)

	out, err := runCLI(t, "lint", path)
	if err == nil {
		t.Fatalf("expected lint to report an error for a dependency cycle")
	}
	if !bytes.Contains([]byte(out), []byte("Cycle")) {
		t.Fatalf("output missing Cycle diagnostic: %s", out)
	}
}

func TestLintCommand_CleanNotebookExitsZero(t *testing.T) {
	dir := t.TempDir()
	path := writeNotebook(t, dir, "nb.woofnb", simpleNotebook)

	if _, err := runCLI(t, "lint", path); err != nil {
		t.Fatalf("lint on a clean notebook: %v", err)
	}
}

func TestFmtCommand_RewritesFile(t *testing.T) {
	dir := t.TempDir()
	unformatted := "%WOOFNB 1.0\nlanguage: py\nname: demo\n```cell id=a\nprint(1)\n```\n"
	path := writeNotebook(t, dir, "nb.woofnb", unformatted)

	if _, err := runCLI(t, "fmt", path); err != nil {
		t.Fatalf("fmt: %v", err)
	}

	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading formatted file: %v", err)
	}

	if _, err := runCLI(t, "fmt", path); err != nil {
		t.Fatalf("second fmt: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading twice-formatted file: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("fmt is not idempotent:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestFmtCommand_Check_FailsOnUnformattedFile(t *testing.T) {
	dir := t.TempDir()
	unformatted := "%WOOFNB 1.0\nlanguage: py\nname: demo\n```cell id=a\nprint(1)\n```\n"
	path := writeNotebook(t, dir, "nb.woofnb", unformatted)

	if _, err := runCLI(t, "fmt", "--check", path); err == nil {
		t.Fatalf("expected --check to fail on an unformatted file")
	}
}

func TestGraphCommand_PrintsDepsInTopoOrder(t *testing.T) {
	dir := t.TempDir()
	src := "%WOOFNB 1.0\nname: demo\nlanguage: py\n" +
		"```cell id=b deps=a\nprint(2)\n```\n" +
		"```cell id=a\nprint(1)\n```\n"
	path := writeNotebook(t, dir, "nb.woofnb", src)

	out, err := runCLI(t, "graph", path)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if !bytes.Contains([]byte(out), []byte("a -> []")) || !bytes.Contains([]byte(out), []byte("b -> [a]")) {
		t.Fatalf("unexpected graph output: %s", out)
	}
}

func TestRunCommand_ExecutesCodeCells(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WOOF_CACHE_DIR", filepath.Join(dir, "cache"))
	path := writeNotebook(t, dir, "nb.woofnb", simpleNotebook)

	out, err := runCLI(t, "run", path)
	if err != nil {
		t.Fatalf("run: %v, output: %s", err, out)
	}
	if !bytes.Contains([]byte(out), []byte("a")) {
		t.Fatalf("run output missing cell a: %s", out)
	}
}

func TestTestCommand_NoTestCellsIsANoop(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WOOF_CACHE_DIR", filepath.Join(dir, "cache"))
	path := writeNotebook(t, dir, "nb.woofnb", simpleNotebook)

	out, err := runCLI(t, "test", path)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if !bytes.Contains([]byte(out), []byte("no test cells")) {
		t.Fatalf("expected no-test-cells message, got: %s", out)
	}
}

func TestExportImportCommands_RoundTripPreservesCellCount(t *testing.T) {
	dir := t.TempDir()
	path := writeNotebook(t, dir, "nb.woofnb", simpleNotebook)
	ipynbPath := filepath.Join(dir, "nb.ipynb")
	roundTripPath := filepath.Join(dir, "roundtrip.woofnb")

	if _, err := runCLI(t, "export", path, "-o", ipynbPath); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(ipynbPath)
	if err != nil {
		t.Fatalf("reading exported ipynb: %v", err)
	}
	if !bytes.Contains(data, []byte(`"cells"`)) {
		t.Fatalf("exported ipynb missing cells: %s", data)
	}

	if _, err := runCLI(t, "import", ipynbPath, "-o", roundTripPath); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, err := os.Stat(roundTripPath); err != nil {
		t.Fatalf("expected imported woofnb to exist: %v", err)
	}

	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading original: %v", err)
	}
	if !bytes.Contains(original, []byte("cell id=a")) {
		t.Fatalf("fixture missing cell a: %s", original)
	}
	roundTripped, err := os.ReadFile(roundTripPath)
	if err != nil {
		t.Fatalf("reading round-tripped notebook: %v", err)
	}
	if !bytes.Contains(roundTripped, []byte("id=a")) {
		t.Fatalf("round-tripped notebook missing cell a: %s", roundTripped)
	}
}

func TestCleanCommand_RemovesSidecarAndCache(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WOOF_CACHE_DIR", filepath.Join(dir, "cache"))
	path := writeNotebook(t, dir, "nb.woofnb", simpleNotebook)

	if _, err := runCLI(t, "run", path); err != nil {
		t.Fatalf("run: %v", err)
	}
	sidecarPath := path + ".out"
	if _, err := os.Stat(sidecarPath); err != nil {
		t.Fatalf("expected sidecar to exist after run: %v", err)
	}

	if _, err := runCLI(t, "clean", path); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if _, err := os.Stat(sidecarPath); !os.IsNotExist(err) {
		t.Fatalf("expected sidecar to be removed, stat err = %v", err)
	}
}
