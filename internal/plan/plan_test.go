package plan

import (
	"testing"

	"github.com/woofnb/woofnb/internal/parser"
)

func ids(t *testing.T, src string, opts Options) []string {
	t.Helper()
	nb, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	steps, err := Plan(nb, opts)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.ID
	}
	return out
}

func TestPlan_LinearIsFileOrder(t *testing.T) {
	src := "%WOOFNB 1.0\n```cell id=b deps=a\n```\n```cell id=a\n```\n"
	got := ids(t, src, Options{})
	want := []string{"b", "a"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestPlan_GraphRespectsDependencies(t *testing.T) {
	src := "%WOOFNB 1.0\nexecution:\n  order: graph\n" +
		"```cell id=b deps=a\n```\n```cell id=a\n```\n"
	got := ids(t, src, Options{})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %v, want [a b]", got)
	}
}

func TestPlan_GraphTieBreaksOnLowerPriorityFirst(t *testing.T) {
	src := "%WOOFNB 1.0\nexecution:\n  order: graph\n" +
		"```cell id=a\n```\n```cell id=b deps=a\n```\n```cell id=c deps=a priority=-1\n```\n"
	got := ids(t, src, Options{})
	want := []string{"a", "c", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestPlan_GraphCycleErrors(t *testing.T) {
	src := "%WOOFNB 1.0\nexecution:\n  order: graph\n" +
		"```cell id=a deps=b\n```\n```cell id=b deps=a\n```\n"
	nb, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Plan(nb, Options{}); err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestPlan_DisabledCellExcluded(t *testing.T) {
	src := "%WOOFNB 1.0\n```cell id=a disabled\n```\n```cell id=b\n```\n"
	got := ids(t, src, Options{})
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("got %v, want [b]", got)
	}
}

func TestPlan_SelectorExpandsDeps(t *testing.T) {
	src := "%WOOFNB 1.0\n```cell id=a\n```\n```cell id=b deps=a\n```\n```cell id=c\n```\n"
	got := ids(t, src, Options{Selectors: []string{"b"}})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %v, want [a b]", got)
	}
}

func TestPlan_SelectorNoDeps(t *testing.T) {
	src := "%WOOFNB 1.0\n```cell id=a\n```\n```cell id=b deps=a\n```\n"
	got := ids(t, src, Options{Selectors: []string{"b"}, NoDeps: true})
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("got %v, want [b]", got)
	}
}

func TestPlan_SelectorByTag(t *testing.T) {
	src := "%WOOFNB 1.0\n```cell id=a tags=slow\n```\n```cell id=b\n```\n"
	got := ids(t, src, Options{Selectors: []string{"slow"}})
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("got %v, want [a]", got)
	}
}

func TestPlan_UnknownSelectorErrors(t *testing.T) {
	nb, err := parser.Parse("%WOOFNB 1.0\n```cell id=a\n```\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Plan(nb, Options{Selectors: []string{"nope"}}); err == nil {
		t.Fatal("expected error for unknown selector")
	}
}
