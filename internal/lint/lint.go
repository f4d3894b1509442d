// Package lint implements the WOOFNB linter (spec.md §4.3): structural
// and semantic diagnostics over a parsed Notebook that the parser itself
// deliberately does not enforce.
//
// Cycle detection reuses the teacher's deterministic DFS idiom from
// internal/dag.findCycleDeterministic: canonical (file-order) node
// indices, explicit white/gray/black coloring, single stable witness
// path on failure.
package lint

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/woofnb/woofnb/internal/model"
	"github.com/woofnb/woofnb/internal/woofterr"
)

// Severity distinguishes diagnostics that block execution from those
// that are advisory only.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one linter finding. Code is one of woofterr's stable
// Kind identifiers (spec.md §7).
type Diagnostic struct {
	Severity Severity
	Code     woofterr.Kind
	CellID   string
	Message  string
}

var cellIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Lint runs every check and returns diagnostics in a stable order: errors
// before warnings, then by CellID, then by Code.
func Lint(nb *model.Notebook) []Diagnostic {
	var diags []Diagnostic

	diags = append(diags, checkHeaderKeys(nb)...)
	diags = append(diags, checkCellIDs(nb)...)
	diags = append(diags, checkDeps(nb)...)
	diags = append(diags, checkPolicyConsistency(nb)...)
	diags = append(diags, checkUnknownTokens(nb)...)
	diags = append(diags, checkDisabledWithDependents(nb)...)

	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Severity != b.Severity {
			return a.Severity == SeverityError
		}
		if a.CellID != b.CellID {
			return a.CellID < b.CellID
		}
		return a.Code < b.Code
	})
	return diags
}

func checkHeaderKeys(nb *model.Notebook) []Diagnostic {
	var diags []Diagnostic
	if nb.Header.Name == "" {
		diags = append(diags, Diagnostic{Severity: SeverityWarning, Code: woofterr.KindUnknownToken, Message: "header is missing required key \"name\""})
	}
	if nb.Header.Language == "" {
		diags = append(diags, Diagnostic{Severity: SeverityWarning, Code: woofterr.KindUnknownToken, Message: "header is missing required key \"language\""})
	}
	return diags
}

func checkCellIDs(nb *model.Notebook) []Diagnostic {
	var diags []Diagnostic
	seen := map[string]bool{}
	for _, c := range nb.Cells {
		if c.ID == "" || !cellIDPattern.MatchString(c.ID) {
			diags = append(diags, Diagnostic{Severity: SeverityError, Code: woofterr.KindBadCellID, CellID: c.ID, Message: fmt.Sprintf("cell id %q does not match required character class", c.ID)})
			continue
		}
		if seen[c.ID] {
			diags = append(diags, Diagnostic{Severity: SeverityError, Code: woofterr.KindDuplicateCellID, CellID: c.ID, Message: fmt.Sprintf("duplicate cell id %q", c.ID)})
			continue
		}
		seen[c.ID] = true
	}
	return diags
}

func checkDeps(nb *model.Notebook) []Diagnostic {
	var diags []Diagnostic
	ids := map[string]bool{}
	for _, c := range nb.Cells {
		ids[c.ID] = true
	}
	for _, c := range nb.Cells {
		for _, d := range c.Deps {
			if !ids[d] {
				diags = append(diags, Diagnostic{Severity: SeverityError, Code: woofterr.KindMissingDep, CellID: c.ID, Message: fmt.Sprintf("cell %q depends on unknown cell %q", c.ID, d)})
			}
		}
	}
	if cycle := findCycle(nb); len(cycle) > 0 {
		diags = append(diags, Diagnostic{Severity: SeverityError, Code: woofterr.KindCycle, CellID: cycle[0], Message: fmt.Sprintf("dependency cycle: %v", cycle)})
	}
	return diags
}

// findCycle performs a deterministic DFS over cells in file order,
// returning a single stable witness cycle path (cell IDs) or nil.
func findCycle(nb *model.Notebook) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	index := map[string]int{}
	for i, c := range nb.Cells {
		index[c.ID] = i
	}

	color := make([]int, len(nb.Cells))
	parent := make([]int, len(nb.Cells))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		deps := append([]string(nil), nb.Cells[u].Deps...)
		sort.Strings(deps)
		for _, depID := range deps {
			v, ok := index[depID]
			if !ok {
				continue
			}
			if color[v] == white {
				parent[v] = u
				if dfs(v) {
					return true
				}
				continue
			}
			if color[v] == gray {
				cycle = append(cycle, v)
				cur := u
				for cur != -1 && cur != v {
					cycle = append(cycle, cur)
					cur = parent[cur]
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := range nb.Cells {
		if color[i] != white {
			continue
		}
		if dfs(i) {
			break
		}
	}

	if len(cycle) == 0 {
		return nil
	}
	out := make([]string, len(cycle))
	for i, idx := range cycle {
		out[len(cycle)-1-i] = nb.Cells[idx].ID
	}
	return out
}

func checkPolicyConsistency(nb *model.Notebook) []Diagnostic {
	var diags []Diagnostic
	p := nb.Header.IOPolicy
	for _, c := range nb.Cells {
		// A capability/io_policy mismatch is only a warning: execution
		// still fails closed at policy.Check, this just flags it early.
		switch c.SideFX {
		case model.SideFXFS:
			if !p.AllowFiles {
				diags = append(diags, Diagnostic{Severity: SeverityWarning, Code: woofterr.KindPolicyConflict, CellID: c.ID, Message: "cell requires fs side effects but header io_policy.allow_files is false"})
			}
		case model.SideFXNet:
			if !p.AllowNetwork {
				diags = append(diags, Diagnostic{Severity: SeverityWarning, Code: woofterr.KindPolicyConflict, CellID: c.ID, Message: "cell requires net side effects but header io_policy.allow_network is false"})
			}
		case model.SideFXShell:
			if !p.AllowShell {
				diags = append(diags, Diagnostic{Severity: SeverityWarning, Code: woofterr.KindPolicyConflict, CellID: c.ID, Message: "cell requires shell side effects but header io_policy.allow_shell is false"})
			}
		}
		// sidefx=shell on a non-bash cell is rejected outright.
		if c.SideFX == model.SideFXShell && c.Type != model.CellBash {
			diags = append(diags, Diagnostic{Severity: SeverityError, Code: woofterr.KindPolicyConflict, CellID: c.ID, Message: "sidefx=shell requires cell type bash"})
		}
	}
	return diags
}

func checkUnknownTokens(nb *model.Notebook) []Diagnostic {
	var diags []Diagnostic
	for _, c := range nb.Cells {
		keys := make([]string, 0, len(c.UnknownTokens))
		for k := range c.UnknownTokens {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			diags = append(diags, Diagnostic{Severity: SeverityWarning, Code: woofterr.KindUnknownToken, CellID: c.ID, Message: fmt.Sprintf("unknown cell token %q", k)})
		}
	}
	return diags
}

func checkDisabledWithDependents(nb *model.Notebook) []Diagnostic {
	var diags []Diagnostic
	disabled := map[string]bool{}
	for _, c := range nb.Cells {
		if c.Disabled {
			disabled[c.ID] = true
		}
	}
	for _, c := range nb.Cells {
		for _, d := range c.Deps {
			if disabled[d] {
				diags = append(diags, Diagnostic{Severity: SeverityWarning, CellID: c.ID, Message: fmt.Sprintf("cell %q depends on disabled cell %q", c.ID, d)})
			}
		}
	}
	return diags
}

// HasErrors reports whether any diagnostic is severity error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
