// Package plan implements the WOOFNB planner (spec.md §4.4): it turns a
// linted Notebook plus an optional cell/tag selector set into a
// deterministic, ordered list of cells to execute.
//
// The graph order's topological sort is grounded on
// internal/dag.topoOrderIndices: Kahn's algorithm driven by a
// container/heap priority queue, here keyed by (priority asc, file
// index asc) instead of the teacher's (index asc) alone, since WOOFNB
// cells carry an explicit priority token (spec.md §4.4: lower priority
// first) the teacher's tasks do not have.
package plan

import (
	"container/heap"
	"sort"

	"github.com/woofnb/woofnb/internal/model"
	"github.com/woofnb/woofnb/internal/woofterr"
)

// Options controls cell selection before ordering.
type Options struct {
	// Selectors is a set of cell ids or tags to restrict the plan to. An
	// empty Selectors means "every enabled cell".
	Selectors []string

	// NoDeps, when true, does not expand Selectors to include their
	// transitive dependency closure.
	NoDeps bool
}

// Plan returns the ordered list of cells to execute, honoring the
// notebook's execution.order (linear or graph). Disabled cells are never
// included. An error is returned if a selector matches neither a cell id
// nor a tag, or if the graph order finds an un-resolvable cycle among
// the selected cells.
func Plan(nb *model.Notebook, opts Options) ([]model.Cell, error) {
	selected, err := selectCells(nb, opts)
	if err != nil {
		return nil, err
	}

	nodes := make([]model.Cell, 0, len(nb.Cells))
	for _, c := range nb.Cells {
		if c.Disabled || !selected[c.ID] {
			continue
		}
		nodes = append(nodes, c)
	}

	if nb.Header.Execution.Order == model.OrderGraph {
		return planGraph(nodes)
	}
	return nodes, nil
}

func selectCells(nb *model.Notebook, opts Options) (map[string]bool, error) {
	if len(opts.Selectors) == 0 {
		all := make(map[string]bool, len(nb.Cells))
		for _, c := range nb.Cells {
			all[c.ID] = true
		}
		return all, nil
	}

	ids := map[string]bool{}
	byTag := map[string][]string{}
	for _, c := range nb.Cells {
		ids[c.ID] = true
		for _, t := range c.Tags {
			byTag[t] = append(byTag[t], c.ID)
		}
	}

	selected := map[string]bool{}
	for _, sel := range opts.Selectors {
		switch {
		case ids[sel]:
			selected[sel] = true
		case len(byTag[sel]) > 0:
			for _, id := range byTag[sel] {
				selected[id] = true
			}
		default:
			return nil, woofterr.Newf(woofterr.KindMissingDep, "selector %q matches no cell id or tag", sel)
		}
	}

	if !opts.NoDeps {
		expandDeps(nb, selected)
	}
	return selected, nil
}

func expandDeps(nb *model.Notebook, selected map[string]bool) {
	byID := make(map[string]model.Cell, len(nb.Cells))
	for _, c := range nb.Cells {
		byID[c.ID] = c
	}

	stack := make([]string, 0, len(selected))
	for id := range selected {
		stack = append(stack, id)
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c, ok := byID[id]
		if !ok {
			continue
		}
		for _, d := range c.Deps {
			if !selected[d] {
				selected[d] = true
				stack = append(stack, d)
			}
		}
	}
}

func planGraph(nodes []model.Cell) ([]model.Cell, error) {
	idIndex := make(map[string]int, len(nodes))
	for i, c := range nodes {
		idIndex[c.ID] = i
	}

	indeg := make([]int, len(nodes))
	outgoing := make([][]int, len(nodes))
	for i, c := range nodes {
		for _, d := range c.Deps {
			j, ok := idIndex[d]
			if !ok {
				// Unresolved dependency: the linter already reports
				// KindMissingDep for this; the planner tolerates it so a
				// single missing dep does not block unrelated cells.
				continue
			}
			outgoing[j] = append(outgoing[j], i)
			indeg[i]++
		}
	}
	for i := range outgoing {
		sort.Ints(outgoing[i])
	}

	h := &planHeap{}
	heap.Init(h)
	for i := range indeg {
		if indeg[i] == 0 {
			heap.Push(h, planItem{priority: nodes[i].Priority, fileIndex: i})
		}
	}

	order := make([]int, 0, len(nodes))
	for h.Len() > 0 {
		it := heap.Pop(h).(planItem)
		order = append(order, it.fileIndex)
		for _, m := range outgoing[it.fileIndex] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(h, planItem{priority: nodes[m].Priority, fileIndex: m})
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, woofterr.New(woofterr.KindCycle, "dependency cycle detected while planning graph order")
	}

	out := make([]model.Cell, len(order))
	for i, idx := range order {
		out[i] = nodes[idx]
	}
	return out, nil
}

// planItem is a ready node awaiting dispatch: lower priority first,
// then lower file index, matching spec.md §4.4's tie-break rule.
type planItem struct {
	priority  int
	fileIndex int
}

type planHeap []planItem

func (h planHeap) Len() int { return len(h) }
func (h planHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].fileIndex < h[j].fileIndex
}
func (h planHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *planHeap) Push(x any)   { *h = append(*h, x.(planItem)) }
func (h *planHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
