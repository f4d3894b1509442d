package model

// Notebook is the parsed, in-memory representation of one WOOFNB file:
// a Header plus an ordered sequence of Cells in file order (spec.md §3).
type Notebook struct {
	Header Header
	Cells  []Cell
}

// CellByID returns the cell with the given id and whether it was found.
// Callers needing a full index (e.g. the planner) build their own map;
// this helper exists for the common one-off lookup.
func (n *Notebook) CellByID(id string) (Cell, bool) {
	for _, c := range n.Cells {
		if c.ID == id {
			return c, true
		}
	}
	return Cell{}, false
}
