package model

// CellType is the enumerated kind of a cell (spec.md §3).
type CellType string

const (
	CellCode CellType = "code"
	CellMD   CellType = "md"
	CellData CellType = "data"
	CellTest CellType = "test"
	CellViz  CellType = "viz"
	CellBash CellType = "bash"
	CellRaw  CellType = "raw"
)

// SideFX is the cell's declared side-effect intent (spec.md §4.6). It is
// joined against the notebook's IOPolicy by the Policy Enforcer to decide
// whether a cell is allowed to run.
type SideFX string

const (
	SideFXNone     SideFX = "none"
	SideFXFS       SideFX = "fs"
	SideFXNet      SideFX = "net"
	SideFXShell    SideFX = "shell"
	SideFXIsolated SideFX = "isolated"
)

// Cell is one fenced ```cell block. HeaderTokensRaw is the token string
// between "```cell" and the newline that opened the fence, with
// surrounding whitespace trimmed, kept so Serialize can reproduce a
// cell's tokens even when it carries tokens unknown to this parser
// version.
type Cell struct {
	ID   string
	Type CellType
	Name string

	Deps []string
	Tags []string

	Lang      string
	SideFX    SideFX
	TimeoutSec *int
	MemoryMB   *int
	Retries    int
	Priority   int
	Disabled   bool

	// Body is the cell's content, the lines strictly between the fence-open
	// line and the closing "```" line, joined with "\n".
	Body string

	// HeaderTokensRaw is the whitespace-trimmed token text from the
	// fence-open line.
	HeaderTokensRaw string

	// UnknownTokens holds header tokens this parser does not recognize,
	// keyed by token name, for lint warnings and lossless re-emission.
	UnknownTokens map[string]string
}

// EffectiveTimeoutSec resolves the cell's timeout against notebook
// defaults, per spec.md §3/§4.7: a cell-level value wins, otherwise the
// header default applies, otherwise there is no timeout.
func (c Cell) EffectiveTimeoutSec(d DefaultsConfig) *int {
	if c.TimeoutSec != nil {
		return c.TimeoutSec
	}
	return d.TimeoutSec
}

// EffectiveMemoryMB resolves the cell's memory bound the same way as
// EffectiveTimeoutSec.
func (c Cell) EffectiveMemoryMB(d DefaultsConfig) *int {
	if c.MemoryMB != nil {
		return c.MemoryMB
	}
	return d.MemoryMB
}

// Executable reports whether this cell type is ever dispatched to a
// runner backend. md and viz cells are display-only (spec.md §4.7, §9).
func (t CellType) Executable() bool {
	return t != CellMD && t != CellViz
}
