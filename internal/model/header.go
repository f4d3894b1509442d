// Package model defines the typed domain entities shared by every other
// WOOFNB package: Notebook, Header, Cell, Output and CacheEntry.
//
// From spec.md §3 (Data Model): these are explicit, typed structs with no
// implied or derived fields. Anything an operation needs is computed by the
// package that needs it (parser, linter, planner, ...), never stashed here.
package model

// Header is a notebook's YAML preamble. Raw preserves the header exactly as
// it appeared in the source file (magic line included) so Serialize can
// reproduce it byte-for-byte; the remaining fields are the typed view
// produced by decoding Raw with the YAML collaborator (internal/yamlheader).
type Header struct {
	// Raw is the verbatim header text, from the %WOOFNB magic line up to
	// (but not including) the first cell fence line.
	Raw string

	// MagicVersion is the version token from the %WOOFNB line, e.g. "1.0".
	MagicVersion string

	Name       string
	Language   string
	Env        EnvConfig
	Parameters map[string]any
	Defaults   DefaultsConfig
	Execution  ExecutionConfig
	IOPolicy   IOPolicy
	Provenance any
	Metadata   any
	Tags       []string
	Version    string

	// Extra holds header keys not recognized by the typed view, keyed by
	// name, so the formatter can re-emit them after the known keys in
	// lexicographic order without data loss.
	Extra map[string]any
}

// EnvConfig describes the interpreter/runtime environment a notebook
// expects, per spec.md §3's env sub-mapping.
type EnvConfig struct {
	InterpreterVersion string         `yaml:"interpreter_version"`
	Requirements       []string       `yaml:"requirements"`
	Container          *ContainerEnv  `yaml:"container"`
}

// ContainerEnv names an optional container image the notebook was authored
// against. WOOFNB never launches containers itself (spec.md Non-goals);
// this is carried purely as provenance.
type ContainerEnv struct {
	Image string `yaml:"image"`
}

// DefaultsConfig carries per-notebook defaults inherited by cells that omit
// the corresponding token (spec.md §3, §4.1).
type DefaultsConfig struct {
	TimeoutSec *int `yaml:"timeout_sec"`
	MemoryMB   *int `yaml:"memory_mb"`
}

// ExecutionConfig selects the planner order and cache mode (spec.md §4.4,
// §4.5). Order defaults to "linear" and Cache defaults to "none" when
// absent from the header.
type ExecutionConfig struct {
	Order string `yaml:"order"`
	Cache string `yaml:"cache"`
}

const (
	OrderLinear = "linear"
	OrderGraph  = "graph"

	CacheNone        = "none"
	CacheContentHash = "content-hash"
)

// IOPolicy is the notebook-wide capability gate (spec.md §4.6). A cell may
// only exercise a capability the corresponding flag here permits.
type IOPolicy struct {
	AllowFiles   bool `yaml:"allow_files"`
	AllowNetwork bool `yaml:"allow_network"`
	AllowShell   bool `yaml:"allow_shell"`
}
