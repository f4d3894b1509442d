// Package policy implements the WOOFNB capability gate (spec.md §4.6): a
// cell's declared sidefx intent is checked jointly against the
// notebook's io_policy before the runner is ever invoked.
//
// Architecturally grounded on polydawn-repeatr's executor/policy
// capability-gating shape (a formula's declared capabilities checked
// against an executor policy before a sandboxed run starts), reimplemented
// here in the teacher's own idiom: a pure decision function returning a
// *woofterr.Error, not an exception or panic.
package policy

import (
	"github.com/woofnb/woofnb/internal/model"
	"github.com/woofnb/woofnb/internal/woofterr"
)

// Check reports whether cell is permitted to run under policy. A nil
// return means permitted. sidefx=none and sidefx=isolated add no
// capability requirement of their own: an isolated session is assumed to
// run outside the host's fs/net/shell surface entirely (spec.md §4.6,
// §9). A bash cell requires allow_shell whatever its sidefx.
func Check(policy model.IOPolicy, cell model.Cell) error {
	if cell.Type == model.CellBash && !policy.AllowShell {
		return denied(cell, "bash", "allow_shell")
	}

	switch cell.SideFX {
	case model.SideFXNone, model.SideFXIsolated:
		return nil
	case model.SideFXFS:
		if !policy.AllowFiles {
			return denied(cell, "fs", "allow_files")
		}
	case model.SideFXNet:
		if !policy.AllowNetwork {
			return denied(cell, "net", "allow_network")
		}
	case model.SideFXShell:
		// shell is granted by allow_shell alone and implies fs: it does
		// not additionally require allow_files.
		if !policy.AllowShell {
			return denied(cell, "shell", "allow_shell")
		}
	}

	return nil
}

func denied(cell model.Cell, capability, flag string) error {
	return woofterr.Atf(woofterr.KindPolicyDenied, 0,
		"cell %q requires %s capability but header io_policy.%s is false", cell.ID, capability, flag)
}
