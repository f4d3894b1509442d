// Command woof is the WOOFNB CLI front end (spec.md §6). It wires
// internal/parser, internal/format, internal/lint, internal/plan,
// internal/orchestrator and internal/jupyter into eight subcommands (fmt,
// lint, graph, run, test, clean, export, import); no business
// logic lives here (SPEC_FULL.md §4.14) — every subcommand function is a
// thin adapter that loads a notebook, calls into one internal package,
// and translates the result into an exit code.
//
// Grounded on the teacher's cmd/scriptweaver/main.go thin-main shape and
// mpataki-shop/cmd/shop/main.go's cobra command-tree wiring.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "woof",
		Short:         "woof drives WOOFNB notebooks: format, lint, plan, run, and test cells",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newFmtCommand(),
		newLintCommand(),
		newGraphCommand(),
		newRunCommand(),
		newTestCommand(),
		newCleanCommand(),
		newExportCommand(),
		newImportCommand(),
	)
	return root
}
