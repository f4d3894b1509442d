package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/woofnb/woofnb/internal/lint"
)

func newLintCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint <file>",
		Short: "print structural and policy diagnostics for a notebook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			nb, err := loadNotebook(path)
			if err != nil {
				return err
			}

			diags := lint.Lint(nb)
			for _, d := range diags {
				loc := d.CellID
				if loc == "" {
					loc = "<header>"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s: %s: %s\n", d.Severity, loc, d.Code, d.Message)
			}

			if lint.HasErrors(diags) {
				return fmt.Errorf("%s has lint errors", path)
			}
			return nil
		},
	}
	return cmd
}
