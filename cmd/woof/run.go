package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/woofnb/woofnb/internal/plan"
)

func newRunCommand() *cobra.Command {
	var cells []string
	var noDeps bool
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "execute a notebook's cells",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			nb, err := loadNotebook(path)
			if err != nil {
				return err
			}

			result, err := driveNotebook(cmd.OutOrStdout(), path, nb, plan.Options{
				Selectors: cells,
				NoDeps:    noDeps,
			})
			if err != nil {
				return err
			}
			if !result.Success() {
				return fmt.Errorf("%s: one or more cells did not succeed", path)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&cells, "cell", nil, "restrict execution to this cell id or tag (repeatable)")
	cmd.Flags().BoolVar(&noDeps, "no-deps", false, "do not expand --cell selectors to their dependency closure")
	return cmd
}
