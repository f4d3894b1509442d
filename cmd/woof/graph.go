package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/woofnb/woofnb/internal/model"
	"github.com/woofnb/woofnb/internal/plan"
)

func newGraphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "print each cell's id and dependencies in topological order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			nb, err := loadNotebook(path)
			if err != nil {
				return err
			}

			// Topological order is what a reader wants from `graph`
			// regardless of the notebook's own declared execution.order,
			// so force graph order for planning purposes only.
			forced := *nb
			forced.Header.Execution.Order = model.OrderGraph

			cells, err := plan.Plan(&forced, plan.Options{})
			if err != nil {
				return fmt.Errorf("planning %s: %w", path, err)
			}

			for _, c := range cells {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> [%s]\n", c.ID, strings.Join(c.Deps, ", "))
			}
			return nil
		},
	}
	return cmd
}
