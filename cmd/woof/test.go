package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/woofnb/woofnb/internal/model"
	"github.com/woofnb/woofnb/internal/plan"
)

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <file>",
		Short: "execute a notebook's test cells and their dependency closure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			nb, err := loadNotebook(path)
			if err != nil {
				return err
			}

			var testIDs []string
			for _, c := range nb.Cells {
				if c.Type == model.CellTest {
					testIDs = append(testIDs, c.ID)
				}
			}
			if len(testIDs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no test cells found")
				return nil
			}

			result, err := driveNotebook(cmd.OutOrStdout(), path, nb, plan.Options{Selectors: testIDs})
			if err != nil {
				return err
			}
			if !result.Success() {
				return fmt.Errorf("%s: one or more test cells did not succeed", path)
			}
			return nil
		},
	}
	return cmd
}
