package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/woofnb/woofnb/internal/jupyter"
)

func newExportCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "export a notebook to Jupyter nbformat v4 (.ipynb)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			nb, err := loadNotebook(path)
			if err != nil {
				return err
			}

			ipynb, err := jupyter.ExportIpynb(nb)
			if err != nil {
				return fmt.Errorf("exporting %s: %w", path, err)
			}

			if out == "" {
				fmt.Fprint(cmd.OutOrStdout(), ipynb)
				return nil
			}
			if err := os.WriteFile(out, []byte(ipynb), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the .ipynb to this path instead of stdout")
	return cmd
}
