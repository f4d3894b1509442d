package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/woofnb/woofnb/internal/jupyter"
)

func newImportCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "import <file.ipynb>",
		Short: "import a Jupyter notebook (.ipynb) into canonical WOOFNB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			woof, err := jupyter.ImportIpynb(string(data))
			if err != nil {
				return fmt.Errorf("importing %s: %w", path, err)
			}

			if out == "" {
				fmt.Fprint(cmd.OutOrStdout(), woof)
				return nil
			}
			if err := os.WriteFile(out, []byte(woof), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the .woofnb to this path instead of stdout")
	return cmd
}
