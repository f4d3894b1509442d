package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/woofnb/woofnb/internal/format"
)

func newFmtCommand() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "fmt <file>",
		Short: "rewrite a notebook file into its canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			nb, err := loadNotebook(path)
			if err != nil {
				return err
			}

			formatted, err := format.Format(nb)
			if err != nil {
				return fmt.Errorf("formatting %s: %w", path, err)
			}

			original, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			if string(original) == formatted {
				return nil
			}
			if check {
				return fmt.Errorf("%s is not formatted", path)
			}

			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if err := os.WriteFile(path, []byte(formatted), info.Mode()); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "fail instead of rewriting if the file is not already formatted")
	return cmd
}
