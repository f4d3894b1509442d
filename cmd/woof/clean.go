package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/woofnb/woofnb/internal/cache"
	"github.com/woofnb/woofnb/internal/sidecar"
	"github.com/woofnb/woofnb/internal/woofconfig"
)

func newCleanCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "clean [file]",
		Short: "remove a notebook's sidecar log and cache entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := woofconfig.Load()

			if all {
				if len(args) != 0 {
					return fmt.Errorf("clean --all takes no file argument")
				}
				return cleanAll(cmd, cfg)
			}
			if len(args) != 1 {
				return fmt.Errorf("clean requires a notebook file, or --all")
			}
			return cleanOne(cmd, cfg, args[0])
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "remove every notebook's cache directory under the configured cache directory (sidecar files are not removed)")
	return cmd
}

func cleanOne(cmd *cobra.Command, cfg woofconfig.Config, path string) error {
	sidecarPath := sidecar.Path(path)
	removedSidecar := false
	if err := os.Remove(sidecarPath); err == nil {
		removedSidecar = true
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", sidecarPath, err)
	}

	store := cache.NewStore(cacheRoot(cfg, path))
	n, err := store.Clean()
	if err != nil {
		return fmt.Errorf("cleaning cache for %s: %w", path, err)
	}
	if err := os.RemoveAll(cacheRoot(cfg, path)); err != nil {
		return fmt.Errorf("removing cache directory for %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "removed %d cache entr(y/ies), sidecar removed=%v\n", n, removedSidecar)
	return nil
}

func cleanAll(cmd *cobra.Command, cfg woofconfig.Config) error {
	entries, err := os.ReadDir(cfg.CacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "removed 0 cache entr(y/ies)")
			return nil
		}
		return fmt.Errorf("reading cache dir %s: %w", cfg.CacheDir, err)
	}

	total := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		store := cache.NewStore(filepath.Join(cfg.CacheDir, e.Name()))
		n, err := store.Clean()
		if err != nil {
			return fmt.Errorf("cleaning cache dir %s: %w", e.Name(), err)
		}
		total += n
		if err := os.RemoveAll(filepath.Join(cfg.CacheDir, e.Name())); err != nil {
			return fmt.Errorf("removing cache dir %s: %w", e.Name(), err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "removed %d cache entr(y/ies) across all notebooks\n", total)
	return nil
}
