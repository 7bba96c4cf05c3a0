package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/larkkit/lark-cli/internal/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local token cache",
		Long:  "Access tokens fetched with the file token store are cached on disk until they expire.",
	}
	cmd.AddCommand(newCacheClearCmd(), newCachePathCmd())
	return cmd
}

func cacheDir() (string, error) {
	dir, err := cache.DefaultDir()
	if err != nil {
		return "", fmt.Errorf("could not determine cache directory: %w", err)
	}
	return dir, nil
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached tokens",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir, err := cacheDir()
			if err != nil {
				return err
			}
			n := cache.ClearAll(dir)
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"path": dir, "removed": n})
			}
			printIfNotQuiet(cmd, "Token cache cleared: %s (%d files)\n", dir, n)
			return nil
		}),
	}
}

func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the cache directory and its token files",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir, err := cacheDir()
			if err != nil {
				return err
			}
			files := cache.Files(dir)
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"path": dir, "files": files})
			}

			f := newFormatter(cmd)
			printIfNotQuiet(cmd, "%s\n", dir)
			if len(files) == 0 {
				return nil
			}
			f.StartTable([]string{"FILE", "BYTES"})
			for _, file := range files {
				f.Row(file.Name, fmt.Sprint(file.Size))
			}
			return f.EndTable()
		}),
	}
}
