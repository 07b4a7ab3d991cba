package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"podcaster/internal/cleanup"
	"podcaster/internal/config"
	"podcaster/internal/queue"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var (
		orphans bool
		dryRun  bool
		maxAge  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove leftover temporary files and, with --orphans, unreferenced podcast folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				logger, err := ctx.commandLogger(cmd)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()

				var results []cleanup.Result
				if !dryRun {
					results = append(results, cleanup.CleanTemp(cmd.Context(), cfg.Paths.OutputDir, maxAge, logger))
				}
				if orphans {
					items, err := store.List(cmd.Context())
					if err != nil {
						return err
					}
					active := make(map[string]struct{}, len(items))
					for _, item := range items {
						if folder := strings.TrimSpace(item.FolderPath); folder != "" {
							active[filepath.Clean(folder)] = struct{}{}
						}
					}
					results = append(results, cleanup.CleanOrphaned(cmd.Context(), cfg.Paths.OutputDir, active, dryRun, logger))
				}

				verb := "Removed"
				if dryRun {
					verb = "Would remove"
				}
				removed := 0
				var failures []string
				for _, result := range results {
					for _, path := range result.Removed {
						fmt.Fprintf(out, "%s %s\n", verb, path)
						removed++
					}
					for _, e := range result.Errors {
						failures = append(failures, fmt.Sprintf("%s: %v", e.Path, e.Err))
					}
				}
				if removed == 0 {
					fmt.Fprintln(out, "Nothing to clean")
				}
				if len(failures) > 0 {
					return fmt.Errorf("cleanup failed for %d paths:\n%s", len(failures), strings.Join(failures, "\n"))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&orphans, "orphans", false, "Also remove podcast folders no queue item references")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List orphaned folders without removing anything")
	cmd.Flags().DurationVar(&maxAge, "max-age", time.Hour, "Minimum age of temporary files to remove")
	return cmd
}
