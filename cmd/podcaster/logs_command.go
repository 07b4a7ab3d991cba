package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"podcaster/internal/config"
	"podcaster/internal/logging"
	"podcaster/internal/logs"
	"podcaster/internal/podcast"
	"podcaster/internal/queue"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		itemID int64
		lines  int
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log or the log of one podcast",
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			err := ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				if itemID <= 0 {
					path = filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
					return nil
				}
				item, err := store.GetByID(cmd.Context(), itemID)
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("queue item %d not found", itemID)
				}
				if strings.TrimSpace(item.FolderPath) == "" {
					return fmt.Errorf("item #%d has no podcast folder yet", itemID)
				}
				path = filepath.Join(item.FolderPath, podcast.LogFile)
				return nil
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tail, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return logs.Follow(signalCtx, path, offset, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().Int64Var(&itemID, "id", 0, "Show the log of one queue item")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	return cmd
}
