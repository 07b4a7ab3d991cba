package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"podcaster/internal/analysis"
	"podcaster/internal/config"
	"podcaster/internal/notifications"
	"podcaster/internal/queue"
	"podcaster/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var file string
	var id int64

	cmd := &cobra.Command{
		Use:   "run [text]",
		Short: "Run the whole pipeline for one thought in the foreground",
		Long: "Run enqueues a thought (or picks up --id) and carries it through every\n" +
			"enabled stage. An item interrupted earlier resumes at its current stage.",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				unlock, err := holdDaemonLock(cfg)
				if err != nil {
					return err
				}
				defer unlock()

				out := cmd.OutOrStdout()
				var item *queue.Item
				if id > 0 {
					found, err := store.GetByID(signalCtx, id)
					if err != nil {
						return err
					}
					if found == nil {
						return fmt.Errorf("queue item %d not found", id)
					}
					item = found
				} else {
					input, err := readThought(cmd, file, args)
					if err != nil {
						return err
					}
					if err := analysis.ValidateText(cfg.Text, input.Text); err != nil {
						return err
					}
					queued, created, err := enqueueThought(cmd, store, input)
					if err != nil {
						return err
					}
					if !created {
						fmt.Fprintf(out, "Thought already queued as #%d (%s)\n", queued.ID, queued.Status)
					}
					item = queued
				}
				if queue.IsProcessingStatus(item.Status) {
					return fmt.Errorf("item #%d is %s; it is being processed elsewhere", item.ID, item.Status)
				}

				logger, err := ctx.commandLogger(cmd)
				if err != nil {
					return err
				}
				notifier := notifications.NewService(cfg)
				mgr := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
				mgr.ConfigureStages(workflow.NewStageSet(cfg, store, notifier, logger))

				fmt.Fprintf(out, "Processing #%d through %v\n", item.ID, mgr.StageNames())
				runErr := mgr.RunOnce(signalCtx, item)
				printRunResult(out, item)
				if runErr != nil {
					if errors.Is(runErr, context.Canceled) && signalCtx.Err() != nil {
						return fmt.Errorf("interrupted; resume with: podcaster run --id %d", item.ID)
					}
					return runErr
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the thought from a file")
	cmd.Flags().Int64Var(&id, "id", 0, "Continue an existing queue item")
	return cmd
}

func printRunResult(out io.Writer, item *queue.Item) {
	fmt.Fprintf(out, "Status: %s\n", item.Status)
	if item.ErrorMessage != "" {
		fmt.Fprintf(out, "Error: %s\n", item.ErrorMessage)
	}
	if item.FolderPath != "" {
		fmt.Fprintf(out, "Output folder: %s\n", item.FolderPath)
	}
	if item.VideoPath != "" {
		fmt.Fprintf(out, "Video: %s\n", item.VideoPath)
	}
	if item.YouTubeURL != "" {
		fmt.Fprintf(out, "YouTube: %s\n", item.YouTubeURL)
	}
}
