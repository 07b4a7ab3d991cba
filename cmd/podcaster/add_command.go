package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"podcaster/internal/analysis"
	"podcaster/internal/config"
	"podcaster/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Queue a thought for the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readThought(cmd, file, args)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				if err := analysis.ValidateText(cfg.Text, input.Text); err != nil {
					return err
				}
				item, created, err := enqueueThought(cmd, store, input)
				if err != nil {
					return err
				}
				if !created {
					fmt.Fprintf(cmd.OutOrStdout(), "Thought already queued as #%d (%s)\n", item.ID, item.Status)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued thought #%d\n", item.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the thought from a file")
	return cmd
}
