package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"podcaster/internal/analysis"
	"podcaster/internal/config"
	"podcaster/internal/podcast"
	"podcaster/internal/queue"
	"podcaster/internal/stageexec"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "analyze [text]",
		Short: "Analyze a thought and create its podcast folder",
		Long: "Analyze reads a thought from --file, the arguments or stdin, runs the context\n" +
			"analysis and leaves the item analyzed so `run` or the daemon can continue it.",
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
				out := cmd.OutOrStdout()
				if !created {
					fmt.Fprintf(out, "Thought already queued as #%d (%s)\n", item.ID, item.Status)
				}
				if item.Status == queue.StatusPending {
					logger, err := ctx.commandLogger(cmd)
					if err != nil {
						return err
					}
					err = stageexec.Run(cmd.Context(), stageexec.Options{
						Logger:        logger,
						Store:         store,
						Handler:       analysis.NewAnalyzer(cfg, store, logger),
						StageName:     "analysis",
						Processing:    queue.StatusAnalyzing,
						Done:          queue.StatusAnalyzed,
						Item:          item,
						Timeout:       time.Duration(cfg.Pipeline.TimeoutSeconds) * time.Second,
						RetryAttempts: cfg.Pipeline.RetryAttempts,
						RetryDelay:    2 * time.Second,
					})
					if err != nil {
						return fmt.Errorf("analysis failed: %w", err)
					}
				}
				if strings.TrimSpace(item.FolderPath) == "" {
					return fmt.Errorf("item #%d has no analysis yet (status %s)", item.ID, item.Status)
				}
				result, err := podcast.LoadAnalysis(item.FolderPath)
				if err != nil {
					return err
				}
				printAnalysis(out, result, item.FolderPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the thought from a file")
	return cmd
}

func printAnalysis(out io.Writer, result *podcast.Analysis, folder string) {
	fmt.Fprintf(out, "Topic: %s\n", result.Topic)
	if title := result.DisplayTitle(); title != result.Topic {
		fmt.Fprintf(out, "Title: %s\n", title)
	}
	fmt.Fprintln(out, "References:")
	refs := result.ReferenceList()
	if len(refs) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, ref := range refs {
		fmt.Fprintf(out, "  - %s\n", ref)
	}
	fmt.Fprintf(out, "Keywords: %s\n", strings.Join(result.Keywords, ", "))
	if eval := result.ContextEvaluation; eval.ThoughtCompleteness != "" {
		fmt.Fprintf(out, "Completeness: %s (%.2f)\n", eval.ThoughtCompleteness, eval.CompletenessScore)
	}
	fmt.Fprintf(out, "Output folder: %s\n", folder)
}
