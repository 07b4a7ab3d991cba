package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"podcaster/internal/config"
	"podcaster/internal/logging"
	"podcaster/internal/notifications"
	"podcaster/internal/preflight"
	"podcaster/internal/queue"
	"podcaster/internal/workflow"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, queue and dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				lines := make([]string, 0, 32)

				lines = append(lines, renderSectionHeader("System", colorize)...)
				if daemonRunning(cfg) {
					lines = append(lines, renderStatusLine("Daemon", statusOK, "Running", colorize))
				} else {
					lines = append(lines, renderStatusLine("Daemon", statusInfo, "Not running", colorize))
				}
				configDetail := ctx.configPath
				if !ctx.configExists {
					configDetail += " (defaults)"
				}
				lines = append(lines, renderStatusLine("Config", statusInfo, configDetail, colorize))
				lines = append(lines, renderStatusLine("Queue DB", statusInfo, store.Path(), colorize))
				if cfg.API.Enabled {
					lines = append(lines, renderStatusLine("API", statusInfo, "http://"+cfg.APIAddress()+"/api", colorize))
				}

				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("Checks", colorize)...)
				for _, result := range preflight.RunAll(cmd.Context(), cfg) {
					kind := statusOK
					if !result.Passed {
						kind = statusError
					}
					lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
				}

				notifier := notifications.NewService(cfg)
				mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
				mgr.ConfigureStages(workflow.NewStageSet(cfg, store, notifier, logging.NewNop()))
				summary := mgr.Status(cmd.Context())

				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("Stages", colorize)...)
				for _, name := range summary.Stages {
					health := summary.StageHealth[name]
					kind := statusOK
					if !health.Ready {
						kind = statusWarn
					}
					lines = append(lines, renderStatusLine(name, kind, health.Summary(), colorize))
				}

				fmt.Fprintln(out, strings.Join(lines, "\n"))
				fmt.Fprintln(out)

				rows := buildQueueStatsRows(summary.QueueStats)
				if len(rows) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				fmt.Fprint(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func buildQueueStatsRows(stats map[queue.Status]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		count := stats[status]
		if count == 0 {
			continue
		}
		rows = append(rows, []string{string(status), strconv.Itoa(count)})
	}
	return rows
}
