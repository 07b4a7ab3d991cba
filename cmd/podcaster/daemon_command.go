package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"podcaster/internal/config"
	"podcaster/internal/daemon"
	"podcaster/internal/logging"
	"podcaster/internal/notifications"
	"podcaster/internal/queue"
	"podcaster/internal/workflow"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Process the queue in the foreground until interrupted",
		Long: "Daemon runs the pipeline workers, the inbox watcher and the HTTP API\n" +
			"(when enabled) until SIGINT or SIGTERM. Only one daemon may run per data directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue: %w", err)
			}

			notifier := notifications.NewService(cfg)
			mgr := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
			mgr.ConfigureStages(workflow.NewStageSet(cfg, store, notifier, logger))

			d, err := daemon.New(cfg, store, logger, mgr)
			if err != nil {
				store.Close()
				return fmt.Errorf("create daemon: %w", err)
			}
			// Close also closes the store.
			defer d.Close()

			if err := d.Start(signalCtx); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "podcaster daemon running (stages: %v)\n", mgr.StageNames())
			if addr := d.APIAddress(); addr != "" {
				fmt.Fprintf(out, "API listening on http://%s/api\n", addr)
			}

			<-signalCtx.Done()
			logger.Info("podcaster daemon shutting down", logging.String(logging.FieldEventType, "daemon_stopping"))
			d.Stop()
			return nil
		},
	}
}

// daemonRunning reports whether another process holds the daemon lock.
func daemonRunning(cfg *config.Config) bool {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return false
	}
	if ok {
		_ = lock.Unlock()
		return false
	}
	return true
}

// holdDaemonLock takes the daemon lock for a foreground run, so no daemon
// claims or resets the items it is working on.
func holdDaemonLock(cfg *config.Config) (unlock func(), err error) {
	path := cfg.LockPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, errors.New("the daemon is running; queue the thought with \"podcaster add\" instead")
	}
	return func() { _ = lock.Unlock() }, nil
}
