package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"podcaster/internal/api"
	"podcaster/internal/cleanup"
	"podcaster/internal/config"
	"podcaster/internal/deps"
	"podcaster/internal/inbox"
	"podcaster/internal/logging"
	"podcaster/internal/preflight"
	"podcaster/internal/queue"
	"podcaster/internal/workflow"
)

// staleTempAge keeps temp files of a render that may still be running in
// another process.
const staleTempAge = time.Hour

// Daemon coordinates the background processing services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	inbox    *inbox.Watcher
	api      *api.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	started []component
}

// component is a background service started in order and stopped in reverse.
type component struct {
	name  string
	start func(context.Context) error
	stop  func()
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	LockFilePath string
	APIAddress   string
	Dependencies []deps.Status
}

// New constructs a daemon with initialized dependencies. The inbox watcher
// and API server are created when enabled in cfg.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, and workflow manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: wf,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	if cfg.Inbox.Enabled {
		d.inbox = inbox.NewWatcher(cfg, store, logger)
	}
	if cfg.API.Enabled {
		d.api = api.NewServer(cfg, api.NewQueueService(store), wf, logger)
	}
	return d, nil
}

// Start acquires the daemon lock and launches the workflow, inbox and API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another podcaster daemon instance is already running")
	}

	d.logPreflight(ctx)
	if result := cleanup.CleanTemp(ctx, d.cfg.Paths.OutputDir, staleTempAge, d.logger); len(result.Removed) > 0 {
		d.logger.Info("removed leftover temporary files", logging.Int("count", len(result.Removed)))
	}

	runCtx, cancel := context.WithCancel(ctx)
	for _, c := range d.components() {
		if err := c.start(runCtx); err != nil {
			d.stopComponents()
			cancel()
			_ = d.lock.Unlock()
			return fmt.Errorf("start %s: %w", c.name, err)
		}
		d.started = append(d.started, c)
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("podcaster daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.Bool("inbox", d.inbox != nil),
		logging.String("api", d.APIAddress()),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock. Items in
// flight keep their processing status and are rolled back on the next start.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.stopComponents()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("podcaster daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

func (d *Daemon) components() []component {
	list := []component{{name: "workflow", start: d.workflow.Start, stop: d.workflow.Stop}}
	if d.inbox != nil {
		list = append(list, component{name: "inbox", start: d.inbox.Start, stop: d.inbox.Stop})
	}
	if d.api != nil {
		list = append(list, component{name: "api", start: d.api.Start, stop: d.api.Stop})
	}
	return list
}

// stopComponents stops whatever started, newest first.
func (d *Daemon) stopComponents() {
	for i := len(d.started) - 1; i >= 0; i-- {
		d.started[i].stop()
	}
	d.started = nil
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddress returns the bound API address, or "" when the API is disabled.
func (d *Daemon) APIAddress() string {
	if d.api == nil {
		return ""
	}
	return d.api.Addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     d.workflow.Status(ctx),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		APIAddress:   d.APIAddress(),
		Dependencies: preflight.CheckSystemDeps(d.cfg),
	}
}

func (d *Daemon) logPreflight(ctx context.Context) {
	for _, result := range preflight.RunAll(ctx, d.cfg) {
		if result.Passed {
			d.logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "stages depending on this check will fail"),
			logging.String(logging.FieldErrorHint, "run podcaster status for details"),
		)
	}
}
