package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"podcaster/internal/config"
	"podcaster/internal/logging"
	"podcaster/internal/notifications"
	"podcaster/internal/queue"
)

// Manager coordinates queue processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	pollInterval time.Duration
	notifier     notifications.Service

	heartbeat heartbeats
	itemLogs  *ItemLogger

	// retryDelay is the first backoff between stage attempts.
	retryDelay time.Duration
	sleep      func(context.Context, time.Duration) error

	mu      sync.RWMutex
	stages  []pipelineStage
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	last    lastRun
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithRetryBackoff overrides the stage retry backoff (used in tests).
func WithRetryBackoff(delay time.Duration, sleep func(context.Context, time.Duration) error) ManagerOption {
	return func(m *Manager) {
		m.retryDelay = delay
		m.sleep = sleep
	}
}

// NewManager constructs a new workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "workflow")
	m := &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifier,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: heartbeats{
			store:    store,
			logger:   logger,
			interval: time.Duration(cfg.Workflow.HeartbeatInterval) * time.Second,
			timeout:  time.Duration(cfg.Workflow.HeartbeatTimeout) * time.Second,
		},
		itemLogs:   NewItemLogger(cfg),
		retryDelay: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.pollInterval <= 0 {
		m.pollInterval = 50 * time.Millisecond
	}
	return m
}
