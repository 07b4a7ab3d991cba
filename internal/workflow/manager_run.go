package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"podcaster/internal/logging"
	"podcaster/internal/queue"
)

// Start rolls interrupted work back to its stage start and launches
// pipeline.max_workers workers.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.stages) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}
	workers := m.cfg.Pipeline.MaxWorkers
	if workers <= 0 {
		workers = 1
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(workers)
	m.mu.Unlock()

	if reset, err := m.store.ResetStuckProcessing(ctx, m.Rollback()); err != nil {
		m.logger.Warn("failed to reset interrupted items", logging.Error(err))
	} else if reset > 0 {
		m.logger.Info("reset interrupted items",
			logging.Int64("count", reset),
			logging.String(logging.FieldEventType, "queue_reset"))
	}

	m.logger.Info("workflow started",
		logging.String(logging.FieldEventType, "workflow_started"),
		logging.Int("workers", workers),
		logging.Any("stages", m.StageNames()),
	)
	for i := 0; i < workers; i++ {
		go m.runWorker(runCtx, i)
	}
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) runWorker(ctx context.Context, id int) {
	defer m.wg.Done()
	logger := m.logger.With(logging.Int("worker", id))
	var lastReclaim time.Time

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if id == 0 && time.Since(lastReclaim) >= m.heartbeat.reclaimEvery() {
			if err := m.heartbeat.reclaim(ctx, logger, m.Rollback()); err != nil && ctx.Err() == nil {
				logger.Warn("reclaim stale processing failed; stuck items may remain",
					logging.Error(err),
					logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
					logging.String(logging.FieldErrorHint, "check queue database access"),
				)
			}
			lastReclaim = time.Now()
		}

		item, index, err := m.claimNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.handleNextItemError(ctx, logger, err)
			continue
		}
		if item == nil {
			m.waitForItemOrShutdown(ctx)
			continue
		}

		if err := m.processItem(ctx, logger, item, index); err != nil && errors.Is(err, context.Canceled) {
			return
		}
	}
}

// claimNext claims the item furthest along the chain first so started
// podcasts finish before new ones begin.
func (m *Manager) claimNext(ctx context.Context) (*queue.Item, int, error) {
	stages := m.snapshotStages()
	for i := len(stages) - 1; i >= 0; i-- {
		stg := stages[i]
		item, err := m.store.ClaimNext(ctx, stg.processingStatus, stg.startStatus)
		if err != nil {
			return nil, 0, fmt.Errorf("claim %s item: %w", stg.name, err)
		}
		if item != nil {
			return item, i, nil
		}
	}
	return nil, 0, nil
}

func (m *Manager) handleNextItemError(ctx context.Context, logger *slog.Logger, err error) {
	m.record(nil, err)
	logger.Error("failed to fetch next queue item",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_fetch_failed"),
		logging.String(logging.FieldErrorHint, "check queue database access"),
	)
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval * 10):
	}
}

func (m *Manager) waitForItemOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}
