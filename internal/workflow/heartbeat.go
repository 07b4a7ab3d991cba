package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"podcaster/internal/logging"
	"podcaster/internal/queue"
)

// heartbeats keeps claimed items fresh and hands expired ones back to the
// queue so another worker can pick them up.
type heartbeats struct {
	store    *queue.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

// reclaimEvery is how often worker 0 looks for expired heartbeats.
func (h heartbeats) reclaimEvery() time.Duration {
	if h.interval <= 0 {
		return time.Minute
	}
	return h.interval
}

// reclaim rolls items with expired heartbeats back through rb.
func (h heartbeats) reclaim(ctx context.Context, logger *slog.Logger, rb queue.Rollback) error {
	if h.timeout <= 0 {
		return nil
	}
	n, err := h.store.ReclaimStaleProcessing(ctx, rb, time.Now().Add(-h.timeout))
	if err != nil || n == 0 {
		return err
	}
	logger.Info("reclaimed stale items",
		logging.Int64("count", n),
		logging.String(logging.FieldEventType, "heartbeat_reclaimed"))
	return nil
}

// keepAlive touches itemID's heartbeat every interval until the returned
// stop function is called.
func (h heartbeats) keepAlive(ctx context.Context, itemID int64) (stop func()) {
	if h.interval <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger := logging.WithContext(ctx, logging.NewComponentLogger(h.logger, "workflow-heartbeat"))
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			err := h.store.UpdateHeartbeat(ctx, itemID)
			switch {
			case err == nil:
			case errors.Is(err, context.Canceled):
				logger.Debug("heartbeat update cancelled")
			default:
				logger.Warn("heartbeat update failed", logging.Error(err))
			}
		}
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}
