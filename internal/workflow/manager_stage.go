package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"podcaster/internal/logging"
	"podcaster/internal/queue"
	"podcaster/internal/services"
	"podcaster/internal/stageexec"
)

// RunOnce carries item through the remaining enabled stages synchronously,
// starting at the stage its status belongs to.
func (m *Manager) RunOnce(ctx context.Context, item *queue.Item) error {
	if item == nil {
		return fmt.Errorf("queue item is required")
	}
	switch item.Status {
	case queue.StatusCompleted:
		return nil
	case queue.StatusFailed:
		return fmt.Errorf("item %d failed earlier: %s; retry it first", item.ID, item.ErrorMessage)
	}
	stages := m.snapshotStages()
	if len(stages) == 0 {
		return fmt.Errorf("workflow stages not configured")
	}
	index, ok := stageIndexFor(stages, item.Status)
	if !ok {
		return fmt.Errorf("no enabled stage starts from status %q", item.Status)
	}
	return m.processItem(ctx, m.logger, item, index)
}

func (m *Manager) processItem(ctx context.Context, logger *slog.Logger, item *queue.Item, start int) error {
	requestID := uuid.NewString()
	ctx = services.WithRequestID(services.WithItemID(ctx, item.ID), requestID)
	logger = logging.WithContext(ctx, logger).With(logging.String(logging.FieldPodcast, item.DisplayTitle()))

	defer m.heartbeat.keepAlive(ctx, item.ID)()

	started := time.Now()
	stages := m.snapshotStages()
	for i := start; i < len(stages); i++ {
		err := m.runStage(ctx, logger, stages[i], item)
		m.record(item, err)
		if err != nil {
			return err
		}
	}

	if item.Status == queue.StatusCompleted {
		logger.Info("podcast completed",
			logging.String(logging.FieldEventType, "pipeline_completed"),
			logging.String("folder", item.FolderPath),
			logging.String("youtube_url", item.YouTubeURL),
			logging.Duration("pipeline_duration", time.Since(started)),
		)
		m.notifyCompleted(ctx, item)
	}
	return nil
}

func (m *Manager) runStage(ctx context.Context, logger *slog.Logger, stg pipelineStage, item *queue.Item) error {
	stageLogger, closer := m.itemLogs.Attach(logger, item)
	defer closer.Close()

	return stageexec.Run(ctx, stageexec.Options{
		Logger:        stageLogger,
		Store:         m.store,
		Notifier:      m.notifier,
		Handler:       stg.handler,
		StageName:     stg.name,
		Processing:    stg.processingStatus,
		Done:          stg.doneStatus,
		Item:          item,
		Timeout:       time.Duration(m.cfg.Pipeline.TimeoutSeconds) * time.Second,
		RetryAttempts: m.cfg.Pipeline.RetryAttempts,
		RetryDelay:    m.retryDelay,
		Sleep:         m.sleep,
	})
}
