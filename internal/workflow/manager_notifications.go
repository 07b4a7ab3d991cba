package workflow

import (
	"context"
	"errors"

	"podcaster/internal/logging"
	"podcaster/internal/notifications"
	"podcaster/internal/queue"
)

func (m *Manager) notifyCompleted(ctx context.Context, item *queue.Item) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(ctx, notifications.EventPipelineCompleted, notifications.Payload{
		"title":  item.DisplayTitle(),
		"folder": item.FolderPath,
		"url":    item.YouTubeURL,
	}); err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("shutting down, could not send completion notification")
		} else {
			m.logger.Debug("completion notification failed", logging.Error(err))
		}
	}
}
