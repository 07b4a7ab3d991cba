package stage

import (
	"context"
	"log/slog"

	"podcaster/internal/queue"
)

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}

// LoggerAware handlers receive a logger scoped to the item and stage before
// Prepare runs.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
