package workflow

import (
	"context"

	"podcaster/internal/logging"
	"podcaster/internal/queue"
	"podcaster/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	Stages      []string
	LastError   string
	LastItem    *queue.Item
	QueueStats  map[queue.Status]int
	StageHealth map[string]stage.Health
}

// lastRun remembers the most recent item touched and the most recent error.
// The error sticks until a later one replaces it.
type lastRun struct {
	err  error
	item *queue.Item
}

func (m *Manager) record(item *queue.Item, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item != nil {
		snapshot := *item
		m.last.item = &snapshot
	}
	if err != nil {
		m.last.err = err
	}
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{Running: m.running}
	if m.last.err != nil {
		summary.LastError = m.last.err.Error()
	}
	if m.last.item != nil {
		snapshot := *m.last.item
		summary.LastItem = &snapshot
	}
	stages := append([]pipelineStage(nil), m.stages...)
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}
	summary.QueueStats = stats
	summary.StageHealth = make(map[string]stage.Health, len(stages))
	for _, stg := range stages {
		summary.Stages = append(summary.Stages, stg.name)
		summary.StageHealth[stg.name] = stg.handler.HealthCheck(ctx)
	}
	return summary
}
