package workflow

import (
	"log/slog"

	"podcaster/internal/analysis"
	"podcaster/internal/announce"
	"podcaster/internal/artwork"
	"podcaster/internal/config"
	"podcaster/internal/narration"
	"podcaster/internal/notifications"
	"podcaster/internal/queue"
	"podcaster/internal/render"
	"podcaster/internal/upload"
)

// NewStageSet builds the handlers enabled by the [pipeline] flags.
func NewStageSet(cfg *config.Config, store *queue.Store, notifier notifications.Service, logger *slog.Logger) StageSet {
	var set StageSet
	p := cfg.Pipeline
	if p.EnableText {
		set.Analysis = analysis.NewAnalyzer(cfg, store, logger)
	}
	if p.EnableAudio {
		set.Narration = narration.NewNarrator(cfg, store, logger)
	}
	if p.EnableImage {
		set.Artwork = artwork.NewArtist(cfg, store, logger)
	}
	if p.EnableVideo {
		set.Render = render.NewRenderer(cfg, store, logger)
	}
	if p.EnableYouTube {
		set.Upload = upload.NewUploader(cfg, store, notifier, logger)
	}
	if p.EnableAnnounce {
		set.Announce = announce.NewAnnouncer(cfg, store, logger)
	}
	return set
}

// ConfigureStages registers the stage handlers. Each stage starts from the
// done status of the previous registered stage (pending for the first) and
// the last registered stage completes the item.
func (m *Manager) ConfigureStages(set StageSet) {
	var stages []pipelineStage
	start := queue.StatusPending
	for _, def := range stageOrder {
		handler := def.pick(set)
		if handler == nil {
			continue
		}
		stages = append(stages, pipelineStage{
			name:             def.name,
			handler:          handler,
			startStatus:      start,
			processingStatus: def.processing,
			doneStatus:       def.done,
		})
		start = def.done
	}
	if n := len(stages); n > 0 {
		stages[n-1].doneStatus = queue.StatusCompleted
	}

	m.mu.Lock()
	m.stages = stages
	m.mu.Unlock()
}

// StageNames lists the configured chain in order.
func (m *Manager) StageNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.stages))
	for _, stg := range m.stages {
		names = append(names, stg.name)
	}
	return names
}

func (m *Manager) snapshotStages() []pipelineStage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]pipelineStage(nil), m.stages...)
}

// Rollback maps every processing status onto the start status of the first
// configured stage at or after it, so interrupted items land where an
// enabled stage will claim them.
func (m *Manager) Rollback() queue.Rollback {
	m.mu.RLock()
	configured := make(map[string]bool, len(m.stages))
	for _, stg := range m.stages {
		configured[stg.name] = true
	}
	m.mu.RUnlock()
	return rollbackFor(func(def stageDefinition) bool { return configured[def.name] })
}

// RollbackForConfig is Rollback for the chain the [pipeline] flags enable,
// for callers that reset the queue without building stage handlers.
func RollbackForConfig(cfg *config.Config) queue.Rollback {
	p := cfg.Pipeline
	enabled := map[string]bool{
		"analysis":  p.EnableText,
		"narration": p.EnableAudio,
		"artwork":   p.EnableImage,
		"render":    p.EnableVideo,
		"upload":    p.EnableYouTube,
		"announce":  p.EnableAnnounce,
	}
	return rollbackFor(func(def stageDefinition) bool { return enabled[def.name] })
}

// rollbackFor walks stageOrder, collecting processing statuses until the
// next enabled stage and pointing them at its start status. Statuses past
// the last enabled stage map to completed, since that stage completes the
// item. With nothing enabled it returns nil.
func rollbackFor(enabled func(stageDefinition) bool) queue.Rollback {
	rb := make(queue.Rollback, len(stageOrder))
	start := queue.StatusPending
	var waiting []queue.Status
	found := false
	for _, def := range stageOrder {
		waiting = append(waiting, def.processing)
		if !enabled(def) {
			continue
		}
		for _, status := range waiting {
			rb[status] = start
		}
		waiting = waiting[:0]
		start = def.done
		found = true
	}
	if !found {
		return nil
	}
	for _, status := range waiting {
		rb[status] = queue.StatusCompleted
	}
	return rb
}

// stageIndexFor returns the chain position an item in status resumes at.
func stageIndexFor(stages []pipelineStage, status queue.Status) (int, bool) {
	for i, stg := range stages {
		if stg.startStatus == status || stg.processingStatus == status {
			return i, true
		}
	}
	return 0, false
}
