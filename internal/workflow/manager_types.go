package workflow

import (
	"podcaster/internal/queue"
	"podcaster/internal/stage"
)

// StageSet bundles the concrete handlers the manager orchestrates. A nil
// handler disables the stage.
type StageSet struct {
	Analysis  stage.Handler
	Narration stage.Handler
	Artwork   stage.Handler
	Render    stage.Handler
	Upload    stage.Handler
	Announce  stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

// stageDefinition is the fixed position of a stage in the chain.
type stageDefinition struct {
	name       string
	pick       func(StageSet) stage.Handler
	processing queue.Status
	done       queue.Status
}

var stageOrder = []stageDefinition{
	{"analysis", func(s StageSet) stage.Handler { return s.Analysis }, queue.StatusAnalyzing, queue.StatusAnalyzed},
	{"narration", func(s StageSet) stage.Handler { return s.Narration }, queue.StatusNarrating, queue.StatusNarrated},
	{"artwork", func(s StageSet) stage.Handler { return s.Artwork }, queue.StatusIllustrating, queue.StatusIllustrated},
	{"render", func(s StageSet) stage.Handler { return s.Render }, queue.StatusRendering, queue.StatusRendered},
	{"upload", func(s StageSet) stage.Handler { return s.Upload }, queue.StatusUploading, queue.StatusUploaded},
	{"announce", func(s StageSet) stage.Handler { return s.Announce }, queue.StatusAnnouncing, queue.StatusCompleted},
}
