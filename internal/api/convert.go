package api

import (
	"path/filepath"
	"time"

	"podcaster/internal/queue"
	"podcaster/internal/stage"
	"podcaster/internal/workflow"
)

// FromQueueItem converts a queue record to its API representation. The
// thought text is only included when withText is set.
func FromQueueItem(item *queue.Item, withText bool) QueueItem {
	if item == nil {
		return QueueItem{}
	}

	dto := QueueItem{
		ID:        item.ID,
		Title:     item.DisplayTitle(),
		Topic:     item.Topic,
		Language:  item.Language,
		Source:    string(item.SourceKind),
		SourceRef: item.SourceRef,
		Status:    string(item.Status),
		Progress: QueueProgress{
			Stage:   item.ProgressStage,
			Percent: item.ProgressPercent,
			Message: item.ProgressMessage,
		},
		ErrorMessage: item.ErrorMessage,
		CreatedAt:    FormatTime(item.CreatedAt),
		UpdatedAt:    FormatTime(item.UpdatedAt),
		Folder:       item.FolderPath,
		AudioFile:    baseName(item.AudioPath),
		ImageFile:    baseName(item.ImagePath),
		VideoFile:    baseName(item.VideoPath),
		YouTubeURL:   item.YouTubeURL,
		Announced:    item.Announced,
	}
	if withText {
		dto.Text = item.InputText
	}
	return dto
}

// FromQueueItems converts a slice of queue records into API DTOs.
func FromQueueItems(items []*queue.Item) []QueueItem {
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromQueueItem(item, false))
	}
	return out
}

// FromStatusSummary converts workflow diagnostics. Stage health follows the
// chain order.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	wf := WorkflowStatus{
		Running:     summary.Running,
		Stages:      append([]string{}, summary.Stages...),
		QueueStats:  MergeQueueStats(summary.QueueStats),
		LastError:   summary.LastError,
		StageHealth: StageHealthSlice(summary.Stages, summary.StageHealth),
	}
	if summary.LastItem != nil {
		item := FromQueueItem(summary.LastItem, false)
		wf.LastItem = &item
	}
	return wf
}

// MergeQueueStats converts status counts into string keys.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// StageHealthSlice converts a stage health map into a slice ordered by names.
func StageHealthSlice(names []string, health map[string]stage.Health) []StageHealth {
	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		h, ok := health[name]
		if !ok {
			continue
		}
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func baseName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}
