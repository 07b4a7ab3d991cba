package queue

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending      Status = "pending"
	StatusAnalyzing    Status = "analyzing"
	StatusAnalyzed     Status = "analyzed"
	StatusNarrating    Status = "narrating"
	StatusNarrated     Status = "narrated"
	StatusIllustrating Status = "illustrating"
	StatusIllustrated  Status = "illustrated"
	StatusRendering    Status = "rendering"
	StatusRendered     Status = "rendered"
	StatusUploading    Status = "uploading"
	StatusUploaded     Status = "uploaded"
	StatusAnnouncing   Status = "announcing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusAnalyzing,
	StatusAnalyzed,
	StatusNarrating,
	StatusNarrated,
	StatusIllustrating,
	StatusIllustrated,
	StatusRendering,
	StatusRendered,
	StatusUploading,
	StatusUploaded,
	StatusAnnouncing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusAnalyzing:    {},
	StatusNarrating:    {},
	StatusIllustrating: {},
	StatusRendering:    {},
	StatusUploading:    {},
	StatusAnnouncing:   {},
}

// Rollback maps each processing status to the status its item returns to
// when the stage is abandoned: the start status of the stage that should
// pick the item up again.
type Rollback map[Status]Status

// DefaultRollback is the rollback for a chain with every stage enabled.
func DefaultRollback() Rollback {
	return Rollback{
		StatusAnalyzing:    StatusPending,
		StatusNarrating:    StatusAnalyzed,
		StatusIllustrating: StatusNarrated,
		StatusRendering:    StatusIllustrated,
		StatusUploading:    StatusRendered,
		StatusAnnouncing:   StatusUploaded,
	}
}

// Target returns where status rolls back to. Statuses without an entry map
// to themselves.
func (rb Rollback) Target(status Status) Status {
	if to, ok := rb[status]; ok {
		return to
	}
	return status
}

// SourceKind records how a thought entered the queue.
type SourceKind string

const (
	SourceFile  SourceKind = "file"
	SourceStdin SourceKind = "stdin"
	SourceInbox SourceKind = "inbox"
	SourceFeed  SourceKind = "feed"
	SourceAPI   SourceKind = "api"
)

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
}

// Item represents a podcast work item persisted in SQLite.
type Item struct {
	ID              int64
	SourceKind      SourceKind
	SourceRef       string
	InputText       string
	Fingerprint     string
	Title           string
	Topic           string
	Language        string
	Status          Status
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	ErrorMessage    string
	FolderPath      string
	AudioPath       string
	ImagePath       string
	VideoPath       string
	YouTubeID       string
	YouTubeURL      string
	Announced       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastHeartbeat   *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// RollbackStatus returns the status a processing item returns to when its
// stage is abandoned and every stage is enabled.
func RollbackStatus(status Status) Status {
	return DefaultRollback().Target(status)
}

// DisplayTitle prefers the analyzed title, then the topic, then the source.
func (i Item) DisplayTitle() string {
	for _, candidate := range []string{i.Title, i.Topic, i.SourceRef} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v
		}
	}
	return "Untitled thought"
}

// InitProgress resets progress fields for a new stage.
func (i *Item) InitProgress(stage, message string) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields together.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}

// Fingerprint hashes the whitespace-normalized text so the same thought
// submitted twice maps to the same queue item.
func Fingerprint(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
