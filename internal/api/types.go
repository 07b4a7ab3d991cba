package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes a queue entry in a transport-friendly format.
type QueueItem struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	Topic        string        `json:"topic,omitempty"`
	Language     string        `json:"language,omitempty"`
	Source       string        `json:"source"`
	SourceRef    string        `json:"sourceRef,omitempty"`
	Status       string        `json:"status"`
	Progress     QueueProgress `json:"progress"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	CreatedAt    string        `json:"createdAt,omitempty"`
	UpdatedAt    string        `json:"updatedAt,omitempty"`
	Folder       string        `json:"folder,omitempty"`
	AudioFile    string        `json:"audioFile,omitempty"`
	ImageFile    string        `json:"imageFile,omitempty"`
	VideoFile    string        `json:"videoFile,omitempty"`
	YouTubeURL   string        `json:"youtubeUrl,omitempty"`
	Announced    bool          `json:"announced"`
	Text         string        `json:"text,omitempty"`
}

// QueueProgress captures stage progress information for a queue entry.
type QueueProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	Stages      []string       `json:"stages"`
	QueueStats  map[string]int `json:"queueStats"`
	LastError   string         `json:"lastError,omitempty"`
	LastItem    *QueueItem     `json:"lastItem,omitempty"`
	StageHealth []StageHealth  `json:"stageHealth"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status   string          `json:"status"`
	Database string          `json:"database"`
	Workflow *WorkflowStatus `json:"workflow,omitempty"`
}

// QueueListResponse wraps a collection of queue items for API responses.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueItemResponse wraps a single queue item.
type QueueItemResponse struct {
	Item QueueItem `json:"item"`
}

// CreateRequest is the body of POST /api/podcasts.
type CreateRequest struct {
	Text string `json:"text"`
}

// ErrorResponse carries a failed request's reason.
type ErrorResponse struct {
	Error string `json:"error"`
}
