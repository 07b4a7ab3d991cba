package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podcaster/internal/config"
)

const userAgent = "Podcaster-Go/0.1.0"

// Event names a notification trigger.
type Event string

const (
	EventPipelineCompleted Event = "pipeline_completed"
	EventStageFailed       Event = "stage_failed"
	EventUploadCompleted   Event = "upload_completed"
	EventTest              Event = "test"
)

// Payload carries event fields such as "title", "url", "stage" or "error".
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed notifier. Without a topic every publish is
// a no-op.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventPipelineCompleted: cfg.Notifications.Completed,
			EventUploadCompleted:   cfg.Notifications.Uploads,
			EventStageFailed:       cfg.Notifications.Errors,
			EventTest:              true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
	click    string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	title := payload.text("title")
	if title == "" {
		title = "Untitled thought"
	}
	switch event {
	case EventPipelineCompleted:
		body := fmt.Sprintf("✅ Podcast ready: %s", title)
		if folder := payload.text("folder"); folder != "" {
			body += "\nFolder: " + folder
		}
		if url := payload.text("url"); url != "" {
			body += "\nVideo: " + url
		}
		return message{
			title:    "Podcaster - Complete",
			body:     body,
			tags:     []string{"podcaster", "pipeline", "completed"},
			priority: "high",
			click:    payload.text("url"),
		}, true
	case EventUploadCompleted:
		return message{
			title: "Podcaster - Uploaded",
			body:  fmt.Sprintf("📺 Uploaded to YouTube: %s\n%s", title, payload.text("url")),
			tags:  []string{"podcaster", "youtube", "uploaded"},
			click: payload.text("url"),
		}, true
	case EventStageFailed:
		var b strings.Builder
		b.WriteString("❌ Error")
		if stage := payload.text("stage"); stage != "" {
			b.WriteString(" in ")
			b.WriteString(stage)
		}
		if payload.text("title") != "" {
			b.WriteString(" for ")
			b.WriteString(title)
		}
		b.WriteString(": ")
		if errText := payload.text("error"); errText != "" {
			b.WriteString(errText)
		} else {
			b.WriteString("unknown")
		}
		return message{
			title:    "Podcaster - Error",
			body:     b.String(),
			tags:     []string{"podcaster", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Podcaster - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"podcaster", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key string) string {
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}
	if msg.click != "" {
		req.Header.Set("Click", msg.click)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
