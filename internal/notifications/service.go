package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"seen/internal/config"
)

const userAgent = "seen/0.1.0"

// Event names a notification-worthy workflow milestone.
type Event string

const (
	EventAwaitingAnnotation Event = "awaiting_annotation"
	EventJobCompleted       Event = "job_completed"
	EventJobFailed          Event = "job_failed"
	EventQueueStarted       Event = "queue_started"
	EventQueueCompleted     Event = "queue_completed"
	EventTest               Event = "test"
)

// Payload carries event fields. Keys used by the ntfy formatter: "source",
// "id", "output", "redacted", "error", "context", "count", "processed",
// "failed", "duration".
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
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
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		jobCompleted: cfg.Notifications.JobCompleted,
		jobFailed:    cfg.Notifications.JobFailed,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	jobCompleted bool
	jobFailed    bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled(event) {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return fmt.Errorf("unsupported notification event %q", event)
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventJobCompleted:
		return n.jobCompleted
	case EventJobFailed:
		return n.jobFailed
	default:
		return true
	}
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventAwaitingAnnotation:
		return message{
			title: "seen - Ready to Annotate",
			body:  fmt.Sprintf("Frames sampled for %s (%s)", payload.text("source", "upload"), payload.text("id", "unknown")),
			tags:  []string{"seen", "annotate"},
		}, true
	case EventJobCompleted:
		body := fmt.Sprintf("Redacted %s: %d frames blurred", payload.text("source", "upload"), payload.number("redacted"))
		if output := payload.text("output", ""); output != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, output)
		}
		return message{
			title:    "seen - Redaction Complete",
			body:     body,
			tags:     []string{"seen", "redact", "completed"},
			priority: "high",
		}, true
	case EventJobFailed:
		var builder strings.Builder
		builder.WriteString("Error")
		if label := payload.text("context", ""); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if err, ok := payload["error"].(error); ok && err != nil {
			builder.WriteString(strings.TrimSpace(err.Error()))
		} else {
			builder.WriteString(payload.text("error", "unknown"))
		}
		return message{
			title:    "seen - Error",
			body:     builder.String(),
			tags:     []string{"seen", "error", "alert"},
			priority: "high",
		}, true
	case EventQueueStarted:
		return message{
			title: "seen - Queue Started",
			body:  fmt.Sprintf("Started processing queue with %d jobs", payload.number("count")),
			tags:  []string{"seen", "queue", "started"},
		}, true
	case EventQueueCompleted:
		duration, _ := payload["duration"].(time.Duration)
		duration = max(duration.Round(time.Second), 0)
		processed, failed := payload.number("processed"), payload.number("failed")
		if failed == 0 {
			return message{
				title: "seen - Queue Complete",
				body:  fmt.Sprintf("Queue processing complete: %d jobs processed in %s", processed, duration),
				tags:  []string{"seen", "queue", "completed"},
			}, true
		}
		return message{
			title: "seen - Queue Complete (with errors)",
			body:  fmt.Sprintf("Queue processing complete: %d succeeded, %d failed in %s", processed, failed, duration),
			tags:  []string{"seen", "queue", "completed"},
		}, true
	case EventTest:
		return message{
			title:    "seen - Test",
			body:     "Notification system test",
			tags:     []string{"seen", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key, fallback string) string {
	if p == nil {
		return fallback
	}
	switch v := p[key].(type) {
	case string:
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	case fmt.Stringer:
		return v.String()
	}
	return fallback
}

func (p Payload) number(key string) int {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

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
