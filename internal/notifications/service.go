package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"unitcam/internal/config"
)

const userAgent = "unitcam/0.1.0"

// Event names a notification type.
type Event string

const (
	EventReadingCaptured Event = "reading_captured"
	EventRetryExhausted  Event = "retry_exhausted"
	EventCameraFailed    Event = "camera_failed"
	EventDataCleared     Event = "data_cleared"
	EventTest            Event = "test"
)

// Payload carries event fields.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

// format renders an event. ok is false for unknown events.
func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventReadingCaptured:
		body := fmt.Sprintf("📏 Captured: %s", payload.text("readings"))
		if skipped := payload.number("skipped"); skipped > 0 {
			body = fmt.Sprintf("%s\nSkipped: %d", body, skipped)
		}
		return message{
			title: "unitcam - Reading Captured",
			body:  body,
			tags:  []string{"unitcam", "capture", "accepted"},
		}, true
	case EventRetryExhausted:
		return message{
			title:    "unitcam - Capture Stopped",
			body:     fmt.Sprintf("Gave up after %d retries: %s", payload.number("attempts"), payload.text("error")),
			tags:     []string{"unitcam", "capture", "retry"},
			priority: "high",
		}, true
	case EventCameraFailed:
		return message{
			title:    "unitcam - Camera Failed",
			body:     fmt.Sprintf("❌ Camera unavailable: %s", payload.text("error")),
			tags:     []string{"unitcam", "camera", "alert"},
			priority: "high",
		}, true
	case EventDataCleared:
		return message{
			title: "unitcam - Data Cleared",
			body:  fmt.Sprintf("Stored readings cleared on %s", payload.text("server")),
			tags:  []string{"unitcam", "data", "cleared"},
		}, true
	case EventTest:
		return message{
			title:    "unitcam - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"unitcam", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
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

func (p Payload) text(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case error:
		return strings.TrimSpace(val.Error())
	case []string:
		return strings.Join(val, ", ")
	default:
		return fmt.Sprint(val)
	}
}

func (p Payload) number(key string) int {
	switch val := p[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	default:
		return 0
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
