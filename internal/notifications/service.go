package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"vidpress/internal/config"
	"vidpress/internal/metrics"
)

const userAgent = "vidpress/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventJobCompleted Event = "job_completed"
	EventJobFailed    Event = "job_failed"
	EventJobCancelled Event = "job_cancelled"
	EventTest         Event = "test"
)

// Payload carries event fields used to format the message.
type Payload map[string]any

// Service publishes notifications.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
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
			EventJobCompleted: cfg.Notifications.Success,
			EventJobFailed:    cfg.Notifications.Failure,
			EventJobCancelled: cfg.Notifications.Cancelled,
			EventTest:         true,
		},
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
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	err := n.send(ctx, msg)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.NotificationsSentTotal.WithLabelValues(status).Inc()
	return err
}

func format(event Event, payload Payload) (message, bool) {
	requestID := text(payload, "requestId")
	switch event {
	case EventJobCompleted:
		output := text(payload, "outputPath")
		body := fmt.Sprintf("✅ Transcode complete: %s", requestID)
		if output != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, filepath.Base(output))
		}
		return message{
			title: "vidpress - Complete",
			body:  body,
			tags:  []string{"vidpress", "transcode", "completed"},
		}, true
	case EventJobFailed:
		reason := text(payload, "error")
		if reason == "" {
			reason = "unknown"
		}
		return message{
			title:    "vidpress - Failed",
			body:     fmt.Sprintf("❌ Transcode failed: %s: %s", requestID, reason),
			tags:     []string{"vidpress", "error", "alert"},
			priority: "high",
		}, true
	case EventJobCancelled:
		return message{
			title: "vidpress - Cancelled",
			body:  fmt.Sprintf("Transcode cancelled: %s", requestID),
			tags:  []string{"vidpress", "transcode", "cancelled"},
		}, true
	case EventTest:
		return message{
			title:    "vidpress - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"vidpress", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func text(payload Payload, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n.client == nil {
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
