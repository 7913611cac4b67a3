package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"telecine/internal/config"
)

const userAgent = "Telecine-Go/0.1.0"

// Event identifies a job lifecycle milestone.
type Event string

const (
	EventJobStarted           Event = "job_started"
	EventJobCompleted         Event = "job_completed"
	EventJobAborted           Event = "job_aborted"
	EventCalibrationCompleted Event = "calibration_completed"
	EventError                Event = "error"
	EventTest                 Event = "test"
)

// Payload carries event fields. Known keys: job, start, end, frames,
// failures, fallbacks, frame, duration, steps_forward, steps_backward,
// pixels_per_step, context, error.
type Payload map[string]any

// Service publishes events.
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
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventJobStarted:           cfg.Notifications.JobStart,
			EventJobCompleted:         cfg.Notifications.JobComplete,
			EventCalibrationCompleted: cfg.Notifications.JobComplete,
			EventJobAborted:           cfg.Notifications.Errors,
			EventError:                cfg.Notifications.Errors,
			EventTest:                 true,
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
	if !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, p Payload) (message, bool) {
	job := p.text("job")
	switch event {
	case EventJobStarted:
		return message{
			title: "Telecine - Job Started",
			body:  fmt.Sprintf("🎞️ Scanning %s: frames %d to %d", job, p.number("start"), p.number("end")),
			tags:  []string{"telecine", "job", "started"},
		}, true
	case EventJobCompleted:
		body := fmt.Sprintf("✅ %s: %d frames captured in %s", job, p.number("frames"), p.duration("duration"))
		if fallbacks := p.number("fallbacks"); fallbacks > 0 {
			body = fmt.Sprintf("%s (%d fallback crops)", body, fallbacks)
		}
		return message{
			title: "Telecine - Job Complete",
			body:  body,
			tags:  []string{"telecine", "job", "completed"},
		}, true
	case EventJobAborted:
		return message{
			title: "Telecine - Job Aborted",
			body: fmt.Sprintf("⛔ %s stopped at frame %d after %d failed detections",
				job, p.number("frame"), p.number("failures")),
			tags:     []string{"telecine", "job", "aborted"},
			priority: "high",
		}, true
	case EventCalibrationCompleted:
		return message{
			title: "Telecine - Calibrated",
			body: fmt.Sprintf("Steps per frame: %d forward, %d backward (%.3f px/step)",
				p.number("steps_forward"), p.number("steps_backward"), p.float("pixels_per_step")),
			tags: []string{"telecine", "calibration", "completed"},
		}, true
	case EventError:
		var b strings.Builder
		b.WriteString("❌ Error")
		if label := p.text("context"); label != "" {
			b.WriteString(" with ")
			b.WriteString(label)
		}
		b.WriteString(": ")
		if reason := p.text("error"); reason != "" {
			b.WriteString(reason)
		} else {
			b.WriteString("unknown")
		}
		return message{
			title:    "Telecine - Error",
			body:     b.String(),
			tags:     []string{"telecine", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Telecine - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"telecine", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
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
	if data.priority != "" {
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
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case error:
		return strings.TrimSpace(v.Error())
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (p Payload) number(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func (p Payload) float(key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (p Payload) duration(key string) string {
	d, _ := p[key].(time.Duration)
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
