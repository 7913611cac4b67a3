package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"telecine/internal/config"
	"telecine/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventJobCompleted, notifications.Payload{"job": "reel1"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "job started",
			event:         notifications.EventJobStarted,
			payload:       notifications.Payload{"job": "HolidayReel", "start": 0, "end": 3599},
			expectTitle:   "Telecine - Job Started",
			expectMessage: "🎞️ Scanning HolidayReel: frames 0 to 3599",
			expectTags:    "telecine,job,started",
		},
		{
			name:  "job completed with fallbacks",
			event: notifications.EventJobCompleted,
			payload: notifications.Payload{
				"job":       "HolidayReel",
				"frames":    3600,
				"fallbacks": 2,
				"duration":  2*time.Hour + 3*time.Minute + 400*time.Millisecond,
			},
			expectTitle:   "Telecine - Job Complete",
			expectMessage: "✅ HolidayReel: 3600 frames captured in 2h3m0s (2 fallback crops)",
			expectTags:    "telecine,job,completed",
		},
		{
			name:           "job aborted",
			event:          notifications.EventJobAborted,
			payload:        notifications.Payload{"job": "HolidayReel", "frame": 412, "failures": 5},
			expectTitle:    "Telecine - Job Aborted",
			expectMessage:  "⛔ HolidayReel stopped at frame 412 after 5 failed detections",
			expectTags:     "telecine,job,aborted",
			expectPriority: "high",
		},
		{
			name:  "calibration completed",
			event: notifications.EventCalibrationCompleted,
			payload: notifications.Payload{
				"steps_forward":   296,
				"steps_backward":  301,
				"pixels_per_step": 4.0626,
			},
			expectTitle:   "Telecine - Calibrated",
			expectMessage: "Steps per frame: 296 forward, 301 backward (4.063 px/step)",
			expectTags:    "telecine,calibration,completed",
		},
		{
			name:           "error",
			event:          notifications.EventError,
			payload:        notifications.Payload{"context": "capture", "error": errors.New("camera unplugged")},
			expectTitle:    "Telecine - Error",
			expectMessage:  "❌ Error with capture: camera unplugged",
			expectTags:     "telecine,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "Telecine - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "telecine,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceIgnoresDisabledEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for disabled event: %s", r.Header.Get("Title"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.JobStart = false
	cfg.Notifications.JobComplete = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	disabled := []notifications.Event{
		notifications.EventJobStarted,
		notifications.EventJobCompleted,
		notifications.EventCalibrationCompleted,
		notifications.EventJobAborted,
		notifications.EventError,
		notifications.Event("unknown"),
	}
	for _, event := range disabled {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"job": "ignored"}); err != nil {
			t.Fatalf("expected no error for disabled event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic locked", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil)
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "topic locked") {
		t.Fatalf("expected 403 error with body, got %v", err)
	}
}
