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

	"reelforge/internal/config"
	"reelforge/internal/notifications"
	"reelforge/internal/services/httpretry"
)

type captured struct {
	title    string
	message  string
	tags     string
	priority string
	click    string
}

func ntfyServer(t *testing.T, status int) (*httptest.Server, *[]captured) {
	t.Helper()
	return ntfyServerSequence(t, status)
}

// ntfyServerSequence answers successive requests with statuses in order,
// repeating the last one.
func ntfyServerSequence(t *testing.T, statuses ...int) (*httptest.Server, *[]captured) {
	t.Helper()
	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := statuses[min(len(requests), len(statuses)-1)]
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			message:  string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			click:    r.Header.Get("Click"),
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyJobFailed(context.Background(), "Example", "upload"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected nil config to yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	server, requests := ntfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyJobCompleted(context.Background(), "Ocean Dawn", "https://cdn.test/v.mp4"); err != nil {
		t.Fatalf("NotifyJobCompleted: %v", err)
	}
	if err := svc.NotifyJobFailed(context.Background(), "", "asset_generation"); err != nil {
		t.Fatalf("NotifyJobFailed: %v", err)
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}

	tests := []captured{
		{
			title:    "reelforge - Video Ready",
			message:  "✅ Video ready: Ocean Dawn\nhttps://cdn.test/v.mp4",
			tags:     "reelforge,render,completed",
			priority: "high",
			click:    "https://cdn.test/v.mp4",
		},
		{
			title:    "reelforge - Render Failed",
			message:  "❌ Render failed: untitled (asset_generation)\nCheck the job log for details",
			tags:     "reelforge,render,failed",
			priority: "high",
		},
		{
			title:    "reelforge - Test",
			message:  "🧪 Notification system test",
			tags:     "reelforge,test",
			priority: "low",
		},
	}
	if len(*requests) != len(tests) {
		t.Fatalf("expected %d requests, got %d", len(tests), len(*requests))
	}
	for i, want := range tests {
		if got := (*requests)[i]; got != want {
			t.Fatalf("request %d: got %+v want %+v", i, got, want)
		}
	}
}

func TestNtfyServiceHonoursEventToggles(t *testing.T) {
	server, requests := ntfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.JobCompleted = false
	cfg.Notifications.JobFailed = false
	svc := notifications.NewService(&cfg)

	_ = svc.NotifyJobCompleted(context.Background(), "a", "b")
	_ = svc.NotifyJobFailed(context.Background(), "a", "b")
	if len(*requests) != 0 {
		t.Fatalf("expected toggled-off events to be skipped, got %d requests", len(*requests))
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server, _ := ntfyServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	err := notifications.NewService(&cfg, notifications.WithRetryPolicy(noWait)).TestNotification(context.Background())
	var statusErr *httpretry.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 status error, got %v", err)
	}
}

var noWait = httpretry.Policy{MaxAttempts: 3, Sleeper: func(time.Duration) {}}

func TestNtfyServiceRetriesTransientFailures(t *testing.T) {
	server, requests := ntfyServerSequence(t, http.StatusServiceUnavailable, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg, notifications.WithRetryPolicy(noWait))

	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if len(*requests) != 2 {
		t.Fatalf("expected one retry, got %d requests", len(*requests))
	}
}

func TestNtfyServiceDoesNotRetryClientErrors(t *testing.T) {
	server, requests := ntfyServer(t, http.StatusBadRequest)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	err := notifications.NewService(&cfg, notifications.WithRetryPolicy(noWait)).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected 400 error, got %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("client errors must not be retried, got %d requests", len(*requests))
	}
}
