package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/services/httpretry"
)

const userAgent = "reelforge/0.1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyJobCompleted(ctx context.Context, title, videoURL string) error
	NotifyJobFailed(ctx context.Context, title, errorKind string) error
	TestNotification(ctx context.Context) error
}

// Option adjusts an ntfy-backed service.
type Option func(*ntfyService)

// WithRetryPolicy replaces the delivery retry policy.
func WithRetryPolicy(p httpretry.Policy) Option {
	return func(n *ntfyService) { n.retry = p }
}

// NewService returns an ntfy-backed Service, or a no-op one when cfg has no
// topic.
func NewService(cfg *config.Config, opts ...Option) Service {
	if cfg == nil || strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	n := &ntfyService{
		endpoint: strings.TrimSpace(cfg.Notifications.NtfyTopic),
		client:   &http.Client{Timeout: timeout},
		retry:    httpretry.Policy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 5 * time.Second},
		enabled: map[event]bool{
			eventCompleted: cfg.Notifications.JobCompleted,
			eventFailed:    cfg.Notifications.JobFailed,
			eventTest:      true,
		},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type event int

const (
	eventCompleted event = iota
	eventFailed
	eventTest
)

// message is one ntfy publish; fields map onto ntfy request headers.
type message struct {
	title    string
	body     string
	tags     []string
	priority string
	click    string
}

func (m message) headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	set := func(key, value string) {
		if value != "" {
			h.Set(key, value)
		}
	}
	set("Title", m.title)
	set("Tags", strings.Join(m.tags, ","))
	if m.priority != "default" {
		set("Priority", m.priority)
	}
	set("Click", m.click)
	return h
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	retry    httpretry.Policy
	enabled  map[event]bool
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, title, videoURL string) error {
	videoURL = strings.TrimSpace(videoURL)
	body := "✅ Video ready: " + displayTitle(title)
	if videoURL != "" {
		body += "\n" + videoURL
	}
	return n.publish(ctx, eventCompleted, message{
		title:    "reelforge - Video Ready",
		body:     body,
		tags:     []string{"reelforge", "render", "completed"},
		priority: "high",
		click:    videoURL,
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, title, errorKind string) error {
	kind := strings.TrimSpace(errorKind)
	if kind == "" {
		kind = "unknown"
	}
	return n.publish(ctx, eventFailed, message{
		title:    "reelforge - Render Failed",
		body:     fmt.Sprintf("❌ Render failed: %s (%s)\nCheck the job log for details", displayTitle(title), kind),
		tags:     []string{"reelforge", "render", "failed"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.publish(ctx, eventTest, message{
		title:    "reelforge - Test",
		body:     "🧪 Notification system test",
		tags:     []string{"reelforge", "test"},
		priority: "low",
	})
}

// publish delivers msg when ev is enabled, retrying throttled and 5xx
// responses.
func (n *ntfyService) publish(ctx context.Context, ev event, msg message) error {
	if !n.enabled[ev] {
		return nil
	}
	return n.retry.Do(ctx, "ntfy publish", func(ctx context.Context) error {
		return n.post(ctx, msg)
	})
}

func (n *ntfyService) post(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header = msg.headers()

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return httpretry.NewStatusError("ntfy publish", resp, body)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func displayTitle(title string) string {
	if title = strings.TrimSpace(title); title == "" {
		return "untitled"
	}
	return title
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifyJobFailed(context.Context, string, string) error    { return nil }
func (noopService) TestNotification(context.Context) error                   { return nil }
