package shotstack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelforge/internal/services/httpretry"
)

const (
	defaultBaseURL     = "https://api.shotstack.io"
	defaultEnvironment = "stage"
	defaultHTTPTimeout = 60 * time.Second
)

// Render states reported by the API.
const (
	StatusQueued    = "queued"
	StatusFetching  = "fetching"
	StatusRendering = "rendering"
	StatusSaving    = "saving"
	StatusDone      = "done"
	StatusFailed    = "failed"
)

// Config captures the Shotstack account settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Environment string
}

// RenderStatus is the state of a submitted render.
type RenderStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	URL    string `json:"url"`
	Error  string `json:"error"`
}

// Terminal reports whether polling can stop.
func (s RenderStatus) Terminal() bool {
	return s.Status == StatusDone || s.Status == StatusFailed
}

// Client talks to the Shotstack Edit API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	retry      httpretry.Policy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(policy httpretry.Policy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}

// NewClient constructs a Shotstack client.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			APIKey:      strings.TrimSpace(cfg.APIKey),
			BaseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Environment: strings.Trim(strings.TrimSpace(cfg.Environment), "/"),
		},
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		retry:      httpretry.DefaultPolicy(),
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Environment == "" {
		client.cfg.Environment = defaultEnvironment
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type envelope struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Response json.RawMessage `json:"response"`
}

// Submit queues edit for rendering and returns the render id.
func (c *Client) Submit(ctx context.Context, edit Edit) (string, error) {
	if c.cfg.APIKey == "" {
		return "", errors.New("shotstack submit: api key required")
	}
	encoded, err := json.Marshal(edit)
	if err != nil {
		return "", fmt.Errorf("shotstack submit: encode edit: %w", err)
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, c.cfg.Environment, "render")
	if err != nil {
		return "", fmt.Errorf("shotstack submit: build url: %w", err)
	}
	var queued struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, "shotstack submit", http.MethodPost, endpoint, encoded, &queued); err != nil {
		return "", err
	}
	if queued.ID == "" {
		return "", errors.New("shotstack submit: response missing render id")
	}
	return queued.ID, nil
}

// Status fetches the current state of a render.
func (c *Client) Status(ctx context.Context, id string) (RenderStatus, error) {
	var status RenderStatus
	if strings.TrimSpace(id) == "" {
		return status, errors.New("shotstack status: render id required")
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, c.cfg.Environment, "render", id)
	if err != nil {
		return status, fmt.Errorf("shotstack status: build url: %w", err)
	}
	err = c.do(ctx, "shotstack status", http.MethodGet, endpoint, nil, &status)
	return status, err
}

// Download fetches the rendered file.
func (c *Client) Download(ctx context.Context, fileURL string) ([]byte, error) {
	var data []byte
	err := c.retry.Do(ctx, "shotstack download", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
		if err != nil {
			return fmt.Errorf("shotstack download: new request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("shotstack download: http error: %w", err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("shotstack download: read body: %w", err)
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			return httpretry.NewStatusError("shotstack download", resp, body)
		}
		if len(body) == 0 {
			return errors.New("shotstack download: empty file")
		}
		data = body
		return nil
	})
	return data, err
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body []byte, target any) error {
	return c.retry.Do(ctx, op, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return fmt.Errorf("%s: new request: %w", op, err)
		}
		req.Header.Set("x-api-key", c.cfg.APIKey)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s: http error: %w", op, err)
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%s: read body: %w", op, err)
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			return httpretry.NewStatusError(op, resp, raw)
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
		if !env.Success {
			return fmt.Errorf("%s: api error: %s", op, strings.TrimSpace(env.Message))
		}
		if err := json.Unmarshal(env.Response, target); err != nil {
			return fmt.Errorf("%s: decode payload: %w", op, err)
		}
		return nil
	})
}
