package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelforge/internal/services/httpretry"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout = 15 * time.Second
	scriptTemperature  = 0.7
)

// ErrRefused reports that the model declined the prompt. Retrying the same
// prompt does not help, so the retry policy gives up immediately.
var ErrRefused = errors.New("model refused request")

// Config captures the connection settings of an OpenAI-compatible endpoint.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client issues JSON-mode chat completions.
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

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(policy httpretry.Policy) Option {
	return func(c *Client) { c.retry = policy }
}

// NewClient constructs a client. An empty BaseURL targets OpenRouter.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		retry:      httpretry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Model returns the configured model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.cfg.Model
}

// CompleteJSON sends a system and user prompt in JSON mode and returns the raw
// JSON text the model produced. Empty answers are retried; refusals are not.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	switch {
	case !c.Configured():
		return "", errors.New("llm complete: api key required")
	case systemPrompt == "" || userPrompt == "":
		return "", errors.New("llm complete: system and user prompts required")
	}
	return c.complete(ctx, "llm complete", newJSONRequest(c.cfg.Model, scriptTemperature, systemPrompt, userPrompt))
}

// Ping asks the model for a fixed JSON document. It verifies the key, the
// model name and JSON mode support in one round trip.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Configured() {
		return errors.New("llm ping: api key required")
	}
	req := newJSONRequest(c.cfg.Model, 0, "Reply with JSON only.", `Reply with {"ok":true}`)
	content, err := c.complete(ctx, "llm ping", req)
	if err != nil {
		return err
	}
	var reply struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(content, &reply); err != nil {
		return fmt.Errorf("llm ping: %w", err)
	}
	if !reply.OK {
		return fmt.Errorf("llm ping: unexpected reply %s", httpretry.Snippet(content))
	}
	return nil
}

func (c *Client) complete(ctx context.Context, op string, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%s: encode request: %w", op, err)
	}
	var content string
	err = c.retry.Do(ctx, op, func(ctx context.Context) error {
		resp, raw, err := c.post(ctx, op, body)
		if err != nil {
			return err
		}
		text, err := resp.content(op, raw)
		if err != nil {
			return err
		}
		content = text
		return nil
	})
	return content, err
}

func (c *Client) post(ctx context.Context, op string, body []byte) (chatResponse, []byte, error) {
	var out chatResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return out, nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, nil, fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return out, raw, httpretry.NewStatusError(op, resp, raw)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, raw, fmt.Errorf("%s: decode response: %w", op, err)
	}
	if out.Error != nil && strings.TrimSpace(out.Error.Message) != "" {
		return out, raw, fmt.Errorf("%s: provider error: %s", op, strings.TrimSpace(out.Error.Message))
	}
	return out, raw, nil
}
