package huggingface

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
	defaultBaseURL     = "https://api-inference.huggingface.co"
	defaultModel       = "stabilityai/stable-diffusion-xl-base-1.0"
	defaultHTTPTimeout = 2 * time.Minute
)

// Config captures the inference endpoint settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client generates still images from a text prompt through the Hugging Face
// inference API.
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

// NewClient constructs an image client.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			APIKey:  strings.TrimSpace(cfg.APIKey),
			BaseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:   strings.Trim(strings.TrimSpace(cfg.Model), "/"),
		},
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		retry:      httpretry.DefaultPolicy(),
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name identifies the generator in logs.
func (c *Client) Name() string { return "huggingface:" + c.cfg.Model }

type emptyImageError struct{}

func (emptyImageError) Error() string   { return "image generate: empty response body" }
func (emptyImageError) Retryable() bool { return true }

// Generate renders prompt into image bytes.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("image generate: prompt required")
	}
	if c.cfg.APIKey == "" {
		return nil, errors.New("image generate: api key required")
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "models", c.cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("image generate: build url: %w", err)
	}
	encoded, err := json.Marshal(map[string]string{"inputs": prompt})
	if err != nil {
		return nil, fmt.Errorf("image generate: encode body: %w", err)
	}

	var image []byte
	err = c.retry.Do(ctx, "image generate", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
		if err != nil {
			return fmt.Errorf("image generate: new request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "image/png")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("image generate: http error: %w", err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("image generate: read body: %w", err)
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			return httpretry.NewStatusError("image generate", resp, body)
		}
		if len(body) == 0 {
			return emptyImageError{}
		}
		if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
			// The inference API reports model warm-up and quota errors as 200 + JSON.
			return fmt.Errorf("image generate: unexpected json response: %s", httpretry.Snippet(string(body)))
		}
		image = body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return image, nil
}
