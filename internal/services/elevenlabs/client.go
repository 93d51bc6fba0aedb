package elevenlabs

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
	defaultBaseURL     = "https://api.elevenlabs.io"
	defaultVoiceID     = "21m00Tcm4TlvDq8ikWAM"
	defaultModelID     = "eleven_monolingual_v1"
	defaultHTTPTimeout = 2 * time.Minute
)

// Config captures the text-to-speech settings.
type Config struct {
	APIKey          string
	BaseURL         string
	VoiceID         string
	ModelID         string
	Stability       float64
	SimilarityBoost float64
}

// Client synthesizes narration audio through the ElevenLabs API.
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

// NewClient constructs a voice client.
func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg: Config{
			APIKey:          strings.TrimSpace(cfg.APIKey),
			BaseURL:         strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			VoiceID:         strings.TrimSpace(cfg.VoiceID),
			ModelID:         strings.TrimSpace(cfg.ModelID),
			Stability:       cfg.Stability,
			SimilarityBoost: cfg.SimilarityBoost,
		},
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		retry:      httpretry.DefaultPolicy(),
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.VoiceID == "" {
		client.cfg.VoiceID = defaultVoiceID
	}
	if client.cfg.ModelID == "" {
		client.cfg.ModelID = defaultModelID
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name identifies the generator in logs.
func (c *Client) Name() string { return "elevenlabs:" + c.cfg.VoiceID }

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type emptyAudioError struct{}

func (emptyAudioError) Error() string   { return "voice generate: empty response body" }
func (emptyAudioError) Retryable() bool { return true }

// Generate synthesizes text into mp3 bytes.
func (c *Client) Generate(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("voice generate: text required")
	}
	if c.cfg.APIKey == "" {
		return nil, errors.New("voice generate: api key required")
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "v1", "text-to-speech", c.cfg.VoiceID)
	if err != nil {
		return nil, fmt.Errorf("voice generate: build url: %w", err)
	}
	encoded, err := json.Marshal(speechRequest{
		Text:    text,
		ModelID: c.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       c.cfg.Stability,
			SimilarityBoost: c.cfg.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("voice generate: encode body: %w", err)
	}

	var audio []byte
	err = c.retry.Do(ctx, "voice generate", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
		if err != nil {
			return fmt.Errorf("voice generate: new request: %w", err)
		}
		req.Header.Set("xi-api-key", c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "audio/mpeg")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("voice generate: http error: %w", err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("voice generate: read body: %w", err)
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			return httpretry.NewStatusError("voice generate", resp, body)
		}
		if len(body) == 0 {
			return emptyAudioError{}
		}
		audio = body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return audio, nil
}
