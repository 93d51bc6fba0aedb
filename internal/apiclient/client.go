package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reelforge/internal/api"
	"reelforge/internal/scene"
	"reelforge/internal/services/httpretry"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 3 * time.Second
	maxErrorBody        = 64 << 10
)

// ErrDaemonUnreachable reports that no daemon answered at the configured address.
var ErrDaemonUnreachable = errors.New("reelforge daemon is not reachable")

// Error is a non-2xx reply from the daemon.
type Error struct {
	StatusCode int
	Message    string
	JobID      string
}

func (e *Error) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.JobID != "" {
		return fmt.Sprintf("daemon returned %d: %s (job %s)", e.StatusCode, msg, e.JobID)
	}
	return fmt.Sprintf("daemon returned %d: %s", e.StatusCode, msg)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Client issues requests against the daemon HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// New builds a client for the daemon at address. A bare host:port is
// treated as http.
func New(address string, opts ...Option) (*Client, error) {
	base, err := normalizeBaseURL(address)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the daemon root URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func normalizeBaseURL(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", errors.New("daemon address is empty")
	}
	if !strings.Contains(address, "://") {
		host, port, err := net.SplitHostPort(address)
		if err != nil {
			return "", fmt.Errorf("parse daemon address %q: %w", address, err)
		}
		if host == "" || host == "0.0.0.0" || host == "::" {
			host = "127.0.0.1"
		}
		address = "http://" + net.JoinHostPort(host, port)
	}
	parsed, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("parse daemon address %q: %w", address, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported daemon scheme %q", parsed.Scheme)
	}
	return strings.TrimRight(parsed.String(), "/"), nil
}

// Submit creates a render job. A rejected submission that was still recorded
// returns the job id alongside the error.
func (c *Client) Submit(ctx context.Context, script scene.Script) (string, error) {
	req := api.SubmitRequest{Title: script.Title, Description: script.Description, Scenes: script.Scenes}
	var resp api.SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/api/jobs", nil, req, &resp); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) {
			return apiErr.JobID, err
		}
		return "", err
	}
	return resp.JobID, nil
}

// Status returns the poll view of a job.
func (c *Client) Status(ctx context.Context, id string) (api.StatusResponse, error) {
	var resp api.StatusResponse
	err := c.do(ctx, http.MethodGet, "/api/status", url.Values{"id": {id}}, nil, &resp)
	return resp, err
}

// Job returns the operator view of a job.
func (c *Client) Job(ctx context.Context, id string) (api.Job, error) {
	var resp api.Job
	err := c.do(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id), nil, nil, &resp)
	return resp, err
}

// List returns recent jobs, optionally filtered by status.
func (c *Client) List(ctx context.Context, limit int, statuses ...string) ([]api.Job, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if len(statuses) > 0 {
		query.Set("status", strings.Join(statuses, ","))
	}
	var resp api.JobListResponse
	if err := c.do(ctx, http.MethodGet, "/api/jobs", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// GenerateScript asks the daemon to draft a script for concept.
func (c *Client) GenerateScript(ctx context.Context, concept string) (scene.Script, error) {
	var resp api.ScriptResponse
	err := c.do(ctx, http.MethodPost, "/api/script", nil, api.ScriptRequest{Concept: concept}, &resp)
	return resp.Script, err
}

// Health returns daemon runtime information. A 503 reply still decodes the
// report and is returned without error so callers can inspect failing checks.
func (c *Client) Health(ctx context.Context, deep bool) (api.HealthResponse, error) {
	var query url.Values
	if deep {
		query = url.Values{"deep": {"1"}}
	}
	var resp api.HealthResponse
	err := c.do(ctx, http.MethodGet, "/api/health", query, nil, &resp)
	return resp, err
}

// WaitForCompletion polls a job until it is done or failed. onPoll, when set,
// observes every poll result.
func (c *Client) WaitForCompletion(ctx context.Context, id string, interval time.Duration, onPoll func(api.StatusResponse)) (api.StatusResponse, error) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		status, err := c.Status(ctx, id)
		if err != nil {
			return status, err
		}
		if onPoll != nil {
			onPoll(status)
		}
		if status.Terminal() {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" {
			return fmt.Errorf("%w at %s: %v", ErrDaemonUnreachable, c.baseURL, err)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody*16))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusServiceUnavailable && path == "/api/health" {
		if out != nil && json.Unmarshal(data, out) == nil {
			return nil
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var payload api.ErrorResponse
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return &Error{StatusCode: status, Message: payload.Error, JobID: payload.JobID}
	}
	if len(data) > maxErrorBody {
		data = data[:maxErrorBody]
	}
	return &Error{StatusCode: status, Message: httpretry.Snippet(string(data))}
}
