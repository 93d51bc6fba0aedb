// Package httpretry holds the retry and backoff policy shared by the HTTP
// provider clients (image, voice, chat completions, hosted compositor).
//
// Requests are retried on HTTP 408, 429 and 5xx responses, on network
// timeouts, and on errors that report themselves as retryable. Context
// cancellation and deadline expiry stop retries immediately.
package httpretry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	op := e.Op
	if op == "" {
		op = "http request"
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: http %d", op, e.StatusCode)
	}
	return fmt.Sprintf("%s: http %d: %s", op, e.StatusCode, Snippet(body))
}

// NewStatusError builds a StatusError from a response whose body has already been read.
func NewStatusError(op string, resp *http.Response, body []byte) *StatusError {
	retryAfter, _ := ParseRetryAfter(resp.Header.Get("Retry-After"))
	return &StatusError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
		RetryAfter: retryAfter,
	}
}

// Retryable marks errors that should always be retried (for example a 200
// response with an empty payload).
type Retryable interface {
	Retryable() bool
}

// Policy controls retry attempts and backoff.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Sleeper     func(time.Duration)
}

// DefaultPolicy returns the provider default: 5 attempts, 1s base, 10s cap.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// Attempts returns the effective attempt count (at least one).
func (p Policy) Attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Do runs fn until it succeeds, returns a non-retryable error, or attempts
// run out. The final error wraps the last failure.
func (p Policy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := p.Attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		delay, retry := p.Delay(ctx, err, attempt)
		if !retry {
			return err
		}
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

// Delay decides whether err deserves another attempt and how long to wait.
func (p Policy) Delay(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if attempt >= p.Attempts() || err == nil || ctx == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var marked Retryable
	if errors.As(err, &marked) && marked.Retryable() {
		return p.backoff(attempt), true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return p.capDelay(statusErr.RetryAfter), true
			}
			return p.backoff(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return p.backoff(attempt), true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return p.backoff(attempt), true
	}
	return 0, false
}

func (p Policy) backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base < 0 {
		base = DefaultBaseDelay
	}
	if base == 0 {
		return 0
	}
	maxDelay := p.maxDelay()
	if attempt <= 0 {
		attempt = 1
	}
	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return p.capDelay(delay)
}

func (p Policy) maxDelay() time.Duration {
	if p.MaxDelay > 0 {
		return p.MaxDelay
	}
	return DefaultMaxDelay
}

func (p Policy) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if maxDelay := p.maxDelay(); delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (p Policy) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Sleeper != nil {
		p.Sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ParseRetryAfter reads a Retry-After header in either seconds or HTTP-date form.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

// Snippet collapses whitespace and truncates a payload for error messages.
func Snippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
