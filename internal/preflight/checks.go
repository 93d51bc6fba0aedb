package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/deps"
	"reelforge/internal/services/httpretry"
	"reelforge/internal/services/llm"
)

const llmProbeTimeout = 30 * time.Second

// CheckLLM sends one JSON-mode probe without retries.
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	ctx, cancel := context.WithTimeout(ctx, llmProbeTimeout)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryPolicy(httpretry.Policy{MaxAttempts: 1}))
	if err := client.Ping(ctx); err != nil {
		return Result{Name: name, Detail: describeProbeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", cfg.Model)}
}

// CheckDirectoryAccess verifies that the directory exists and is writable.
func CheckDirectoryAccess(name, path string) Result {
	if err := deps.CheckWritable(path); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckCredential reports whether a secret is configured without revealing it.
func CheckCredential(name, value string) Result {
	value = strings.TrimSpace(value)
	if value == "" {
		return Result{Name: name, Detail: "not set"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("set (%d chars)", len(value))}
}

// CheckSystemDeps evaluates the external binaries required by the configured
// render backend. Both the daemon and the doctor command use this list.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	if cfg == nil {
		return nil
	}
	return []deps.Status{
		deps.CheckFFmpeg(ctx, cfg.FFmpegBinary(), cfg.Render.Backend == config.RenderBackendFFmpeg),
	}
}

func dirCheck(name, path string) Check {
	return Check{Name: name, Run: func(context.Context) Result { return CheckDirectoryAccess(name, path) }}
}

func credentialCheck(name, value string) Check {
	return Check{Name: name, Run: func(context.Context) Result { return CheckCredential(name, value) }}
}

func describeProbeError(err error) string {
	var netErr net.Error
	var statusErr *httpretry.StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("no answer within %s", llmProbeTimeout)
	case errors.As(err, &netErr) && netErr.Timeout():
		return "endpoint unreachable (timeout)"
	case errors.Is(err, llm.ErrRefused):
		return "model refused the probe"
	case errors.As(err, &statusErr):
		return fmt.Sprintf("endpoint answered HTTP %d", statusErr.StatusCode)
	}
	return err.Error()
}
