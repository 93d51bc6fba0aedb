package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/services"
	"reelforge/internal/services/shotstack"
	"reelforge/internal/timeline"
)

const stage = "render"

// Executor composes a RenderSpec into encoded video bytes.
type Executor interface {
	Render(ctx context.Context, spec timeline.RenderSpec) ([]byte, error)
}

type options struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes an executor.
type Option func(*options)

// WithHTTPClient overrides the client used to fetch assets and results.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "render")
	return o
}

// New builds the executor selected by render.backend.
func New(cfg *config.Config, opts ...Option) (Executor, error) {
	switch cfg.Render.Backend {
	case config.RenderBackendFFmpeg:
		return NewFFmpeg(FFmpegConfig{
			Binary:        cfg.FFmpegBinary(),
			WorkDir:       cfg.Paths.WorkDir,
			Preset:        cfg.Render.Preset,
			Threads:       cfg.Render.Threads,
			Timeout:       cfg.RenderTimeout(),
			KeepWorkFiles: cfg.Render.KeepWorkFiles,
		}, opts...), nil
	case config.RenderBackendShotstack:
		client := shotstack.NewClient(shotstack.Config{
			APIKey:      cfg.Shotstack.APIKey,
			BaseURL:     cfg.Shotstack.BaseURL,
			Environment: cfg.Shotstack.Environment,
		})
		return NewShotstack(client, ShotstackConfig{
			Resolution:   cfg.Shotstack.Resolution,
			PollInterval: time.Duration(cfg.Shotstack.PollIntervalSeconds) * time.Second,
			Timeout:      cfg.RenderTimeout(),
		}, opts...), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, stage, "select backend",
			fmt.Sprintf("unsupported render backend %q", cfg.Render.Backend), nil)
	}
}

// compositionError tags err as a composition failure, adding ErrTimeout when
// the render deadline expired.
func compositionError(ctx context.Context, operation, message string, err error) error {
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		if !errors.Is(err, services.ErrTimeout) {
			err = errors.Join(err, services.ErrTimeout)
		}
	}
	if err != nil && errors.Is(err, services.ErrComposition) {
		return err
	}
	return services.Wrap(services.ErrComposition, stage, operation, message, err)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
