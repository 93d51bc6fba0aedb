package render

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reelforge/internal/logging"
	"reelforge/internal/services"
	"reelforge/internal/timeline"
)

var commandContext = exec.CommandContext

const stderrTailLimit = 2048

// FFmpegConfig configures local composition.
type FFmpegConfig struct {
	Binary        string
	WorkDir       string
	Preset        string
	Threads       int
	FrameRate     int
	Timeout       time.Duration
	KeepWorkFiles bool
}

// FFmpeg composes videos with a local ffmpeg binary.
type FFmpeg struct {
	cfg        FFmpegConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFFmpeg constructs the local executor.
func NewFFmpeg(cfg FFmpegConfig, opts ...Option) *FFmpeg {
	o := applyOptions(opts)
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = "ffmpeg"
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = defaultFrameRate
	}
	return &FFmpeg{cfg: cfg, httpClient: o.httpClient, logger: o.logger.With(logging.String("backend", "ffmpeg"))}
}

// Render downloads the spec's media, runs ffmpeg, and returns the mp4 bytes.
func (f *FFmpeg) Render(ctx context.Context, spec timeline.RenderSpec) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, f.cfg.Timeout)
	defer cancel()
	logger := logging.WithContext(ctx, f.logger)

	dir, err := f.workDir(ctx)
	if err != nil {
		return nil, compositionError(ctx, "prepare", "create work dir", err)
	}
	if !f.cfg.KeepWorkFiles {
		defer os.RemoveAll(dir)
	}

	inputs, err := materialize(ctx, f.httpClient, spec, dir)
	if err != nil {
		return nil, compositionError(ctx, "materialize", "fetch media", err)
	}

	output := filepath.Join(dir, "video.mp4")
	args, err := BuildFFmpegArgs(spec, inputs, output, EncodeSettings{
		Preset:    f.cfg.Preset,
		Threads:   f.cfg.Threads,
		FrameRate: f.cfg.FrameRate,
		Progress:  true,
	})
	if err != nil {
		return nil, compositionError(ctx, "build args", "", err)
	}

	started := time.Now()
	logger.Info("ffmpeg composition started",
		logging.String(logging.FieldEventType, "render_started"),
		logging.Int("scenes", len(spec.Entries)),
		logging.Duration("total_duration", spec.TotalDuration()),
		logging.String("work_dir", dir),
	)
	if err := f.run(ctx, logger, args, spec.TotalDuration()); err != nil {
		return nil, compositionError(ctx, "ffmpeg", "", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, compositionError(ctx, "read output", output, err)
	}
	if len(data) == 0 {
		return nil, compositionError(ctx, "read output", "ffmpeg produced an empty file", nil)
	}
	logger.Info("ffmpeg composition finished",
		logging.String(logging.FieldEventType, "render_completed"),
		logging.Int("bytes", len(data)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return data, nil
}

func (f *FFmpeg) workDir(ctx context.Context) (string, error) {
	base := f.cfg.WorkDir
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	pattern := "render-*"
	if jobID, ok := services.JobIDFromContext(ctx); ok {
		pattern = "render-" + jobID + "-*"
	}
	return os.MkdirTemp(base, pattern)
}

func (f *FFmpeg) run(ctx context.Context, logger *slog.Logger, args []string, total time.Duration) error {
	cmd := commandContext(ctx, f.cfg.Binary, args...) //nolint:gosec
	var stderr tailBuffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", f.cfg.Binary, err)
	}
	trackProgress(stdout, total, func(percent float64) {
		logger.Info("ffmpeg progress", logging.Float64("percent", percent))
	})
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg interrupted: %w", ctx.Err())
		}
		if tail := strings.TrimSpace(stderr.String()); tail != "" {
			return fmt.Errorf("ffmpeg failed: %w: %s", err, tail)
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	return nil
}

// trackProgress reads "-progress pipe:1" key=value output and reports sampled
// percentages of total.
func trackProgress(r io.Reader, total time.Duration, report func(float64)) {
	throttle := logging.NewProgressThrottle(25, 30*time.Second)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok || total <= 0 {
			continue
		}
		var percent float64
		switch key {
		case "out_time_us", "out_time_ms":
			// ffmpeg reports microseconds under both keys.
			us, err := strconv.ParseInt(value, 10, 64)
			if err != nil || us < 0 {
				continue
			}
			percent = min(100, float64(us)/float64(total.Microseconds())*100)
		case "progress":
			if value != "end" {
				continue
			}
			percent = 100
		default:
			continue
		}
		if throttle.Allow(percent) {
			report(percent)
		}
	}
	_, _ = io.Copy(io.Discard, r)
}

// tailBuffer keeps the last stderrTailLimit bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if over := t.buf.Len() - stderrTailLimit; over > 0 {
		t.buf.Next(over)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}

var _ Executor = (*FFmpeg)(nil)
