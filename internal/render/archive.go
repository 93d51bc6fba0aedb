package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"reelforge/internal/logging"
	"reelforge/internal/services"
	"reelforge/internal/services/drapto"
)

// Archiver re-encodes finished renders to AV1 through Drapto.
type Archiver struct {
	client  drapto.Client
	workDir string
	logger  *slog.Logger
}

// NewArchiver returns an Archiver writing scratch files under workDir.
func NewArchiver(client drapto.Client, workDir string, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Archiver{
		client:  client,
		workDir: workDir,
		logger:  logging.NewComponentLogger(logger, "archive"),
	}
}

// Archive encodes video and returns the Matroska bytes.
func (a *Archiver) Archive(ctx context.Context, video []byte) ([]byte, error) {
	if a == nil || a.client == nil {
		return nil, services.Wrap(services.ErrConfiguration, stage, "archive", "drapto client unavailable", nil)
	}
	if len(video) == 0 {
		return nil, services.Wrap(services.ErrValidation, stage, "archive", "nothing to archive", nil)
	}
	if err := os.MkdirAll(a.workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stage, "archive", "create work dir", err)
	}
	dir, err := os.MkdirTemp(a.workDir, "archive-*")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stage, "archive", "create scratch dir", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "video.mp4")
	if err := os.WriteFile(input, video, 0o644); err != nil {
		return nil, services.Wrap(services.ErrComposition, stage, "archive", "write input", err)
	}
	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrComposition, stage, "archive", "create output dir", err)
	}

	logger := logging.WithContext(ctx, a.logger)
	throttle := logging.NewProgressThrottle(25, time.Minute)
	output, err := a.client.Encode(ctx, input, outDir, func(update drapto.ProgressUpdate) {
		switch update.Type {
		case drapto.EventTypeEncodingProgress:
			if throttle.Allow(update.Percent) {
				logger.Info("archive encode progress",
					logging.String(logging.FieldEventType, "archive_progress"),
					logging.Float64("percent", update.Percent),
					logging.Float64("speed", update.Speed),
				)
			}
		case drapto.EventTypeWarning:
			logger.Warn("archive encoder warning",
				logging.String(logging.FieldEventType, "archive_warning"),
				logging.String(logging.FieldErrorHint, update.Message),
			)
		}
	})
	if err != nil {
		return nil, compositionError(ctx, "archive", "drapto encode", err)
	}
	if output == "" {
		output = drapto.OutputPath(input, outDir)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		return nil, compositionError(ctx, "archive", "read encoded output", err)
	}
	if len(data) == 0 {
		return nil, compositionError(ctx, "archive", fmt.Sprintf("encoded output %s is empty", filepath.Base(output)), nil)
	}
	logger.Info("archive encode finished",
		logging.String(logging.FieldEventType, "archive_completed"),
		logging.Int("input_bytes", len(video)),
		logging.Int("output_bytes", len(data)),
	)
	return data, nil
}
