package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reelforge/internal/logging"
	"reelforge/internal/services/shotstack"
	"reelforge/internal/timeline"
)

// ShotstackAPI is the subset of the Shotstack client the executor needs.
type ShotstackAPI interface {
	Submit(ctx context.Context, edit shotstack.Edit) (string, error)
	Status(ctx context.Context, id string) (shotstack.RenderStatus, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// ShotstackConfig configures hosted composition.
type ShotstackConfig struct {
	Resolution   string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Shotstack composes videos on the hosted Shotstack service.
type Shotstack struct {
	api    ShotstackAPI
	cfg    ShotstackConfig
	logger *slog.Logger
}

// NewShotstack constructs the hosted executor.
func NewShotstack(api ShotstackAPI, cfg ShotstackConfig, opts ...Option) *Shotstack {
	o := applyOptions(opts)
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.Resolution == "" {
		cfg.Resolution = "sd"
	}
	return &Shotstack{api: api, cfg: cfg, logger: o.logger.With(logging.String("backend", "shotstack"))}
}

// BuildShotstackEdit translates spec into a Shotstack edit: one image track
// with zoom and fades on top, one audio track underneath.
func BuildShotstackEdit(spec timeline.RenderSpec, resolution string) (shotstack.Edit, error) {
	if len(spec.Entries) == 0 {
		return shotstack.Edit{}, errors.New("render spec has no entries")
	}
	images := make([]shotstack.Clip, 0, len(spec.Entries))
	audio := make([]shotstack.Clip, 0, len(spec.Entries))
	for _, entry := range spec.Entries {
		if !isHosted(entry.VisualRef) || !isHosted(entry.AudioRef) {
			return shotstack.Edit{}, fmt.Errorf("entry %d: shotstack needs http(s) media urls", entry.Index)
		}
		clip := shotstack.Clip{
			Asset:  shotstack.Asset{Type: "image", Src: entry.VisualRef},
			Start:  entry.Start.Seconds(),
			Length: entry.Duration.Seconds(),
			Fit:    "crop",
		}
		if entry.HasEffect(timeline.EffectZoomIn) {
			clip.Effect = "zoomIn"
		}
		if entry.HasEffect(timeline.EffectFadeIn) || entry.HasEffect(timeline.EffectFadeOut) {
			clip.Transition = &shotstack.Transition{}
			if entry.HasEffect(timeline.EffectFadeIn) {
				clip.Transition.In = "fade"
			}
			if entry.HasEffect(timeline.EffectFadeOut) {
				clip.Transition.Out = "fade"
			}
		}
		images = append(images, clip)
		audio = append(audio, shotstack.Clip{
			Asset:  shotstack.Asset{Type: "audio", Src: entry.AudioRef, Volume: 1},
			Start:  entry.Start.Seconds(),
			Length: entry.Duration.Seconds(),
		})
	}
	return shotstack.Edit{
		Timeline: shotstack.Timeline{
			Background: "#000000",
			Tracks:     []shotstack.Track{{Clips: images}, {Clips: audio}},
		},
		Output: shotstack.Output{Format: "mp4", Resolution: resolution},
	}, nil
}

func isHosted(ref string) bool {
	return strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://")
}

// Render submits the edit, polls until the render settles, and downloads it.
func (s *Shotstack) Render(ctx context.Context, spec timeline.RenderSpec) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	logger := logging.WithContext(ctx, s.logger)

	edit, err := BuildShotstackEdit(spec, s.cfg.Resolution)
	if err != nil {
		return nil, compositionError(ctx, "build edit", "", err)
	}
	id, err := s.api.Submit(ctx, edit)
	if err != nil {
		return nil, compositionError(ctx, "submit", "", err)
	}
	logger.Info("shotstack render queued",
		logging.String(logging.FieldEventType, "render_started"),
		logging.String("render_id", id),
		logging.Int("scenes", len(spec.Entries)),
	)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	lastStatus := ""
	for {
		status, err := s.api.Status(ctx, id)
		if err != nil {
			return nil, compositionError(ctx, "poll", id, err)
		}
		if status.Status != lastStatus {
			logger.Debug("shotstack render status", logging.String("render_id", id), logging.String("status", status.Status))
			lastStatus = status.Status
		}
		switch status.Status {
		case shotstack.StatusDone:
			if status.URL == "" {
				return nil, compositionError(ctx, "poll", "render done without url", nil)
			}
			data, err := s.api.Download(ctx, status.URL)
			if err != nil {
				return nil, compositionError(ctx, "download", status.URL, err)
			}
			logger.Info("shotstack render finished",
				logging.String(logging.FieldEventType, "render_completed"),
				logging.String("render_id", id),
				logging.Int("bytes", len(data)),
			)
			return data, nil
		case shotstack.StatusFailed:
			return nil, compositionError(ctx, "render", fmt.Sprintf("render %s failed: %s", id, status.Error), nil)
		}
		select {
		case <-ctx.Done():
			return nil, compositionError(ctx, "poll", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

var _ Executor = (*Shotstack)(nil)
