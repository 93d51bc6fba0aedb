package timeline

import (
	"fmt"
	"strings"
	"time"

	"reelforge/internal/scene"
	"reelforge/internal/services"
)

const (
	DefaultWidth        = 1280
	DefaultHeight       = 720
	DefaultFadeDuration = 500 * time.Millisecond
	// DefaultZoom is the end scale of the slow push-in applied to each still.
	DefaultZoom = 1.1
)

// Effect is a cosmetic treatment applied to a visual segment.
type Effect string

const (
	EffectFadeIn  Effect = "fade_in"
	EffectFadeOut Effect = "fade_out"
	EffectZoomIn  Effect = "zoom_in"
)

// Entry places one scene on the timeline.
type Entry struct {
	Index     int           `json:"index"`
	SegmentID int           `json:"segment_id"`
	VisualRef string        `json:"visual_ref"`
	AudioRef  string        `json:"audio_ref"`
	Start     time.Duration `json:"start_offset"`
	Duration  time.Duration `json:"duration"`
	Effects   []Effect      `json:"effects,omitempty"`
}

// HasEffect reports whether e carries effect.
func (e Entry) HasEffect(effect Effect) bool {
	for _, candidate := range e.Effects {
		if candidate == effect {
			return true
		}
	}
	return false
}

// RenderSpec is the compositor-neutral description of the output video.
type RenderSpec struct {
	Width         int           `json:"width"`
	Height        int           `json:"height"`
	SceneDuration time.Duration `json:"scene_duration"`
	FadeDuration  time.Duration `json:"fade_duration"`
	Zoom          float64       `json:"zoom"`
	Entries       []Entry       `json:"entries"`
}

// TotalDuration is the visual length of the finished video.
func (s RenderSpec) TotalDuration() time.Duration {
	if len(s.Entries) == 0 {
		return 0
	}
	last := s.Entries[len(s.Entries)-1]
	return last.Start + last.Duration
}

// AudioOffsets returns the start offset of each scene's narration.
func (s RenderSpec) AudioOffsets() []time.Duration {
	offsets := make([]time.Duration, len(s.Entries))
	for i, entry := range s.Entries {
		offsets[i] = entry.Start
	}
	return offsets
}

type options struct {
	width   int
	height  int
	fade    time.Duration
	zoom    float64
	effects bool
}

// Option customizes Build.
type Option func(*options)

// WithResolution sets the output frame size every visual is letterboxed into.
func WithResolution(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.width = width
			o.height = height
		}
	}
}

// WithFade sets the fade in/out length applied to each visual.
func WithFade(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.fade = d
		}
	}
}

// WithZoom sets the end scale of the per-scene push-in (1 disables zoom).
func WithZoom(scale float64) Option {
	return func(o *options) {
		if scale >= 1 {
			o.zoom = scale
		}
	}
}

// WithoutEffects builds a plain cut-to-cut timeline.
func WithoutEffects() Option {
	return func(o *options) {
		o.effects = false
	}
}

// Build lays assets out back to back. It fails only on malformed input: an
// empty asset list, a non-positive duration, or an asset missing a URL.
func Build(assets []scene.Asset, sceneDuration time.Duration, opts ...Option) (RenderSpec, error) {
	o := options{
		width:   DefaultWidth,
		height:  DefaultHeight,
		fade:    DefaultFadeDuration,
		zoom:    DefaultZoom,
		effects: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if len(assets) == 0 {
		return RenderSpec{}, services.Wrap(services.ErrComposition, "timeline", "build", "no scene assets", nil)
	}
	if sceneDuration <= 0 {
		return RenderSpec{}, services.Wrap(services.ErrComposition, "timeline", "build",
			fmt.Sprintf("scene duration must be positive, got %s", sceneDuration), nil)
	}
	// Fades longer than half a slot would overlap.
	fade := o.fade
	if fade > sceneDuration/2 {
		fade = sceneDuration / 2
	}

	spec := RenderSpec{
		Width:         o.width,
		Height:        o.height,
		SceneDuration: sceneDuration,
		Entries:       make([]Entry, 0, len(assets)),
	}
	if o.effects {
		spec.FadeDuration = fade
		spec.Zoom = o.zoom
	}
	for i, asset := range assets {
		if strings.TrimSpace(asset.ImageURL) == "" || strings.TrimSpace(asset.AudioURL) == "" {
			return RenderSpec{}, services.Wrap(services.ErrComposition, "timeline", "build",
				fmt.Sprintf("scene %d has no media url", i), nil)
		}
		entry := Entry{
			Index:     i,
			SegmentID: asset.SegmentID,
			VisualRef: asset.ImageURL,
			AudioRef:  asset.AudioURL,
			Start:     time.Duration(i) * sceneDuration,
			Duration:  sceneDuration,
		}
		if o.effects {
			if fade > 0 {
				entry.Effects = append(entry.Effects, EffectFadeIn, EffectFadeOut)
			}
			if o.zoom > 1 {
				entry.Effects = append(entry.Effects, EffectZoomIn)
			}
		}
		spec.Entries = append(spec.Entries, entry)
	}
	return spec, nil
}
