package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"reelforge/internal/artifact"
	"reelforge/internal/logging"
	"reelforge/internal/scene"
	"reelforge/internal/services"
)

const stage = "fetch"

// Generator produces media bytes from text content.
type Generator interface {
	Generate(ctx context.Context, content string) ([]byte, error)
}

// Uploader persists media and returns a URL the compositor can read.
type Uploader interface {
	Store(ctx context.Context, data []byte, kind artifact.Kind) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, content string) ([]byte, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, content string) ([]byte, error) {
	return f(ctx, content)
}

// Fetcher produces scene assets from injected generators and an uploader.
type Fetcher struct {
	image       Generator
	voice       Generator
	uploader    Uploader
	callTimeout time.Duration
	logger      *slog.Logger
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithCallTimeout bounds each generator and upload call. Zero disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.callTimeout = d
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher constructs a Fetcher.
func NewFetcher(image, voice Generator, uploader Uploader, opts ...Option) *Fetcher {
	f := &Fetcher{
		image:    image,
		voice:    voice,
		uploader: uploader,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.NewComponentLogger(f.logger, "assets")
	return f
}

// Fetch generates and uploads the image and narration for sc.
func (f *Fetcher) Fetch(ctx context.Context, sc scene.Scene) (scene.Asset, error) {
	asset := scene.Asset{Scene: sc}
	if f == nil || f.image == nil || f.voice == nil || f.uploader == nil {
		return asset, services.Wrap(services.ErrConfiguration, stage, "fetch", "fetcher collaborators missing", nil)
	}
	logger := logging.WithContext(ctx, f.logger)
	started := time.Now()

	var imageData, audioData []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := f.generate(gctx, f.image, sc.VisualDescription, "image")
		imageData = data
		return err
	})
	g.Go(func() error {
		data, err := f.generate(gctx, f.voice, sc.Voiceover, "voice")
		audioData = data
		return err
	})
	if err := g.Wait(); err != nil {
		return asset, err
	}
	logger.Debug("scene media generated",
		logging.Int("image_bytes", len(imageData)),
		logging.Int("audio_bytes", len(audioData)),
		logging.Duration("elapsed", time.Since(started)),
	)

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		url, err := f.upload(gctx, imageData, artifact.KindImage)
		asset.ImageURL = url
		return err
	})
	g.Go(func() error {
		url, err := f.upload(gctx, audioData, artifact.KindAudio)
		asset.AudioURL = url
		return err
	})
	if err := g.Wait(); err != nil {
		return scene.Asset{Scene: sc}, err
	}
	logger.Info("scene assets ready",
		logging.String(logging.FieldEventType, "scene_assets_ready"),
		logging.String("image_url", asset.ImageURL),
		logging.String("audio_url", asset.AudioURL),
		logging.Duration("elapsed", time.Since(started)),
	)
	return asset, nil
}

func (f *Fetcher) generate(ctx context.Context, gen Generator, content, kind string) ([]byte, error) {
	callCtx, cancel := f.withTimeout(ctx)
	defer cancel()
	data, err := gen.Generate(callCtx, content)
	if err == nil && len(data) == 0 {
		err = errors.New("generator returned no data")
	}
	if err != nil {
		return nil, classify(services.ErrAssetGeneration, "generate "+kind, callCtx, err)
	}
	return data, nil
}

func (f *Fetcher) upload(ctx context.Context, data []byte, kind artifact.Kind) (string, error) {
	callCtx, cancel := f.withTimeout(ctx)
	defer cancel()
	url, err := f.uploader.Store(callCtx, data, kind)
	if err == nil && url == "" {
		err = errors.New("artifact store returned empty url")
	}
	if err != nil {
		return "", classify(services.ErrUpload, fmt.Sprintf("upload %s", kind), callCtx, err)
	}
	return url, nil
}

func (f *Fetcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.callTimeout)
}

// classify wraps err with marker unless it already carries it, tagging
// deadline expiry with ErrTimeout.
func classify(marker error, operation string, callCtx context.Context, err error) error {
	timedOut := errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded)
	if timedOut && !errors.Is(err, services.ErrTimeout) {
		err = errors.Join(err, services.ErrTimeout)
	}
	if errors.Is(err, marker) {
		return err
	}
	return services.Wrap(marker, stage, operation, "", err)
}
