package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"reelforge/internal/artifact"
	"reelforge/internal/assets"
	"reelforge/internal/config"
	"reelforge/internal/jobs"
	"reelforge/internal/logging"
	"reelforge/internal/notifications"
	"reelforge/internal/pipeline"
	"reelforge/internal/render"
	"reelforge/internal/script"
	"reelforge/internal/services/drapto"
	"reelforge/internal/services/elevenlabs"
	"reelforge/internal/services/huggingface"
	"reelforge/internal/services/llm"
	"reelforge/internal/timeline"
)

// components holds everything the daemon drives.
type components struct {
	store     *jobs.Store
	artifacts *artifact.Store
	submitter *pipeline.Submitter
	monitor   *pipeline.Monitor
	scripts   *script.Generator
	renderer  render.Executor
	archiver  pipeline.Archiver
}

// build wires config into a job store, generators, the artifact store, the
// render executor and the pipeline. Jobs run under base.
func build(base context.Context, cfg *config.Config, logger *slog.Logger) (*components, error) {
	store, err := jobs.Open(cfg)
	if err != nil {
		return nil, err
	}
	c := &components{store: store}

	c.artifacts, err = artifact.New(base, cfg, logger)
	if err != nil {
		c.close(logger)
		return nil, err
	}

	image := huggingface.NewClient(huggingface.Config{
		APIKey:  cfg.Image.APIKey,
		BaseURL: cfg.Image.BaseURL,
		Model:   cfg.Image.Model,
	})
	voice := elevenlabs.NewClient(elevenlabs.Config{
		APIKey:          cfg.Voice.APIKey,
		BaseURL:         cfg.Voice.BaseURL,
		VoiceID:         cfg.Voice.VoiceID,
		ModelID:         cfg.Voice.ModelID,
		Stability:       cfg.Voice.Stability,
		SimilarityBoost: cfg.Voice.SimilarityBoost,
	})
	fetcher := assets.NewFetcher(image, voice, c.artifacts,
		assets.WithCallTimeout(cfg.CallTimeout()),
		assets.WithLogger(logger),
	)

	c.renderer, err = render.New(cfg, render.WithLogger(logger))
	if err != nil {
		c.close(logger)
		return nil, err
	}
	if cfg.Render.ArchiveAV1 {
		c.archiver = render.NewArchiver(drapto.NewLibrary(), cfg.Paths.WorkDir, logger)
	}

	orch, err := pipeline.NewOrchestrator(pipeline.Deps{
		Store:    store,
		Fetcher:  fetcher,
		Renderer: c.renderer,
		Uploader: c.artifacts,
		Archiver: c.archiver,
		Notifier: notifications.NewService(cfg),
		JobLogs:  logging.NewJobLogs(cfg),
		Logger:   logger,
	}, pipeline.Settings{
		SceneDuration:     cfg.SceneDuration(),
		TimelineOptions:   []timeline.Option{timeline.WithResolution(cfg.Render.Width, cfg.Render.Height)},
		UploadTimeout:     cfg.CallTimeout(),
		HeartbeatInterval: seconds(cfg.Pipeline.HeartbeatInterval),
	})
	if err != nil {
		c.close(logger)
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	c.submitter, err = pipeline.NewSubmitter(base, store, orch, cfg.Pipeline.MaxConcurrentJobs, logger)
	if err != nil {
		c.close(logger)
		return nil, err
	}
	c.monitor = pipeline.NewMonitor(store, logger,
		seconds(cfg.Pipeline.StaleAfter),
		seconds(cfg.Pipeline.HeartbeatInterval),
	)

	var completer script.Completer
	if llmCfg := cfg.GetLLM(); llmCfg.APIKey != "" {
		completer = llm.NewClient(llm.Config{
			APIKey:         llmCfg.APIKey,
			BaseURL:        llmCfg.BaseURL,
			Model:          llmCfg.Model,
			Referer:        llmCfg.Referer,
			Title:          llmCfg.Title,
			TimeoutSeconds: llmCfg.TimeoutSeconds,
		})
	}
	c.scripts = script.NewGenerator(completer, script.WithLogger(logger))
	return c, nil
}

func (c *components) close(logger *slog.Logger) {
	if c.artifacts != nil {
		if err := c.artifacts.Close(); err != nil {
			logger.Warn("artifact store close failed", logging.Error(err))
		}
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			logger.Warn("job store close failed", logging.Error(err))
		}
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
