package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateVoice(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

// ValidateProviders checks the credentials the daemon needs before it can run
// jobs. CLI commands that only talk to the daemon skip this check.
func (c *Config) ValidateProviders() error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/reelforge/config.toml"
	}
	if strings.TrimSpace(c.Image.APIKey) == "" {
		return fmt.Errorf("image.api_key is required. Set HUGGINGFACE_API_KEY env var or edit %s (create with 'reelforge config init')", defaultPath)
	}
	if strings.TrimSpace(c.Voice.APIKey) == "" {
		return fmt.Errorf("voice.api_key is required. Set ELEVENLABS_API_KEY env var or edit %s", defaultPath)
	}
	if c.Render.Backend == RenderBackendShotstack && strings.TrimSpace(c.Shotstack.APIKey) == "" {
		return errors.New("shotstack.api_key must be set when render.backend is shotstack (or set SHOTSTACK_API_KEY)")
	}
	return nil
}

func (c *Config) validateRender() error {
	switch c.Render.Backend {
	case RenderBackendFFmpeg, RenderBackendShotstack:
	default:
		return fmt.Errorf("render.backend: unsupported value %q (want ffmpeg or shotstack)", c.Render.Backend)
	}
	if err := ensurePositiveMap(map[string]int{
		"render.scene_duration_seconds": c.Render.SceneDurationSeconds,
		"render.width":                  c.Render.Width,
		"render.height":                 c.Render.Height,
		"render.timeout_seconds":        c.Render.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Render.Width%2 != 0 || c.Render.Height%2 != 0 {
		return errors.New("render.width and render.height must be even for yuv420p output")
	}
	if c.Render.Backend == RenderBackendShotstack {
		switch c.Shotstack.Environment {
		case "stage", "v1":
		default:
			return fmt.Errorf("shotstack.environment: unsupported value %q (want stage or v1)", c.Shotstack.Environment)
		}
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageLocal:
		if strings.TrimSpace(c.Storage.LocalDir) == "" {
			return errors.New("storage.local_dir must be set when storage.backend is local")
		}
	case StorageGCS:
		if c.Storage.GCSBucket == "" {
			return errors.New("storage.gcs_bucket must be set when storage.backend is gcs")
		}
	case StorageS3:
		if c.Storage.S3Bucket == "" {
			return errors.New("storage.s3_bucket must be set when storage.backend is s3")
		}
	default:
		return fmt.Errorf("storage.backend: unsupported value %q (want local, gcs, or s3)", c.Storage.Backend)
	}
	if c.Render.Backend == RenderBackendShotstack && c.Storage.Backend == StorageLocal && c.Storage.PublicBaseURL == "" {
		return errors.New("storage.public_base_url must be set when render.backend is shotstack and storage.backend is local")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if err := ensurePositiveMap(map[string]int{
		"pipeline.max_concurrent_jobs":  c.Pipeline.MaxConcurrentJobs,
		"pipeline.call_timeout_seconds": c.Pipeline.CallTimeoutSeconds,
		"pipeline.heartbeat_interval":   c.Pipeline.HeartbeatInterval,
		"pipeline.stale_after":          c.Pipeline.StaleAfter,
	}); err != nil {
		return err
	}
	if c.Pipeline.StaleAfter <= c.Pipeline.HeartbeatInterval {
		return errors.New("pipeline.stale_after must be greater than pipeline.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateVoice() error {
	if c.Voice.Stability < 0 || c.Voice.Stability > 1 {
		return errors.New("voice.stability must be between 0 and 1")
	}
	if c.Voice.SimilarityBoost < 0 || c.Voice.SimilarityBoost > 1 {
		return errors.New("voice.similarity_boost must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
