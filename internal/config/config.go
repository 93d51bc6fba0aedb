package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
	EnvFile  string `toml:"env_file"`
}

// Render contains compositor settings.
type Render struct {
	Backend              string `toml:"backend"`
	SceneDurationSeconds int    `toml:"scene_duration_seconds"`
	Width                int    `toml:"width"`
	Height               int    `toml:"height"`
	FFmpegBinary         string `toml:"ffmpeg_binary"`
	Preset               string `toml:"preset"`
	Threads              int    `toml:"threads"`
	TimeoutSeconds       int    `toml:"timeout_seconds"`
	ArchiveAV1           bool   `toml:"archive_av1"`
	KeepWorkFiles        bool   `toml:"keep_work_files"`
}

// Shotstack contains configuration for the hosted Shotstack compositor.
type Shotstack struct {
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	Environment         string `toml:"environment"`
	Resolution          string `toml:"resolution"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
}

// Image contains configuration for the Hugging Face image generator.
type Image struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// Voice contains configuration for the ElevenLabs narration generator.
type Voice struct {
	APIKey          string  `toml:"api_key"`
	BaseURL         string  `toml:"base_url"`
	VoiceID         string  `toml:"voice_id"`
	ModelID         string  `toml:"model_id"`
	Stability       float64 `toml:"stability"`
	SimilarityBoost float64 `toml:"similarity_boost"`
}

// LLM contains chat-completions settings used for script generation.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Storage selects and configures the artifact store backend.
type Storage struct {
	Backend         string `toml:"backend"`
	Prefix          string `toml:"prefix"`
	LocalDir        string `toml:"local_dir"`
	PublicBaseURL   string `toml:"public_base_url"`
	GCSBucket       string `toml:"gcs_bucket"`
	GCSEmulatorHost string `toml:"gcs_emulator_host"`
	GCSCredentials  string `toml:"gcs_credentials_file"`
	S3Bucket        string `toml:"s3_bucket"`
	S3Region        string `toml:"s3_region"`
	S3Endpoint      string `toml:"s3_endpoint"`
}

// Pipeline contains job scheduling and liveness settings.
type Pipeline struct {
	MaxConcurrentJobs  int `toml:"max_concurrent_jobs"`
	CallTimeoutSeconds int `toml:"call_timeout_seconds"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	StaleAfter         int `toml:"stale_after"`
	PollInterval       int `toml:"poll_interval"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	JobCompleted   bool   `toml:"job_completed"`
	JobFailed      bool   `toml:"job_failed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for reelforge.
//
// Configuration sections by subsystem:
//   - Paths: work/log directories and API bind address
//   - Render: compositor backend, output geometry, encoder settings
//   - Shotstack: hosted compositor credentials
//   - Image, Voice: asset generator credentials and models
//   - LLM: script generation endpoint
//   - Storage: artifact store backend
//   - Pipeline: concurrency, per-call timeouts, liveness reporting
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Render        Render        `toml:"render"`
	Shotstack     Shotstack     `toml:"shotstack"`
	Image         Image         `toml:"image"`
	Voice         Voice         `toml:"voice"`
	LLM           LLM           `toml:"llm"`
	Storage       Storage       `toml:"storage"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.WorkDir, c.Paths.LogDir}
	if c.Storage.Backend == StorageLocal {
		dirs = append(dirs, c.Storage.LocalDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the job database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.LogDir, "jobs.db")
}

// JobLogDir returns the directory holding per-job log files.
func (c *Config) JobLogDir() string {
	return filepath.Join(c.Paths.LogDir, "jobs")
}

// SceneDuration returns the fixed per-scene slot length.
func (c *Config) SceneDuration() time.Duration {
	return time.Duration(c.Render.SceneDurationSeconds) * time.Second
}

// CallTimeout bounds a single generator or upload call.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Pipeline.CallTimeoutSeconds) * time.Second
}

// RenderTimeout bounds a single compositor invocation.
func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.Render.TimeoutSeconds) * time.Second
}

// FFmpegBinary returns the ffmpeg executable name used for composition.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Render.FFmpegBinary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// LLMConfig contains the resolved chat-completions settings.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the script generation connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
