package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizeShotstack()
	c.normalizeProviders()
	c.normalizeLLM()
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		c.Paths.APIToken = lookupEnv("REELFORGE_API_TOKEN")
	}
	return nil
}

func (c *Config) normalizeRender() {
	c.Render.Backend = strings.ToLower(strings.TrimSpace(c.Render.Backend))
	if c.Render.Backend == "" {
		c.Render.Backend = defaultRenderBackend
	}
	c.Render.FFmpegBinary = strings.TrimSpace(c.Render.FFmpegBinary)
	if c.Render.FFmpegBinary == "" {
		c.Render.FFmpegBinary = defaultFFmpegBinary
	}
	c.Render.Preset = strings.TrimSpace(c.Render.Preset)
	if c.Render.Preset == "" {
		c.Render.Preset = defaultRenderPreset
	}
	if c.Render.Threads < 0 {
		c.Render.Threads = 0
	}
}

func (c *Config) normalizeShotstack() {
	c.Shotstack.APIKey = strings.TrimSpace(c.Shotstack.APIKey)
	if c.Shotstack.APIKey == "" {
		c.Shotstack.APIKey = lookupEnv("SHOTSTACK_API_KEY")
	}
	c.Shotstack.BaseURL = strings.TrimRight(strings.TrimSpace(c.Shotstack.BaseURL), "/")
	if c.Shotstack.BaseURL == "" {
		c.Shotstack.BaseURL = defaultShotstackBaseURL
	}
	c.Shotstack.Environment = strings.ToLower(strings.TrimSpace(c.Shotstack.Environment))
	if c.Shotstack.Environment == "" {
		c.Shotstack.Environment = defaultShotstackEnvironment
	}
	c.Shotstack.Resolution = strings.ToLower(strings.TrimSpace(c.Shotstack.Resolution))
	if c.Shotstack.Resolution == "" {
		c.Shotstack.Resolution = defaultShotstackResolution
	}
	if c.Shotstack.PollIntervalSeconds <= 0 {
		c.Shotstack.PollIntervalSeconds = defaultShotstackPollSeconds
	}
}

func (c *Config) normalizeProviders() {
	c.Image.APIKey = strings.TrimSpace(c.Image.APIKey)
	if c.Image.APIKey == "" {
		c.Image.APIKey = lookupEnv("HUGGINGFACE_API_KEY", "HF_TOKEN")
	}
	c.Image.BaseURL = strings.TrimRight(strings.TrimSpace(c.Image.BaseURL), "/")
	if c.Image.BaseURL == "" {
		c.Image.BaseURL = defaultImageBaseURL
	}
	c.Image.Model = strings.TrimSpace(c.Image.Model)
	if c.Image.Model == "" {
		c.Image.Model = defaultImageModel
	}

	c.Voice.APIKey = strings.TrimSpace(c.Voice.APIKey)
	if c.Voice.APIKey == "" {
		c.Voice.APIKey = lookupEnv("ELEVENLABS_API_KEY")
	}
	c.Voice.BaseURL = strings.TrimRight(strings.TrimSpace(c.Voice.BaseURL), "/")
	if c.Voice.BaseURL == "" {
		c.Voice.BaseURL = defaultVoiceBaseURL
	}
	c.Voice.VoiceID = strings.TrimSpace(c.Voice.VoiceID)
	if c.Voice.VoiceID == "" {
		c.Voice.VoiceID = defaultVoiceID
	}
	c.Voice.ModelID = strings.TrimSpace(c.Voice.ModelID)
	if c.Voice.ModelID == "" {
		c.Voice.ModelID = defaultVoiceModelID
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = lookupEnv("OPENROUTER_API_KEY", "LLM_API_KEY")
	}
}

func (c *Config) normalizeStorage() error {
	var err error
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	c.Storage.Prefix = strings.Trim(strings.TrimSpace(c.Storage.Prefix), "/")
	if strings.TrimSpace(c.Storage.LocalDir) == "" {
		c.Storage.LocalDir = defaultStorageLocalDir
	}
	if c.Storage.LocalDir, err = expandPath(c.Storage.LocalDir); err != nil {
		return fmt.Errorf("storage.local_dir: %w", err)
	}
	c.Storage.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.PublicBaseURL), "/")
	c.Storage.GCSBucket = strings.TrimSpace(c.Storage.GCSBucket)
	c.Storage.GCSEmulatorHost = strings.TrimRight(strings.TrimSpace(c.Storage.GCSEmulatorHost), "/")
	if c.Storage.GCSEmulatorHost == "" {
		c.Storage.GCSEmulatorHost = lookupEnv("STORAGE_EMULATOR_HOST")
	}
	if c.Storage.GCSCredentials != "" {
		if c.Storage.GCSCredentials, err = expandPath(c.Storage.GCSCredentials); err != nil {
			return fmt.Errorf("storage.gcs_credentials_file: %w", err)
		}
	}
	c.Storage.S3Bucket = strings.TrimSpace(c.Storage.S3Bucket)
	c.Storage.S3Region = strings.TrimSpace(c.Storage.S3Region)
	if c.Storage.S3Region == "" {
		c.Storage.S3Region = lookupEnv("AWS_REGION")
	}
	if c.Storage.S3Region == "" {
		c.Storage.S3Region = defaultS3Region
	}
	c.Storage.S3Endpoint = strings.TrimRight(strings.TrimSpace(c.Storage.S3Endpoint), "/")
	return nil
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.PollInterval <= 0 {
		c.Pipeline.PollInterval = defaultPollInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
}

func lookupEnv(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
