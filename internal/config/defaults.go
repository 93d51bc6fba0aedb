package config

const (
	defaultWorkDir              = "~/.local/share/reelforge/work"
	defaultLogDir               = "~/.local/share/reelforge/logs"
	defaultAPIBind              = "127.0.0.1:7488"
	defaultRenderBackend        = RenderBackendFFmpeg
	defaultSceneDurationSeconds = 6
	defaultRenderWidth          = 1280
	defaultRenderHeight         = 720
	defaultFFmpegBinary         = "ffmpeg"
	defaultRenderPreset         = "ultrafast"
	defaultRenderTimeoutSeconds = 900
	defaultShotstackBaseURL     = "https://api.shotstack.io"
	defaultShotstackEnvironment = "stage"
	defaultShotstackResolution  = "sd"
	defaultShotstackPollSeconds = 5
	defaultImageBaseURL         = "https://api-inference.huggingface.co"
	defaultImageModel           = "stabilityai/stable-diffusion-xl-base-1.0"
	defaultVoiceBaseURL         = "https://api.elevenlabs.io"
	defaultVoiceID              = "21m00Tcm4TlvDq8ikWAM"
	defaultVoiceModelID         = "eleven_monolingual_v1"
	defaultVoiceStability       = 0.5
	defaultVoiceSimilarity      = 0.75
	defaultLLMBaseURL           = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel             = "google/gemini-2.5-flash"
	defaultLLMReferer           = "https://github.com/reelforge/reelforge"
	defaultLLMTitle             = "reelforge script writer"
	defaultLLMTimeoutSeconds    = 60
	defaultStorageBackend       = StorageLocal
	defaultStoragePrefix        = "reelforge"
	defaultStorageLocalDir      = "~/.local/share/reelforge/artifacts"
	defaultS3Region             = "us-east-1"
	defaultMaxConcurrentJobs    = 4
	defaultCallTimeoutSeconds   = 120
	defaultHeartbeatInterval    = 15
	defaultStaleAfter           = 1800
	defaultPollInterval         = 3
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
)

// Render backends.
const (
	RenderBackendFFmpeg    = "ffmpeg"
	RenderBackendShotstack = "shotstack"
)

// Storage backends.
const (
	StorageLocal = "local"
	StorageGCS   = "gcs"
	StorageS3    = "s3"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Render: Render{
			Backend:              defaultRenderBackend,
			SceneDurationSeconds: defaultSceneDurationSeconds,
			Width:                defaultRenderWidth,
			Height:               defaultRenderHeight,
			FFmpegBinary:         defaultFFmpegBinary,
			Preset:               defaultRenderPreset,
			TimeoutSeconds:       defaultRenderTimeoutSeconds,
		},
		Shotstack: Shotstack{
			BaseURL:             defaultShotstackBaseURL,
			Environment:         defaultShotstackEnvironment,
			Resolution:          defaultShotstackResolution,
			PollIntervalSeconds: defaultShotstackPollSeconds,
		},
		Image: Image{
			BaseURL: defaultImageBaseURL,
			Model:   defaultImageModel,
		},
		Voice: Voice{
			BaseURL:         defaultVoiceBaseURL,
			VoiceID:         defaultVoiceID,
			ModelID:         defaultVoiceModelID,
			Stability:       defaultVoiceStability,
			SimilarityBoost: defaultVoiceSimilarity,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Storage: Storage{
			Backend:  defaultStorageBackend,
			Prefix:   defaultStoragePrefix,
			LocalDir: defaultStorageLocalDir,
			S3Region: defaultS3Region,
		},
		Pipeline: Pipeline{
			MaxConcurrentJobs:  defaultMaxConcurrentJobs,
			CallTimeoutSeconds: defaultCallTimeoutSeconds,
			HeartbeatInterval:  defaultHeartbeatInterval,
			StaleAfter:         defaultStaleAfter,
			PollInterval:       defaultPollInterval,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			JobCompleted:   true,
			JobFailed:      true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
