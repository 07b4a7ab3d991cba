package config

const (
	EnvironmentDevelopment = "development"
	EnvironmentStaging     = "staging"
	EnvironmentProduction  = "production"

	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderElevenLabs = "elevenlabs"
	ProviderGoogle     = "google"
)

const (
	defaultConfigPath              = "~/.config/podcaster/config.toml"
	defaultDataDir                 = "~/.local/share/podcaster"
	defaultOutputDir               = "~/.local/share/podcaster/output"
	defaultLogDir                  = "~/.local/share/podcaster/logs"
	defaultInboxDir                = "~/.local/share/podcaster/inbox"
	defaultLLMBaseURL              = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel                = "gpt-4o-mini"
	defaultGeminiModel             = "gemini-1.5-flash"
	defaultLLMTimeoutSeconds       = 120
	defaultTextMinLength           = 100
	defaultTextMaxLength           = 10000
	defaultElevenLabsBaseURL       = "https://api.elevenlabs.io"
	defaultVoiceID                 = "Rachel"
	defaultVoiceModel              = "eleven_multilingual_v2"
	defaultSampleRate              = 22050
	defaultAudioFormat             = "mp3"
	defaultAudioQuality            = "high"
	defaultPlaceholderSeconds      = 5
	defaultImageWidth              = 1920
	defaultImageHeight             = 1080
	defaultImageFormat             = "png"
	defaultImageQuality            = 90
	defaultVideoFPS                = 30
	defaultVideoFormat             = "mp4"
	defaultFadeSeconds             = 0.5
	defaultYouTubeClientSecrets    = "~/.config/podcaster/client_secret.json"
	defaultYouTubeTokenPath        = "~/.config/podcaster/youtube_token.json"
	defaultYouTubePrivacy          = "private"
	defaultYouTubeCategory         = "22"
	defaultPipelineTimeoutSeconds  = 3600
	defaultPipelineRetryAttempts   = 3
	defaultPipelineMaxWorkers      = 4
	defaultInboxPollMinutes        = 5
	defaultInboxFeedLimit          = 5
	defaultAPIHost                 = "localhost"
	defaultAPIPort                 = 8000
	defaultNotifyRequestTimeout    = 10
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultLogMaxSizeMB            = 10
	defaultLogRetention            = 5
	defaultWorkflowPollInterval    = 5
	defaultWorkflowHeartbeatPeriod = 15
	defaultWorkflowHeartbeatExpiry = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Environment: EnvironmentDevelopment,
		Paths: Paths{
			DataDir:   defaultDataDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			InboxDir:  defaultInboxDir,
		},
		LLM: LLM{
			Provider:       ProviderOpenAI,
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			GeminiModel:    defaultGeminiModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Text: Text{
			MinLength: defaultTextMinLength,
			MaxLength: defaultTextMaxLength,
		},
		TTS: TTS{
			Provider:           ProviderElevenLabs,
			ElevenLabsBaseURL:  defaultElevenLabsBaseURL,
			VoiceID:            defaultVoiceID,
			ModelID:            defaultVoiceModel,
			SampleRate:         defaultSampleRate,
			Format:             defaultAudioFormat,
			Quality:            defaultAudioQuality,
			PlaceholderSeconds: defaultPlaceholderSeconds,
		},
		Image: Image{
			Width:   defaultImageWidth,
			Height:  defaultImageHeight,
			Format:  defaultImageFormat,
			Quality: defaultImageQuality,
		},
		Video: Video{
			Width:       defaultImageWidth,
			Height:      defaultImageHeight,
			FPS:         defaultVideoFPS,
			Format:      defaultVideoFormat,
			FadeSeconds: defaultFadeSeconds,
		},
		YouTube: YouTube{
			ClientSecrets: defaultYouTubeClientSecrets,
			TokenPath:     defaultYouTubeTokenPath,
			PrivacyStatus: defaultYouTubePrivacy,
			CategoryID:    defaultYouTubeCategory,
		},
		Pipeline: Pipeline{
			TimeoutSeconds: defaultPipelineTimeoutSeconds,
			RetryAttempts:  defaultPipelineRetryAttempts,
			MaxWorkers:     defaultPipelineMaxWorkers,
			EnableText:     true,
			EnableAudio:    true,
			EnableImage:    true,
			EnableVideo:    true,
		},
		Inbox: Inbox{
			PollMinutes: defaultInboxPollMinutes,
			FeedLimit:   defaultInboxFeedLimit,
		},
		API: API{
			Enabled: true,
			Host:    defaultAPIHost,
			Port:    defaultAPIPort,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Completed:      true,
			Uploads:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format:         defaultLogFormat,
			Level:          defaultLogLevel,
			File:           true,
			MaxSizeMB:      defaultLogMaxSizeMB,
			Retention:      defaultLogRetention,
			SeparateErrors: true,
		},
		Workflow: Workflow{
			QueuePollInterval: defaultWorkflowPollInterval,
			HeartbeatInterval: defaultWorkflowHeartbeatPeriod,
			HeartbeatTimeout:  defaultWorkflowHeartbeatExpiry,
		},
	}
}
