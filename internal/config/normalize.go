package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnvOverrides()
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	if c.Environment == "" {
		c.Environment = EnvironmentDevelopment
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	if err := c.normalizeTTS(); err != nil {
		return err
	}
	if err := c.normalizeMedia(); err != nil {
		return err
	}
	if err := c.normalizeYouTube(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeInbox()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

// lookupEnv returns the trimmed value of the first set variable.
func lookupEnv(names ...string) (string, bool) {
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

// applyEnvOverrides lets the environment (including .env files) take
// precedence over values from the config file.
func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		target *string
		names  []string
	}{
		{&c.Environment, []string{"PODCASTER_ENVIRONMENT"}},
		{&c.Logging.Level, []string{"PODCASTER_LOG_LEVEL"}},
		{&c.LLM.APIKey, []string{"OPENAI_API_KEY"}},
		{&c.LLM.Model, []string{"OPENAI_API_MODEL"}},
		{&c.LLM.GeminiAPIKey, []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}},
		{&c.TTS.ElevenLabsAPIKey, []string{"ELEVENLABS_API_KEY"}},
		{&c.TTS.GoogleCredentials, []string{"GOOGLE_APPLICATION_CREDENTIALS"}},
		{&c.YouTube.ClientSecrets, []string{"YOUTUBE_CLIENT_SECRETS"}},
		{&c.Announce.TelegramToken, []string{"TELEGRAM_BOT_TOKEN"}},
		{&c.Announce.VKToken, []string{"VK_TOKEN"}},
	}
	for _, override := range overrides {
		if value, ok := lookupEnv(override.names...); ok {
			*override.target = value
		}
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.InboxDir, err = expandPath(c.Paths.InboxDir); err != nil {
		return fmt.Errorf("paths.inbox_dir: %w", err)
	}
	if c.Paths.QueueDB, err = expandPath(strings.TrimSpace(c.Paths.QueueDB)); err != nil {
		return fmt.Errorf("paths.queue_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderOpenAI
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.GeminiAPIKey = strings.TrimSpace(c.LLM.GeminiAPIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.GeminiModel = strings.TrimSpace(c.LLM.GeminiModel)
	if c.LLM.GeminiModel == "" {
		c.LLM.GeminiModel = defaultGeminiModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeTTS() error {
	c.TTS.Provider = strings.ToLower(strings.TrimSpace(c.TTS.Provider))
	if c.TTS.Provider == "" {
		c.TTS.Provider = ProviderElevenLabs
	}
	c.TTS.ElevenLabsAPIKey = strings.TrimSpace(c.TTS.ElevenLabsAPIKey)
	c.TTS.ElevenLabsBaseURL = strings.TrimRight(strings.TrimSpace(c.TTS.ElevenLabsBaseURL), "/")
	if c.TTS.ElevenLabsBaseURL == "" {
		c.TTS.ElevenLabsBaseURL = defaultElevenLabsBaseURL
	}
	c.TTS.VoiceID = strings.TrimSpace(c.TTS.VoiceID)
	if c.TTS.VoiceID == "" {
		c.TTS.VoiceID = defaultVoiceID
	}
	c.TTS.ModelID = strings.TrimSpace(c.TTS.ModelID)
	if c.TTS.ModelID == "" {
		c.TTS.ModelID = defaultVoiceModel
	}
	var err error
	if c.TTS.GoogleCredentials, err = expandPath(strings.TrimSpace(c.TTS.GoogleCredentials)); err != nil {
		return fmt.Errorf("tts.google_credentials: %w", err)
	}
	c.TTS.Format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.TTS.Format), "."))
	if c.TTS.Format == "" {
		c.TTS.Format = defaultAudioFormat
	}
	c.TTS.Quality = strings.ToLower(strings.TrimSpace(c.TTS.Quality))
	if c.TTS.Quality == "" {
		c.TTS.Quality = defaultAudioQuality
	}
	if c.TTS.SampleRate <= 0 {
		c.TTS.SampleRate = defaultSampleRate
	}
	if c.TTS.PlaceholderSeconds <= 0 {
		c.TTS.PlaceholderSeconds = defaultPlaceholderSeconds
	}
	return nil
}

func (c *Config) normalizeMedia() error {
	c.Image.Format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Image.Format), "."))
	switch c.Image.Format {
	case "":
		c.Image.Format = defaultImageFormat
	case "jpg":
		c.Image.Format = "jpeg"
	}
	if c.Image.Quality <= 0 || c.Image.Quality > 100 {
		c.Image.Quality = defaultImageQuality
	}
	var err error
	if c.Image.FontPath, err = expandPath(strings.TrimSpace(c.Image.FontPath)); err != nil {
		return fmt.Errorf("image.font_path: %w", err)
	}
	c.Video.Format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Video.Format), "."))
	if c.Video.Format == "" {
		c.Video.Format = defaultVideoFormat
	}
	if c.Video.FadeSeconds < 0 {
		c.Video.FadeSeconds = 0
	}
	return nil
}

func (c *Config) normalizeYouTube() error {
	var err error
	if c.YouTube.ClientSecrets, err = expandPath(strings.TrimSpace(c.YouTube.ClientSecrets)); err != nil {
		return fmt.Errorf("youtube.client_secrets: %w", err)
	}
	if c.YouTube.TokenPath, err = expandPath(strings.TrimSpace(c.YouTube.TokenPath)); err != nil {
		return fmt.Errorf("youtube.token_path: %w", err)
	}
	c.YouTube.PrivacyStatus = strings.ToLower(strings.TrimSpace(c.YouTube.PrivacyStatus))
	if c.YouTube.PrivacyStatus == "" {
		c.YouTube.PrivacyStatus = defaultYouTubePrivacy
	}
	c.YouTube.CategoryID = strings.TrimSpace(c.YouTube.CategoryID)
	if c.YouTube.CategoryID == "" {
		c.YouTube.CategoryID = defaultYouTubeCategory
	}
	c.YouTube.DefaultLanguage = strings.ToLower(strings.TrimSpace(c.YouTube.DefaultLanguage))
	return nil
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.RetryAttempts < 0 {
		c.Pipeline.RetryAttempts = 0
	}
	if c.Pipeline.MaxWorkers <= 0 {
		c.Pipeline.MaxWorkers = 1
	}
	c.Announce.TelegramToken = strings.TrimSpace(c.Announce.TelegramToken)
	c.Announce.TelegramChannel = strings.TrimSpace(c.Announce.TelegramChannel)
	c.Announce.VKToken = strings.TrimSpace(c.Announce.VKToken)
	c.Announce.PostTitle = strings.TrimSpace(c.Announce.PostTitle)
}

func (c *Config) normalizeInbox() {
	feeds := make([]string, 0, len(c.Inbox.Feeds))
	seen := make(map[string]struct{}, len(c.Inbox.Feeds))
	for _, feed := range c.Inbox.Feeds {
		feed = strings.TrimSpace(feed)
		if feed == "" {
			continue
		}
		if _, ok := seen[feed]; ok {
			continue
		}
		seen[feed] = struct{}{}
		feeds = append(feeds, feed)
	}
	c.Inbox.Feeds = feeds
	if c.Inbox.FeedLimit <= 0 {
		c.Inbox.FeedLimit = defaultInboxFeedLimit
	}
}

func (c *Config) normalizeAPI() {
	c.API.Host = strings.TrimSpace(c.API.Host)
	if c.API.Host == "" {
		c.API.Host = defaultAPIHost
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
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
	if c.Debug {
		c.Logging.Level = "debug"
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.Retention < 0 {
		c.Logging.Retention = 0
	}
}
