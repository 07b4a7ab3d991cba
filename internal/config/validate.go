package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateEnvironment,
		c.validateProviders,
		c.validateText,
		c.validateMedia,
		c.validateYouTube,
		c.validatePipeline,
		c.validateAnnounce,
		c.validateInbox,
		c.validateAPI,
		c.validateWorkflow,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateEnvironment() error {
	switch c.Environment {
	case EnvironmentDevelopment, EnvironmentStaging, EnvironmentProduction:
		return nil
	default:
		return fmt.Errorf("environment must be one of development, staging, production (got %q)", c.Environment)
	}
}

func (c *Config) validateProviders() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("llm.provider must be openai or gemini (got %q)", c.LLM.Provider)
	}
	switch c.TTS.Provider {
	case ProviderElevenLabs, ProviderGoogle:
	default:
		return fmt.Errorf("tts.provider must be elevenlabs or google (got %q)", c.TTS.Provider)
	}
	switch c.TTS.Format {
	case "mp3", "wav", "ogg":
	default:
		return fmt.Errorf("tts.format must be mp3, wav or ogg (got %q)", c.TTS.Format)
	}
	switch c.TTS.Quality {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("tts.quality must be low, medium or high (got %q)", c.TTS.Quality)
	}
	return nil
}

func (c *Config) validateText() error {
	if c.Text.MinLength < 0 {
		return errors.New("text.min_length must not be negative")
	}
	if c.Text.MaxLength <= 0 {
		return errors.New("text.max_length must be positive")
	}
	if c.Text.MinLength >= c.Text.MaxLength {
		return errors.New("text.min_length must be less than text.max_length")
	}
	return nil
}

func (c *Config) validateMedia() error {
	if err := ensurePositiveMap(map[string]int{
		"image.width":  c.Image.Width,
		"image.height": c.Image.Height,
		"video.width":  c.Video.Width,
		"video.height": c.Video.Height,
		"video.fps":    c.Video.FPS,
	}); err != nil {
		return err
	}
	switch c.Image.Format {
	case "png", "jpeg", "webp":
	default:
		return fmt.Errorf("image.format must be png, jpeg or webp (got %q)", c.Image.Format)
	}
	switch c.Video.Format {
	case "mp4", "mov", "mkv":
	default:
		return fmt.Errorf("video.format must be mp4, mov or mkv (got %q)", c.Video.Format)
	}
	if c.Video.Width%2 != 0 || c.Video.Height%2 != 0 {
		return errors.New("video.width and video.height must be even for yuv420p output")
	}
	return nil
}

func (c *Config) validateYouTube() error {
	switch c.YouTube.PrivacyStatus {
	case "private", "unlisted", "public":
	default:
		return fmt.Errorf("youtube.privacy_status must be private, unlisted or public (got %q)", c.YouTube.PrivacyStatus)
	}
	if c.Pipeline.EnableYouTube && c.YouTube.ClientSecrets == "" {
		return errors.New("youtube.client_secrets must be set when pipeline.enable_youtube is true")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.TimeoutSeconds <= 0 {
		return errors.New("pipeline.timeout_seconds must be positive")
	}
	p := c.Pipeline
	if !p.EnableText && !p.EnableAudio && !p.EnableImage && !p.EnableVideo && !p.EnableYouTube && !p.EnableAnnounce {
		return errors.New("pipeline: at least one stage must be enabled")
	}
	if !p.EnableText && (p.EnableAudio || p.EnableImage || p.EnableVideo || p.EnableYouTube || p.EnableAnnounce) {
		return errors.New("pipeline.enable_text is required when any later stage is enabled")
	}
	if p.EnableVideo && !p.EnableImage {
		return errors.New("pipeline.enable_video requires pipeline.enable_image")
	}
	if p.EnableYouTube && !p.EnableVideo {
		return errors.New("pipeline.enable_youtube requires pipeline.enable_video")
	}
	return nil
}

func (c *Config) validateAnnounce() error {
	if !c.Pipeline.EnableAnnounce {
		return nil
	}
	telegram := c.Announce.TelegramToken != ""
	vk := c.Announce.VKToken != ""
	if !telegram && !vk {
		return errors.New("pipeline.enable_announce requires announce.telegram_token or announce.vk_token")
	}
	if telegram && c.Announce.TelegramChannel == "" {
		return errors.New("announce.telegram_channel must be set when announce.telegram_token is set")
	}
	if vk && c.Announce.VKGroupID <= 0 {
		return errors.New("announce.vk_group_id must be positive when announce.vk_token is set")
	}
	return nil
}

func (c *Config) validateInbox() error {
	if !c.Inbox.Enabled {
		return nil
	}
	if c.Inbox.PollMinutes <= 0 {
		return errors.New("inbox.poll_minutes must be positive")
	}
	for _, feed := range c.Inbox.Feeds {
		if !strings.HasPrefix(feed, "http://") && !strings.HasPrefix(feed, "https://") {
			return fmt.Errorf("inbox.feeds: %q is not an http(s) URL", feed)
		}
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be between 1 and 65535 (got %d)", c.API.Port)
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval": c.Workflow.QueuePollInterval,
		"workflow.heartbeat_interval":  c.Workflow.HeartbeatInterval,
		"workflow.heartbeat_timeout":   c.Workflow.HeartbeatTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error (got %q)", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
