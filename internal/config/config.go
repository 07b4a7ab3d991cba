package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	InboxDir  string `toml:"inbox_dir"`
	QueueDB   string `toml:"queue_db"`
}

// LLM contains connection settings for the context analyzer.
type LLM struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	GeminiAPIKey   string `toml:"gemini_api_key"`
	GeminiModel    string `toml:"gemini_model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Text bounds the accepted thought length in characters.
type Text struct {
	MinLength int `toml:"min_length"`
	MaxLength int `toml:"max_length"`
}

// TTS contains speech synthesis settings.
type TTS struct {
	Provider           string   `toml:"provider"`
	ElevenLabsAPIKey   string   `toml:"elevenlabs_api_key"`
	ElevenLabsBaseURL  string   `toml:"elevenlabs_base_url"`
	VoiceID            string   `toml:"voice_id"`
	ModelID            string   `toml:"model_id"`
	GoogleCredentials  string   `toml:"google_credentials"`
	GoogleVoices       []string `toml:"google_voices"`
	SampleRate         int      `toml:"sample_rate"`
	Format             string   `toml:"format"`
	Quality            string   `toml:"quality"`
	PlaceholderSeconds int      `toml:"placeholder_seconds"`
}

// Image contains cover card settings.
type Image struct {
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	Format   string `toml:"format"`
	FontPath string `toml:"font_path"`
	Quality  int    `toml:"quality"`
}

// Video contains render settings.
type Video struct {
	Width         int     `toml:"width"`
	Height        int     `toml:"height"`
	FPS           int     `toml:"fps"`
	Format        string  `toml:"format"`
	FadeSeconds   float64 `toml:"fade_seconds"`
	FFmpegBinary  string  `toml:"ffmpeg_binary"`
	FFprobeBinary string  `toml:"ffprobe_binary"`
}

// YouTube contains upload settings.
type YouTube struct {
	ClientSecrets   string `toml:"client_secrets"`
	TokenPath       string `toml:"token_path"`
	PrivacyStatus   string `toml:"privacy_status"`
	CategoryID      string `toml:"category_id"`
	DefaultLanguage string `toml:"default_language"`
}

// Pipeline toggles stages and bounds their execution.
type Pipeline struct {
	TimeoutSeconds        int  `toml:"timeout_seconds"`
	RetryAttempts         int  `toml:"retry_attempts"`
	MaxWorkers            int  `toml:"max_workers"`
	KeepIntermediateFiles bool `toml:"keep_intermediate_files"`
	EnableText            bool `toml:"enable_text"`
	EnableAudio           bool `toml:"enable_audio"`
	EnableImage           bool `toml:"enable_image"`
	EnableVideo           bool `toml:"enable_video"`
	EnableYouTube         bool `toml:"enable_youtube"`
	EnableAnnounce        bool `toml:"enable_announce"`
}

// Announce contains Telegram and VK posting settings.
type Announce struct {
	TelegramToken   string `toml:"telegram_token"`
	TelegramChannel string `toml:"telegram_channel"`
	VKToken         string `toml:"vk_token"`
	VKGroupID       int    `toml:"vk_group_id"`
	PostTitle       string `toml:"post_title"`
}

// Inbox contains ingest settings for the daemon.
type Inbox struct {
	Enabled     bool     `toml:"enabled"`
	PollMinutes int      `toml:"poll_minutes"`
	Feeds       []string `toml:"feeds"`
	FeedLimit   int      `toml:"feed_limit"`
}

// API contains the HTTP control surface settings.
type API struct {
	Enabled bool   `toml:"enabled"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completed      bool   `toml:"completed"`
	Uploads        bool   `toml:"uploads"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format         string `toml:"format"`
	Level          string `toml:"level"`
	File           bool   `toml:"file"`
	MaxSizeMB      int    `toml:"max_size_mb"`
	Retention      int    `toml:"retention"`
	SeparateErrors bool   `toml:"separate_errors"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval int `toml:"queue_poll_interval"`
	HeartbeatInterval int `toml:"heartbeat_interval"`
	HeartbeatTimeout  int `toml:"heartbeat_timeout"`
}

// Config encapsulates all configuration values for podcaster.
type Config struct {
	Environment   string        `toml:"environment"`
	Debug         bool          `toml:"debug"`
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Text          Text          `toml:"text"`
	TTS           TTS           `toml:"tts"`
	Image         Image         `toml:"image"`
	Video         Video         `toml:"video"`
	YouTube       YouTube       `toml:"youtube"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Announce      Announce      `toml:"announce"`
	Inbox         Inbox         `toml:"inbox"`
	API           API           `toml:"api"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	Workflow      Workflow      `toml:"workflow"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and environment overrides applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	loadDotEnv(resolvedPath)

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads .env files from the working directory and from the config
// directory. Variables already present in the environment are left alone.
func loadDotEnv(configPath string) {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		if info, err := os.Stat(abs); err != nil || info.IsDir() {
			continue
		}
		_ = godotenv.Load(abs)
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("podcaster.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for pipeline operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.OutputDir, c.Paths.LogDir}
	if c.Inbox.Enabled {
		dirs = append(dirs, c.Paths.InboxDir)
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

// QueueDBPath returns the SQLite queue location.
func (c *Config) QueueDBPath() string {
	if c.Paths.QueueDB != "" {
		return c.Paths.QueueDB
	}
	return filepath.Join(c.Paths.DataDir, "queue.db")
}

// LockPath returns the daemon lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "podcaster.lock")
}

// APIAddress returns host:port for the HTTP server.
func (c *Config) APIAddress() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// FFmpegBinary returns the ffmpeg executable used for rendering.
func (c *Config) FFmpegBinary() string {
	if v := strings.TrimSpace(c.Video.FFmpegBinary); v != "" {
		return v
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if v := strings.TrimSpace(c.Video.FFprobeBinary); v != "" {
		return v
	}
	return "ffprobe"
}

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the resolved connection settings for the active provider.
type LLMConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// GetLLM returns the connection settings for the configured provider.
func (c *Config) GetLLM() LLMConfig {
	cfg := LLMConfig{
		Provider:       c.LLM.Provider,
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
	if c.LLM.Provider == ProviderGemini {
		cfg.APIKey = strings.TrimSpace(c.LLM.GeminiAPIKey)
		cfg.BaseURL = ""
		cfg.Model = strings.TrimSpace(c.LLM.GeminiModel)
	}
	return cfg
}
