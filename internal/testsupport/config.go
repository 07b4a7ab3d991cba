package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"podcaster/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a fresh temp directory with every
// external integration switched off.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.InboxDir = filepath.Join(base, "inbox")
	cfgVal.LLM.APIKey = ""
	cfgVal.LLM.GeminiAPIKey = ""
	cfgVal.TTS.ElevenLabsAPIKey = ""
	cfgVal.TTS.GoogleCredentials = ""
	cfgVal.Announce = config.Announce{}
	cfgVal.Pipeline.EnableYouTube = false
	cfgVal.Pipeline.EnableAnnounce = false
	cfgVal.Notifications.NtfyTopic = ""
	cfgVal.API.Host = "127.0.0.1"
	cfgVal.Logging.File = false

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithLLM points the OpenAI-compatible client at baseURL.
func WithLLM(baseURL, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.Provider = config.ProviderOpenAI
		b.cfg.LLM.BaseURL = baseURL
		b.cfg.LLM.APIKey = apiKey
	}
}

// WithStages toggles the optional media stages.
func WithStages(audio, image, video bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.EnableAudio = audio
		b.cfg.Pipeline.EnableImage = image
		b.cfg.Pipeline.EnableVideo = video
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. Without names, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(binDir, name), script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.cfg.Video.FFmpegBinary = "ffmpeg"
		b.cfg.Video.FFprobeBinary = "ffprobe"
		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
