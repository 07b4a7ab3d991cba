package narration

import (
	"context"
	"log/slog"
	"strings"

	"podcaster/internal/config"
	"podcaster/internal/language"
	"podcaster/internal/services/elevenlabs"
	"podcaster/internal/services/googletts"
)

// Synthesizer turns text into audio bytes of the returned container format.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text string, lang language.Language) ([]byte, string, error)
}

// NewSynthesizer returns the configured TTS provider, or nil when it has no
// credentials.
func NewSynthesizer(cfg *config.Config, logger *slog.Logger) Synthesizer {
	if cfg == nil {
		return nil
	}
	tts := cfg.TTS
	switch tts.Provider {
	case config.ProviderGoogle:
		if strings.TrimSpace(tts.GoogleCredentials) == "" {
			return nil
		}
		return googletts.NewClient(googletts.Config{
			CredentialsFile: tts.GoogleCredentials,
			Voices:          tts.GoogleVoices,
			SampleRate:      tts.SampleRate,
			Format:          tts.Format,
		}, logger)
	default:
		if strings.TrimSpace(tts.ElevenLabsAPIKey) == "" {
			return nil
		}
		return elevenlabs.NewClient(elevenlabs.Config{
			APIKey:     tts.ElevenLabsAPIKey,
			BaseURL:    tts.ElevenLabsBaseURL,
			VoiceID:    tts.VoiceID,
			ModelID:    tts.ModelID,
			SampleRate: tts.SampleRate,
			Format:     tts.Format,
			Quality:    tts.Quality,
		}, nil, logger)
	}
}
