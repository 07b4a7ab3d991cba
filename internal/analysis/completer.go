package analysis

import (
	"log/slog"

	"podcaster/internal/config"
	"podcaster/internal/services/gemini"
	"podcaster/internal/services/llm"
)

const analysisTemperature = 0.2

// NewCompleter returns the client for the configured LLM provider, or nil
// when the provider has no API key.
func NewCompleter(cfg *config.Config, logger *slog.Logger) llm.Completer {
	if cfg == nil {
		return nil
	}
	settings := cfg.GetLLM()
	if settings.APIKey == "" {
		return nil
	}
	if settings.Provider == config.ProviderGemini {
		return gemini.NewClient(gemini.Config{
			APIKey:         settings.APIKey,
			Model:          settings.Model,
			Temperature:    analysisTemperature,
			TimeoutSeconds: settings.TimeoutSeconds,
		}, logger)
	}
	return llm.NewClient(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Temperature:    analysisTemperature,
		TimeoutSeconds: settings.TimeoutSeconds,
	}, llm.WithLogger(logger))
}
