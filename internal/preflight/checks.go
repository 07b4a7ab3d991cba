package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"podcaster/internal/config"
	"podcaster/internal/deps"
	"podcaster/internal/services/gemini"
	"podcaster/internal/services/llm"
)

const llmCheckTimeout = 30 * time.Second

// CheckLLM verifies that the analysis provider is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, llmCheckTimeout)
	defer cancel()

	var client llm.Completer
	if cfg.Provider == config.ProviderGemini {
		client = gemini.NewClient(gemini.Config{
			APIKey:         cfg.APIKey,
			Model:          cfg.Model,
			TimeoutSeconds: cfg.TimeoutSeconds,
		}, nil)
	} else {
		client = llm.NewClient(llm.Config{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			TimeoutSeconds: cfg.TimeoutSeconds,
		}, llm.WithRetryMaxAttempts(1))
	}

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckTTS reports whether speech synthesis credentials are present. Missing
// credentials still pass: narration writes a silent placeholder instead.
func CheckTTS(cfg config.TTS) Result {
	const name = "Text-to-speech"

	switch cfg.Provider {
	case config.ProviderGoogle:
		path := strings.TrimSpace(cfg.GoogleCredentials)
		if path == "" {
			return Result{Name: name, Passed: true, Detail: "Google credentials missing (silent placeholder)"}
		}
		if _, err := os.Stat(path); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
		}
		return Result{Name: name, Passed: true, Detail: "Google Cloud TTS"}
	default:
		if strings.TrimSpace(cfg.ElevenLabsAPIKey) == "" {
			return Result{Name: name, Passed: true, Detail: "ElevenLabs key missing (silent placeholder)"}
		}
		return Result{Name: name, Passed: true, Detail: "ElevenLabs"}
	}
}

// CheckYouTube verifies that the OAuth client secrets and a saved token exist.
func CheckYouTube(cfg config.YouTube) Result {
	const name = "YouTube"

	secrets := strings.TrimSpace(cfg.ClientSecrets)
	if secrets == "" {
		return Result{Name: name, Detail: "client secrets not configured"}
	}
	if _, err := os.Stat(secrets); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("client secrets unreadable: %v", err)}
	}
	token := strings.TrimSpace(cfg.TokenPath)
	if token == "" {
		return Result{Name: name, Detail: "token path not configured"}
	}
	if _, err := os.Stat(token); err != nil {
		return Result{Name: name, Detail: "not authorized (run: podcaster youtube auth)"}
	}
	return Result{Name: name, Passed: true, Detail: "Authorized"}
}

// CheckAnnounce reports which announcement targets are configured.
func CheckAnnounce(cfg config.Announce) Result {
	const name = "Announce"

	var targets []string
	if strings.TrimSpace(cfg.TelegramToken) != "" && strings.TrimSpace(cfg.TelegramChannel) != "" {
		targets = append(targets, "telegram")
	}
	if strings.TrimSpace(cfg.VKToken) != "" && cfg.VKGroupID != 0 {
		targets = append(targets, "vk")
	}
	if len(targets) == 0 {
		return Result{Name: name, Detail: "no targets configured"}
	}
	return Result{Name: name, Passed: true, Detail: strings.Join(targets, ", ")}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the media binaries for the given config.
// Both the daemon and the CLI status command use this to avoid duplicating
// the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.MediaRequirements(
		cfg.FFmpegBinary(),
		cfg.FFprobeBinary(),
		cfg.Pipeline.EnableVideo,
	))
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
