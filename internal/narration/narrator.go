package narration

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podcaster/internal/config"
	"podcaster/internal/fileutil"
	"podcaster/internal/language"
	"podcaster/internal/logging"
	"podcaster/internal/media/ffmpeg"
	"podcaster/internal/media/ffprobe"
	"podcaster/internal/podcast"
	"podcaster/internal/queue"
	"podcaster/internal/services"
	"podcaster/internal/stage"
)

const stageName = "narration"

// Narrator is the narration stage handler.
type Narrator struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	synth  Synthesizer
}

// NewNarrator constructs the stage with the provider selected by tts.provider.
func NewNarrator(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Narrator {
	return NewNarratorWithDependencies(cfg, store, logger, NewSynthesizer(cfg, logger))
}

// NewNarratorWithDependencies allows injecting the synthesizer (used in tests).
func NewNarratorWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, synth Synthesizer) *Narrator {
	n := &Narrator{cfg: cfg, store: store, synth: synth}
	n.SetLogger(logger)
	return n
}

// SetLogger replaces the stage logger.
func (n *Narrator) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = logging.NewNop()
	}
	n.logger = logger.With(logging.String(logging.FieldComponent, stageName))
}

func (n *Narrator) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Narrating", "Preparing narration")
	_, err := stage.RequireFolder(stageName, item)
	return err
}

func (n *Narrator) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, n.logger)
	folder, err := stage.RequireFolder(stageName, item)
	if err != nil {
		return err
	}

	text := NarrationText(folder, item.InputText)
	if text == "" {
		return services.Wrap(services.ErrValidation, stageName, "select text", "Nothing to narrate: summary and input are empty", nil)
	}
	lang := language.Lookup(item.Language)
	tts := n.cfg.TTS
	target := podcast.AudioFile(folder, tts.Format)

	path := ""
	if n.synth == nil {
		logging.WarnWithContext(logger, "tts credentials not configured; writing silent placeholder", "tts_unconfigured",
			logging.String(logging.FieldErrorHint, "set ELEVENLABS_API_KEY or tts.google_credentials"),
			logging.String("provider", tts.Provider),
		)
	} else {
		n.updateProgress(ctx, item, fmt.Sprintf("Synthesizing speech with %s", n.synth.Name()), 20)
		path, err = n.synthesize(ctx, text, lang, target)
		if err != nil {
			if ctx.Err() != nil {
				return services.Wrap(services.ErrTimeout, stageName, "synthesize", "Narration cancelled", ctx.Err())
			}
			logging.WarnWithContext(logger, "speech synthesis failed; writing silent placeholder", "tts_failed",
				logging.String("provider", n.synth.Name()),
				logging.Error(err),
			)
			path = ""
		}
	}

	if path == "" {
		n.updateProgress(ctx, item, "Writing silent placeholder", 60)
		path, err = writeSilence(ctx, n.cfg.FFmpegBinary(), target, tts.Format, tts.Quality, tts.SampleRate, tts.PlaceholderSeconds)
		if err != nil {
			return services.Wrap(services.ErrTransient, stageName, "write placeholder", "Failed to write placeholder audio", err)
		}
	}

	item.AudioPath = path
	message := fmt.Sprintf("Audio ready: %s", filepath.Base(path))
	if seconds, err := ffprobe.Duration(ctx, n.cfg.FFprobeBinary(), path); err == nil {
		message = fmt.Sprintf("Audio ready: %s (%.1fs)", filepath.Base(path), seconds)
	}
	item.SetProgressComplete("Narrated", message)
	logger.Info("narration completed",
		logging.String(logging.FieldEventType, "narration_complete"),
		logging.String("audio_path", path),
		logging.String("language", lang.Name),
	)
	return nil
}

// synthesize writes provider audio to target, transcoding through ffmpeg when
// the provider cannot produce the configured format.
func (n *Narrator) synthesize(ctx context.Context, text string, lang language.Language, target string) (string, error) {
	started := time.Now()
	audio, format, err := n.synth.Synthesize(ctx, text, lang)
	if err != nil {
		return "", err
	}
	logging.LogPerformance(n.logger, "speech synthesis", time.Since(started),
		logging.String("provider", n.synth.Name()),
		logging.Int("bytes", len(audio)),
	)
	want := n.cfg.TTS.Format
	if format == want {
		if err := fileutil.WriteFileAtomic(target, audio, 0o644); err != nil {
			return "", fmt.Errorf("write audio: %w", err)
		}
		return target, nil
	}

	native := strings.TrimSuffix(target, filepath.Ext(target)) + ".native." + format
	if err := fileutil.WriteFileAtomic(native, audio, 0o644); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	args := append([]string{"-i", native}, ffmpeg.AudioCodecArgs(want, n.cfg.TTS.Quality)...)
	args = append(args, target)
	if err := ffmpeg.Run(ctx, n.cfg.FFmpegBinary(), args...); err != nil || !fileutil.Exists(target) {
		// Keep the provider audio rather than losing the narration.
		kept := podcast.AudioFile(filepath.Dir(target), format)
		if renameErr := os.Rename(native, kept); renameErr != nil {
			return "", fmt.Errorf("keep %s audio: %w", format, renameErr)
		}
		logging.WarnWithContext(n.logger, "audio transcode failed; keeping provider format", "transcode_failed",
			logging.String("format", format),
			logging.Error(err),
		)
		return kept, nil
	}
	if !n.cfg.Pipeline.KeepIntermediateFiles {
		_ = os.Remove(native)
	}
	return target, nil
}

func (n *Narrator) HealthCheck(ctx context.Context) stage.Health {
	if n.synth == nil {
		return stage.Health{Name: stageName, Ready: true, Detail: "tts not configured; silent placeholder audio"}
	}
	return stage.Healthy(stageName)
}

// NarrationText returns the analysis summary, falling back to the input text.
func NarrationText(folder, input string) string {
	if analysis, err := podcast.LoadAnalysis(folder); err == nil {
		if summary := strings.TrimSpace(analysis.Summary); summary != "" {
			return summary
		}
	}
	if strings.TrimSpace(input) == "" {
		if text, err := podcast.ReadInput(folder); err == nil {
			input = text
		}
	}
	return strings.TrimSpace(input)
}

func (n *Narrator) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	item.SetProgress("Narrating", message, percent)
	if n.store == nil || item.ID == 0 {
		return
	}
	if err := n.store.Update(ctx, item); err != nil {
		logging.WithContext(ctx, n.logger).Warn("failed to persist narration progress", logging.Error(err))
	}
}
