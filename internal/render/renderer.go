package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"podcaster/internal/config"
	"podcaster/internal/fileutil"
	"podcaster/internal/logging"
	"podcaster/internal/media/ffmpeg"
	"podcaster/internal/media/ffprobe"
	"podcaster/internal/podcast"
	"podcaster/internal/queue"
	"podcaster/internal/services"
	"podcaster/internal/stage"
)

const stageName = "render"

// Renderer is the video stage handler.
type Renderer struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
}

// NewRenderer constructs the render stage.
func NewRenderer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Renderer {
	r := &Renderer{cfg: cfg, store: store}
	r.SetLogger(logger)
	return r
}

// SetLogger replaces the stage logger.
func (r *Renderer) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = logging.NewNop()
	}
	r.logger = logger.With(logging.String(logging.FieldComponent, stageName))
}

func (r *Renderer) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Rendering", "Preparing video render")
	if _, err := stage.RequireFolder(stageName, item); err != nil {
		return err
	}
	return stage.RequireArtifact(stageName, "cover image", item.ImagePath)
}

func (r *Renderer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, r.logger)
	folder, err := stage.RequireFolder(stageName, item)
	if err != nil {
		return err
	}
	if err := stage.RequireArtifact(stageName, "cover image", item.ImagePath); err != nil {
		return err
	}

	audio := strings.TrimSpace(item.AudioPath)
	if audio != "" && !fileutil.Exists(audio) {
		logging.WarnWithContext(logger, "narration audio missing; rendering silent video", "audio_missing",
			logging.String("audio_path", audio))
		audio = ""
	}
	duration := fallbackDuration
	if audio != "" {
		seconds, probeErr := ffprobe.Duration(ctx, r.cfg.FFprobeBinary(), audio)
		if probeErr != nil {
			logger.Warn("audio probe failed; using fallback duration", logging.Error(probeErr))
		}
		duration = ClampDuration(seconds, probeErr)
	}

	target := podcast.VideoFile(folder, r.cfg.Video.Format)
	tmp := filepath.Join(folder, "video.tmp."+r.cfg.Video.Format)
	job := Job{
		Image:       item.ImagePath,
		Audio:       audio,
		Output:      tmp,
		Width:       r.cfg.Video.Width,
		Height:      r.cfg.Video.Height,
		FPS:         r.cfg.Video.FPS,
		Duration:    duration,
		FadeSeconds: r.cfg.Video.FadeSeconds,
	}

	sampler := logging.NewProgressSampler(10)
	onProgress := func(out time.Duration) {
		percent := out.Seconds() / duration * 100
		if percent > 100 {
			percent = 100
		}
		if !sampler.ShouldLog(percent, "encode") {
			return
		}
		r.updateProgress(ctx, item, fmt.Sprintf("Encoding video %.0f%%", percent), percent)
		logger.Debug("render progress", logging.Float64("percent", percent))
	}

	started := time.Now()
	r.updateProgress(ctx, item, "Encoding video", 0)
	if err := ffmpeg.RunWithProgress(ctx, r.cfg.FFmpegBinary(), onProgress, Args(job)...); err != nil {
		_ = os.Remove(tmp)
		if ctx.Err() != nil {
			return services.Wrap(services.ErrTimeout, stageName, "encode", "Video render cancelled", err)
		}
		return services.Wrap(services.ErrExternalTool, stageName, "encode", "ffmpeg failed to render video", err)
	}
	if !fileutil.Exists(tmp) {
		return services.Wrap(services.ErrExternalTool, stageName, "encode", "ffmpeg produced no output", nil)
	}
	if err := os.Rename(tmp, target); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "finalize", "Failed to move rendered video into place", err)
	}
	logging.LogPerformance(logger, "video render", time.Since(started), logging.Float64("duration_seconds", duration))

	item.VideoPath = target
	item.SetProgressComplete("Rendered", fmt.Sprintf("Video ready: %s (%.1fs)", filepath.Base(target), duration))
	logger.Info("video rendered",
		logging.String(logging.FieldEventType, "render_complete"),
		logging.String("video_path", target),
		logging.Bool("has_audio", audio != ""),
	)
	return nil
}

func (r *Renderer) HealthCheck(ctx context.Context) stage.Health {
	for _, bin := range []string{r.cfg.FFmpegBinary(), r.cfg.FFprobeBinary()} {
		if _, err := exec.LookPath(bin); err != nil {
			return stage.Unhealthy(stageName, fmt.Sprintf("%s not found", bin))
		}
	}
	return stage.Healthy(stageName)
}

func (r *Renderer) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	item.SetProgress("Rendering", message, percent)
	if r.store == nil || item.ID == 0 {
		return
	}
	if err := r.store.Update(ctx, item); err != nil {
		logging.WithContext(ctx, r.logger).Warn("failed to persist render progress", logging.Error(err))
	}
}
