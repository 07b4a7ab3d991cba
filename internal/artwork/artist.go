package artwork

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"podcaster/internal/config"
	"podcaster/internal/fileutil"
	"podcaster/internal/logging"
	"podcaster/internal/podcast"
	"podcaster/internal/queue"
	"podcaster/internal/services"
	"podcaster/internal/stage"
)

const stageName = "artwork"

// Artist is the artwork stage handler.
type Artist struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
}

// NewArtist constructs the artwork stage.
func NewArtist(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Artist {
	a := &Artist{cfg: cfg, store: store}
	a.SetLogger(logger)
	return a
}

// SetLogger replaces the stage logger.
func (a *Artist) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = logging.NewNop()
	}
	a.logger = logger.With(logging.String(logging.FieldComponent, stageName))
}

func (a *Artist) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Illustrating", "Preparing cover")
	_, err := stage.RequireFolder(stageName, item)
	return err
}

func (a *Artist) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, a.logger)
	folder, err := stage.RequireFolder(stageName, item)
	if err != nil {
		return err
	}

	card := Card{Width: a.cfg.Image.Width, Height: a.cfg.Image.Height}
	if analysis, err := podcast.LoadAnalysis(folder); err == nil {
		card.Title = analysis.DisplayTitle()
		card.Subtitle = analysis.Summary
	} else {
		logger.Warn("analysis unavailable; using input text for cover", logging.Error(err))
	}
	if card.Subtitle == "" {
		card.Subtitle = item.InputText
	}

	fnt, err := LoadFont(a.cfg.Image.FontPath)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "load font",
			fmt.Sprintf("Cannot use image.font_path %q", a.cfg.Image.FontPath), err)
	}
	started := time.Now()
	img, err := Render(card, fnt)
	if err != nil {
		return services.Wrap(services.ErrValidation, stageName, "render card", "Failed to render cover", err)
	}
	data, err := Encode(img, a.cfg.Image.Format, a.cfg.Image.Quality)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "encode card", "Failed to encode cover", err)
	}
	path := podcast.CoverFile(folder, a.cfg.Image.Format)
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "write card", "Failed to write cover image", err)
	}
	logging.LogPerformance(logger, "cover render", time.Since(started), logging.Int("bytes", len(data)))

	item.ImagePath = path
	item.SetProgressComplete("Illustrated", fmt.Sprintf("Cover ready: %s", filepath.Base(path)))
	logger.Info("cover rendered",
		logging.String(logging.FieldEventType, "artwork_complete"),
		logging.String("image_path", path),
		logging.String("title", card.Title),
	)
	return nil
}

func (a *Artist) HealthCheck(ctx context.Context) stage.Health {
	if _, err := LoadFont(a.cfg.Image.FontPath); err != nil {
		return stage.Unhealthy(stageName, err.Error())
	}
	return stage.Healthy(stageName)
}
