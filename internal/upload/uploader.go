package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"podcaster/internal/config"
	"podcaster/internal/fileutil"
	"podcaster/internal/logging"
	"podcaster/internal/notifications"
	"podcaster/internal/podcast"
	"podcaster/internal/queue"
	"podcaster/internal/services"
	"podcaster/internal/services/youtube"
	"podcaster/internal/stage"
)

const stageName = "upload"

// VideoClient is the subset of the YouTube client the stage uses.
type VideoClient interface {
	Upload(ctx context.Context, video youtube.Video) (string, error)
}

// Uploader is the upload stage handler.
type Uploader struct {
	cfg      *config.Config
	store    *queue.Store
	notifier notifications.Service
	logger   *slog.Logger
	client   VideoClient
}

// NewUploader constructs the stage; the API client is built on first use from
// the stored OAuth token.
func NewUploader(cfg *config.Config, store *queue.Store, notifier notifications.Service, logger *slog.Logger) *Uploader {
	return NewUploaderWithClient(cfg, store, notifier, logger, nil)
}

// NewUploaderWithClient allows injecting the API client (used in tests).
func NewUploaderWithClient(cfg *config.Config, store *queue.Store, notifier notifications.Service, logger *slog.Logger, client VideoClient) *Uploader {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	u := &Uploader{cfg: cfg, store: store, notifier: notifier, client: client}
	u.SetLogger(logger)
	return u
}

// SetLogger replaces the stage logger.
func (u *Uploader) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = logging.NewNop()
	}
	u.logger = logger.With(logging.String(logging.FieldComponent, stageName))
}

func (u *Uploader) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Uploading", "Preparing YouTube upload")
	if _, err := stage.RequireFolder(stageName, item); err != nil {
		return err
	}
	if item.YouTubeID != "" {
		return nil
	}
	return stage.RequireArtifact(stageName, "video", item.VideoPath)
}

func (u *Uploader) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, u.logger)
	folder, err := stage.RequireFolder(stageName, item)
	if err != nil {
		return err
	}
	if item.YouTubeID != "" {
		logger.Info("video already uploaded; skipping",
			logging.String(logging.FieldEventType, "upload_skipped"),
			logging.String("youtube_id", item.YouTubeID))
		recordLink(logger, folder, item)
		item.SetProgressComplete("Uploaded", "Already on YouTube: "+item.YouTubeURL)
		return nil
	}

	analysis, err := podcast.LoadAnalysis(folder)
	if err != nil {
		return services.Wrap(services.ErrValidation, stageName, "load analysis",
			"Analysis result missing; rerun analysis", err)
	}
	video := Metadata(analysis, item.Title, u.cfg.YouTube.DefaultLanguage)
	video.Path = item.VideoPath
	video.CategoryID = u.cfg.YouTube.CategoryID
	video.PrivacyStatus = u.cfg.YouTube.PrivacyStatus

	client, err := u.clientFor(ctx)
	if err != nil {
		return err
	}
	u.updateProgress(ctx, item, "Uploading video to YouTube", 10)

	started := time.Now()
	id, err := client.Upload(ctx, video)
	if err != nil {
		return classify(err)
	}
	item.YouTubeID = id
	item.YouTubeURL = youtube.WatchURL(id)
	logging.LogPerformance(logger, "youtube upload", time.Since(started), logging.String("youtube_id", id))

	recordLink(logger, folder, item)

	if err := u.notifier.Publish(ctx, notifications.EventUploadCompleted, notifications.Payload{
		"title": item.Title,
		"url":   item.YouTubeURL,
	}); err != nil {
		logger.Debug("upload notification failed", logging.Error(err))
	}

	item.SetProgressComplete("Uploaded", "Published "+item.YouTubeURL)
	logger.Info("video uploaded",
		logging.String(logging.FieldEventType, "upload_complete"),
		logging.String("youtube_id", id),
		logging.String("youtube_url", item.YouTubeURL),
		logging.String("privacy", video.PrivacyStatus),
	)
	return nil
}

// recordLink writes the item's video link into description.md.
func recordLink(logger *slog.Logger, folder string, item *queue.Item) {
	if err := podcast.UpdateDescription(folder, func(d *podcast.Description) {
		d.YouTubeID = item.YouTubeID
		d.YouTubeURL = item.YouTubeURL
	}); err != nil {
		logging.WarnWithContext(logger, "failed to record video link in description", "description_update_failed",
			logging.Error(err))
	}
}

func (u *Uploader) HealthCheck(ctx context.Context) stage.Health {
	if u.client != nil {
		return stage.Healthy(stageName)
	}
	if !fileutil.Exists(u.cfg.YouTube.ClientSecrets) {
		return stage.Unhealthy(stageName, "youtube client_secrets file not found")
	}
	if !fileutil.Exists(u.cfg.YouTube.TokenPath) {
		return stage.Unhealthy(stageName, "youtube token missing; run `podcaster youtube auth`")
	}
	return stage.Healthy(stageName)
}

func (u *Uploader) clientFor(ctx context.Context) (VideoClient, error) {
	if u.client != nil {
		return u.client, nil
	}
	client, err := youtube.NewClient(ctx, youtube.Config{
		ClientSecrets: u.cfg.YouTube.ClientSecrets,
		TokenPath:     u.cfg.YouTube.TokenPath,
	}, u.logger)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "authorize",
			"YouTube credentials unavailable", err)
	}
	u.client = client
	return client, nil
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return services.Wrap(services.ErrTimeout, stageName, "upload", "YouTube upload timed out", err)
	}
	code := youtube.StatusCode(err)
	switch {
	case code == http.StatusUnauthorized:
		return services.Wrap(services.ErrConfiguration, stageName, "upload",
			"YouTube rejected the stored token; run `podcaster youtube auth`", err)
	case code == http.StatusTooManyRequests || code >= 500 || code == 0:
		return services.Wrap(services.ErrTransient, stageName, "upload", "YouTube upload failed", err)
	case code == http.StatusForbidden && strings.Contains(err.Error(), "quota"):
		return services.Wrap(services.ErrValidation, stageName, "upload", "YouTube quota exceeded", err)
	default:
		return services.Wrap(services.ErrValidation, stageName, "upload",
			fmt.Sprintf("YouTube rejected the upload (HTTP %d)", code), err)
	}
}

func (u *Uploader) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	item.SetProgress("Uploading", message, percent)
	if u.store == nil || item.ID == 0 {
		return
	}
	if err := u.store.Update(ctx, item); err != nil {
		logging.WithContext(ctx, u.logger).Warn("failed to persist upload progress", logging.Error(err))
	}
}
