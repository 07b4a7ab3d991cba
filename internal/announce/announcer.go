package announce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"podcaster/internal/config"
	"podcaster/internal/fileutil"
	"podcaster/internal/logging"
	"podcaster/internal/podcast"
	"podcaster/internal/queue"
	"podcaster/internal/services"
	"podcaster/internal/stage"
)

const (
	stageName = "announce"
	stateFile = "announce.json"
)

type state struct {
	Posted map[string]time.Time `json:"posted"`
}

// Announcer is the announce stage handler.
type Announcer struct {
	cfg     *config.Config
	store   *queue.Store
	logger  *slog.Logger
	targets []Target
}

// NewAnnouncer constructs the stage with every target that has credentials.
func NewAnnouncer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Announcer {
	return NewAnnouncerWithTargets(cfg, store, logger, TargetsFromConfig(cfg)...)
}

// NewAnnouncerWithTargets allows injecting targets (used in tests).
func NewAnnouncerWithTargets(cfg *config.Config, store *queue.Store, logger *slog.Logger, targets ...Target) *Announcer {
	a := &Announcer{cfg: cfg, store: store, targets: targets}
	a.SetLogger(logger)
	return a
}

// TargetsFromConfig returns the targets whose credentials are set.
func TargetsFromConfig(cfg *config.Config) []Target {
	var targets []Target
	ac := cfg.Announce
	if strings.TrimSpace(ac.TelegramToken) != "" && strings.TrimSpace(ac.TelegramChannel) != "" {
		targets = append(targets, NewTelegram(ac.TelegramToken, ac.TelegramChannel, "", nil))
	}
	if strings.TrimSpace(ac.VKToken) != "" && ac.VKGroupID != 0 {
		targets = append(targets, NewVK(ac.VKToken, ac.VKGroupID, "", nil))
	}
	return targets
}

// SetLogger replaces the stage logger.
func (a *Announcer) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = logging.NewNop()
	}
	a.logger = logger.With(logging.String(logging.FieldComponent, stageName))
}

func (a *Announcer) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Announcing", "Preparing announcements")
	_, err := stage.RequireFolder(stageName, item)
	return err
}

func (a *Announcer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, a.logger)
	folder, err := stage.RequireFolder(stageName, item)
	if err != nil {
		return err
	}
	if len(a.targets) == 0 {
		logger.Info("no announce targets configured; skipping",
			logging.String(logging.FieldEventType, "announce_skipped"))
		item.SetProgressComplete("Announced", "No announce targets configured")
		return nil
	}

	post := a.buildPost(folder, item)
	statePath := filepath.Join(folder, stateFile)
	var st state
	if fileutil.Exists(statePath) {
		if err := fileutil.ReadJSON(statePath, &st); err != nil {
			logger.Warn("announce state unreadable; posting to all targets", logging.Error(err))
		}
	}
	if st.Posted == nil {
		st.Posted = make(map[string]time.Time)
	}

	var failures []error
	for i, target := range a.targets {
		name := target.Name()
		if _, done := st.Posted[name]; done {
			logger.Debug("target already announced", logging.String("target", name))
			continue
		}
		a.updateProgress(ctx, item, "Posting to "+name, float64(i)*100/float64(len(a.targets)))
		started := time.Now()
		if err := target.Publish(ctx, post); err != nil {
			logging.ErrorWithContext(logger, "announcement failed", "announce_failed",
				logging.String("target", name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the "+name+" credentials in [announce]"),
			)
			failures = append(failures, err)
			continue
		}
		st.Posted[name] = time.Now().UTC()
		logging.LogPerformance(logger, "announce "+name, time.Since(started))
	}
	if err := fileutil.WriteJSON(statePath, st); err != nil {
		logger.Warn("failed to record announce state", logging.Error(err))
	}
	if len(failures) > 0 {
		if ctx.Err() != nil {
			return services.Wrap(services.ErrTimeout, stageName, "publish", "Announcement cancelled", errors.Join(failures...))
		}
		return services.Wrap(services.ErrTransient, stageName, "publish",
			fmt.Sprintf("%d of %d announcements failed", len(failures), len(a.targets)), errors.Join(failures...))
	}

	item.Announced = true
	if err := podcast.UpdateDescription(folder, func(d *podcast.Description) { d.Announced = true }); err != nil {
		logger.Debug("failed to mark description announced", logging.Error(err))
	}
	item.SetProgressComplete("Announced", fmt.Sprintf("Announced on %d platform(s)", len(a.targets)))
	logger.Info("podcast announced",
		logging.String(logging.FieldEventType, "announce_complete"),
		logging.Int("targets", len(a.targets)),
	)
	return nil
}

func (a *Announcer) buildPost(folder string, item *queue.Item) Post {
	post := Post{
		Heading:  a.cfg.Announce.PostTitle,
		Title:    item.Title,
		VideoURL: item.YouTubeURL,
	}
	if analysis, err := podcast.LoadAnalysis(folder); err == nil {
		post.Summary = analysis.Summary
		if post.Title == "" {
			post.Title = analysis.DisplayTitle()
		}
	}
	return post
}

func (a *Announcer) HealthCheck(ctx context.Context) stage.Health {
	if len(a.targets) == 0 {
		return stage.Unhealthy(stageName, "no Telegram or VK credentials configured")
	}
	return stage.Healthy(stageName)
}

func (a *Announcer) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	item.SetProgress("Announcing", message, percent)
	if a.store == nil || item.ID == 0 {
		return
	}
	if err := a.store.Update(ctx, item); err != nil {
		logging.WithContext(ctx, a.logger).Warn("failed to persist announce progress", logging.Error(err))
	}
}
