package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/mmcdole/gofeed"

	"podcaster/internal/config"
	"podcaster/internal/fileutil"
	"podcaster/internal/logging"
	"podcaster/internal/queue"
	"podcaster/internal/textutil"
)

const (
	processedDir = "processed"
	// nearDuplicateThreshold is the cosine similarity above which a new
	// thought is treated as a rewording of one already queued.
	nearDuplicateThreshold = 0.92
	defaultFeedLimit       = 5
)

var inboxExtensions = map[string]bool{".txt": true, ".md": true}

// Result summarizes one poll.
type Result struct {
	Enqueued   int
	Duplicates int
	Errors     int
}

func (r *Result) add(other Result) {
	r.Enqueued += other.Enqueued
	r.Duplicates += other.Duplicates
	r.Errors += other.Errors
}

// Watcher enqueues thoughts from the inbox directory and feeds.
type Watcher struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	parser *gofeed.Parser

	mu        sync.Mutex
	scheduler *gocron.Scheduler
}

// NewWatcher constructs a watcher.
func NewWatcher(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		cfg:    cfg,
		store:  store,
		logger: logger.With(logging.String(logging.FieldComponent, "inbox")),
		parser: gofeed.NewParser(),
	}
}

// Start schedules Poll every inbox.poll_minutes, with the first run
// immediately. Runs never overlap.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.scheduler != nil {
		return errors.New("inbox watcher already started")
	}
	minutes := w.cfg.Inbox.PollMinutes
	if minutes <= 0 {
		minutes = 5
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(minutes).Minutes().Do(func() {
		if _, err := w.Poll(ctx); err != nil {
			w.logger.Warn("inbox poll failed", logging.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule inbox poll: %w", err)
	}
	s.StartAsync()
	w.scheduler = s
	w.logger.Info("inbox watcher started",
		logging.String(logging.FieldEventType, "inbox_started"),
		logging.Int("poll_minutes", minutes),
		logging.String("inbox_dir", w.cfg.Paths.InboxDir),
		logging.Int("feeds", len(w.cfg.Inbox.Feeds)),
	)
	return nil
}

// Stop cancels the schedule.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.scheduler != nil {
		w.scheduler.Stop()
		w.scheduler = nil
	}
}

// Poll scans the directory and every feed once.
func (w *Watcher) Poll(ctx context.Context) (Result, error) {
	var total Result
	dirResult, dirErr := w.ScanDir(ctx)
	total.add(dirResult)
	for _, feedURL := range w.cfg.Inbox.Feeds {
		feedURL = strings.TrimSpace(feedURL)
		if feedURL == "" {
			continue
		}
		res, err := w.PollFeed(ctx, feedURL)
		total.add(res)
		if err != nil {
			total.Errors++
			w.logger.Warn("feed poll failed", logging.String("feed", feedURL), logging.Error(err))
		}
	}
	if total.Enqueued > 0 {
		w.logger.Info("inbox poll enqueued thoughts",
			logging.String(logging.FieldEventType, "inbox_enqueued"),
			logging.Int("enqueued", total.Enqueued),
			logging.Int("duplicates", total.Duplicates),
		)
	}
	return total, dirErr
}

// ScanDir enqueues each .txt or .md file in the inbox directory and moves it
// to the processed subdirectory. Files that fail to enqueue stay in place.
func (w *Watcher) ScanDir(ctx context.Context) (Result, error) {
	var res Result
	dir := strings.TrimSpace(w.cfg.Paths.InboxDir)
	if dir == "" {
		return res, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return res, nil
		}
		return res, fmt.Errorf("read inbox: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !inboxExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			res.Errors++
			w.logger.Warn("failed to read inbox file", logging.String("file", name), logging.Error(err))
			continue
		}
		outcome, err := w.enqueue(ctx, queue.SourceInbox, name, string(data))
		if err != nil {
			res.Errors++
			w.logger.Warn("failed to enqueue inbox file", logging.String("file", name), logging.Error(err))
			continue
		}
		res.add(outcome)
		if err := w.archive(dir, name); err != nil {
			res.Errors++
			w.logger.Warn("failed to move processed inbox file", logging.String("file", name), logging.Error(err))
		}
	}
	return res, nil
}

func (w *Watcher) archive(dir, name string) error {
	target := filepath.Join(dir, processedDir, name)
	if fileutil.Exists(target) {
		ext := filepath.Ext(name)
		target = filepath.Join(dir, processedDir,
			fmt.Sprintf("%s-%s%s", strings.TrimSuffix(name, ext), time.Now().UTC().Format("20060102T150405"), ext))
	}
	return fileutil.MoveFile(filepath.Join(dir, name), target)
}

// PollFeed enqueues the newest inbox.feed_limit entries of one feed.
func (w *Watcher) PollFeed(ctx context.Context, feedURL string) (Result, error) {
	var res Result
	feed, err := w.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return res, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	items := feed.Items
	sort.SliceStable(items, func(i, j int) bool { return published(items[i]).After(published(items[j])) })
	limit := w.cfg.Inbox.FeedLimit
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if len(items) > limit {
		items = items[:limit]
	}
	for _, entry := range items {
		text := EntryText(entry)
		if text == "" {
			continue
		}
		ref := entry.Link
		if ref == "" {
			ref = entry.GUID
		}
		outcome, err := w.enqueue(ctx, queue.SourceFeed, ref, text)
		if err != nil {
			res.Errors++
			w.logger.Warn("failed to enqueue feed entry", logging.String("entry", ref), logging.Error(err))
			continue
		}
		res.add(outcome)
	}
	return res, nil
}

// EntryText is the entry title followed by its content (or description)
// converted to plain text.
func EntryText(entry *gofeed.Item) string {
	body := entry.Content
	if strings.TrimSpace(body) == "" {
		body = entry.Description
	}
	parts := []string{strings.TrimSpace(entry.Title), HTMLToText(body)}
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}

func published(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

func (w *Watcher) enqueue(ctx context.Context, kind queue.SourceKind, ref, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, nil
	}
	similar, err := w.nearDuplicate(ctx, text)
	if err != nil {
		return Result{}, err
	}
	if similar != nil {
		w.logger.Debug("skipping near-duplicate thought",
			logging.String("source_ref", ref),
			logging.Int64("similar_item", similar.ID))
		return Result{Duplicates: 1}, nil
	}
	item, err := w.store.NewItem(ctx, kind, ref, text)
	switch {
	case errors.Is(err, queue.ErrDuplicate):
		return Result{Duplicates: 1}, nil
	case errors.Is(err, queue.ErrEmptyText):
		return Result{}, nil
	case err != nil:
		return Result{}, err
	}
	w.logger.Info("thought enqueued",
		logging.String(logging.FieldEventType, "item_enqueued"),
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("source_kind", string(kind)),
		logging.String("source_ref", ref),
	)
	return Result{Enqueued: 1}, nil
}

// nearDuplicate returns the first queued item whose text is nearly identical.
func (w *Watcher) nearDuplicate(ctx context.Context, text string) (*queue.Item, error) {
	candidate := textutil.NewFingerprint(text)
	if candidate.TokenCount() == 0 {
		return nil, nil
	}
	items, err := w.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	for _, item := range items {
		if textutil.CosineSimilarity(candidate, textutil.NewFingerprint(item.InputText)) >= nearDuplicateThreshold {
			return item, nil
		}
	}
	return nil, nil
}
