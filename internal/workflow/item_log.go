package workflow

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"podcaster/internal/config"
	"podcaster/internal/logging"
	"podcaster/internal/podcast"
	"podcaster/internal/queue"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ItemLogger mirrors a podcast's stage logs into podcast.log inside its
// folder, next to the artifacts they describe.
type ItemLogger struct {
	level slog.Level
}

// NewItemLogger creates an item logger using the configured level.
func NewItemLogger(cfg *config.Config) *ItemLogger {
	level := "info"
	if cfg != nil && strings.TrimSpace(cfg.Logging.Level) != "" {
		level = cfg.Logging.Level
	}
	return &ItemLogger{level: logging.ParseLevel(level)}
}

// Path returns the log location for item, or "" before analysis has created
// its folder.
func (l *ItemLogger) Path(item *queue.Item) string {
	if item == nil {
		return ""
	}
	folder := strings.TrimSpace(item.FolderPath)
	if folder == "" {
		return ""
	}
	if info, err := os.Stat(folder); err != nil || !info.IsDir() {
		return ""
	}
	return filepath.Join(folder, podcast.LogFile)
}

// Attach returns base teed into the item's log file. The closer must be
// called once the stage finishes.
func (l *ItemLogger) Attach(base *slog.Logger, item *queue.Item) (*slog.Logger, io.Closer) {
	path := l.Path(item)
	if path == "" {
		return base, nopCloser{}
	}
	handler, closer, err := logging.NewFileHandler(path, l.level)
	if err != nil {
		base.Warn("podcast log unavailable", logging.String("path", path), logging.Error(err))
		return base, nopCloser{}
	}
	return logging.TeeLogger(base, handler).With(logging.Int64(logging.FieldItemID, item.ID)), closer
}
