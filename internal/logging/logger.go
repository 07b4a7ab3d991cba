package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"

	"podcaster/internal/config"
)

const (
	// LogFileName is the rotated JSON log written under the log directory.
	LogFileName = "podcaster.log"
	// ErrorLogFileName receives only ERROR records when separate error logs are enabled.
	ErrorLogFileName = "podcaster_errors.log"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Console defaults to stderr. Set Quiet to drop console output entirely.
	Console io.Writer
	Quiet   bool
	// NoColor disables ANSI colors even when the console is a terminal.
	NoColor bool

	FilePath      string
	ErrorFilePath string
	MaxSizeMB     int
	Retention     int

	Development bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(ParseLevel(opts.Level))
	addSource := opts.Development || levelVar.Level() <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}

	var console slog.Handler
	if !opts.Quiet {
		w := opts.Console
		if w == nil {
			w = os.Stderr
		}
		switch format {
		case "json":
			console = newJSONHandler(w, levelVar, addSource)
		case "console":
			console = newPrettyHandler(w, levelVar, addSource, !opts.NoColor && shouldColorize(w))
		default:
			return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
		}
	}

	var file, errorsOnly slog.Handler
	if path := strings.TrimSpace(opts.FilePath); path != "" {
		w, err := rotatingWriter(path, opts.MaxSizeMB, opts.Retention)
		if err != nil {
			return nil, err
		}
		file = newJSONHandler(w, levelVar, addSource)
	}
	if path := strings.TrimSpace(opts.ErrorFilePath); path != "" {
		w, err := rotatingWriter(path, opts.MaxSizeMB, opts.Retention)
		if err != nil {
			return nil, err
		}
		errorsOnly = newJSONHandler(w, slog.LevelError, true)
	}

	return slog.New(newFanoutHandler(console, file, errorsOnly)), nil
}

// NewFromConfig creates a logger using the [logging] section and log directory.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console"})
	}
	opts := Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		Retention:   cfg.Logging.Retention,
		Development: cfg.Debug,
	}
	if cfg.Logging.File && cfg.Paths.LogDir != "" {
		opts.FilePath = filepath.Join(cfg.Paths.LogDir, LogFileName)
		if cfg.Logging.SeparateErrors {
			opts.ErrorFilePath = filepath.Join(cfg.Paths.LogDir, ErrorLogFileName)
		}
	}
	return New(opts)
}

// NewFileHandler returns a JSON handler appending to path without rotation.
// The caller closes the returned file.
func NewFileHandler(path string, level slog.Level) (slog.Handler, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %q: %w", path, err)
	}
	return newJSONHandler(f, level, false), f, nil
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "critical", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func rotatingWriter(path string, maxSizeMB, retention int) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	if retention < 0 {
		retention = 0
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: retention,
		LocalTime:  true,
	}, nil
}

func shouldColorize(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
