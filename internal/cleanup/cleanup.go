// Package cleanup reclaims disk space in the output directory: leftover
// temporary files from interrupted stages and podcast folders no longer
// referenced by the queue.
package cleanup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podcaster/internal/logging"
)

// Result contains the outcome of a cleanup pass.
type Result struct {
	Removed []string
	Errors  []Error
}

// Error pairs a path with its cleanup error.
type Error struct {
	Path string
	Err  error
}

// IsTempFile reports whether name was left behind by an interrupted write:
// renders go to video.tmp.<ext> and atomic writes to .<name>.*.tmp.
func IsTempFile(name string) bool {
	return strings.HasPrefix(name, "video.tmp.") ||
		(strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".tmp"))
}

// CleanTemp removes temporary files older than maxAge from every podcast
// folder under outputDir.
func CleanTemp(ctx context.Context, outputDir string, maxAge time.Duration, logger *slog.Logger) Result {
	var result Result
	if logger == nil {
		logger = logging.NewNop()
	}
	folders, err := ListFolders(outputDir)
	if err != nil {
		result.Errors = append(result.Errors, Error{Path: outputDir, Err: err})
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, folder := range folders {
		if ctx.Err() != nil {
			return result
		}
		entries, err := os.ReadDir(folder.Path)
		if err != nil {
			result.Errors = append(result.Errors, Error{Path: folder.Path, Err: err})
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !IsTempFile(entry.Name()) {
				continue
			}
			info, err := entry.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}
			path := filepath.Join(folder.Path, entry.Name())
			result.record(logger, path, os.Remove(path), "temp file")
		}
	}
	return result
}

// CleanOrphaned removes podcast folders that no queue item references. With
// dryRun set the folders are only reported.
func CleanOrphaned(ctx context.Context, outputDir string, active map[string]struct{}, dryRun bool, logger *slog.Logger) Result {
	var result Result
	if logger == nil {
		logger = logging.NewNop()
	}
	folders, err := ListFolders(outputDir)
	if err != nil {
		result.Errors = append(result.Errors, Error{Path: outputDir, Err: err})
		return result
	}
	for _, folder := range folders {
		if ctx.Err() != nil {
			return result
		}
		if _, ok := active[filepath.Clean(folder.Path)]; ok {
			continue
		}
		if dryRun {
			result.Removed = append(result.Removed, folder.Path)
			continue
		}
		result.record(logger, folder.Path, os.RemoveAll(folder.Path), "orphaned podcast folder")
	}
	return result
}

func (r *Result) record(logger *slog.Logger, path string, err error, what string) {
	if err != nil {
		r.Errors = append(r.Errors, Error{Path: path, Err: err})
		logging.WarnWithContext(logger, "failed to remove "+what, "cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check output_dir permissions"),
			logging.String(logging.FieldImpact, "disk space not reclaimed"),
		)
		return
	}
	r.Removed = append(r.Removed, path)
	logger.Info("removed "+what,
		logging.String("path", path),
		logging.String(logging.FieldEventType, "cleanup"),
	)
}

// Folder contains metadata about a podcast folder.
type Folder struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// ListFolders returns the directories directly under outputDir. A blank or
// missing directory yields no folders.
func ListFolders(outputDir string) ([]Folder, error) {
	outputDir = strings.TrimSpace(outputDir)
	if outputDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var folders []Folder
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(outputDir, entry.Name())
		size, _ := dirSize(path)
		folders = append(folders, Folder{
			Name:    entry.Name(),
			Path:    path,
			ModTime: info.ModTime(),
			Size:    size,
		})
	}
	return folders, nil
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
