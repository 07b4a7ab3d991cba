package stage

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"podcaster/internal/queue"
	"podcaster/internal/services"
)

// RequireFolder returns the item's podcast folder, failing with a validation
// error when analysis has not produced one yet.
func RequireFolder(stageName string, item *queue.Item) (string, error) {
	if item == nil {
		return "", services.Wrap(services.ErrValidation, stageName, "require folder", "Queue item missing", nil)
	}
	folder := strings.TrimSpace(item.FolderPath)
	if folder == "" {
		return "", services.Wrap(services.ErrValidation, stageName, "require folder",
			"Podcast folder not set; rerun analysis", nil)
	}
	info, err := os.Stat(folder)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, stageName, "require folder",
				fmt.Sprintf("Podcast folder %q is missing", folder), err)
		}
		return "", services.Wrap(services.ErrTransient, stageName, "require folder", "Inspect podcast folder", err)
	}
	if !info.IsDir() {
		return "", services.Wrap(services.ErrValidation, stageName, "require folder",
			fmt.Sprintf("Podcast folder %q is not a directory", folder), nil)
	}
	return folder, nil
}

// RequireArtifact checks that an artifact path recorded on the item exists.
func RequireArtifact(stageName, label, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return services.Wrap(services.ErrValidation, stageName, "require "+label,
			fmt.Sprintf("No %s recorded for this podcast", label), nil)
	}
	if _, err := os.Stat(path); err != nil {
		return services.Wrap(services.ErrNotFound, stageName, "require "+label,
			fmt.Sprintf("%s %q is missing", label, path), err)
	}
	return nil
}
