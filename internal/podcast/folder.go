package podcast

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podcaster/internal/fileutil"
	"podcaster/internal/textutil"
)

// Artifact file names inside a podcast folder.
const (
	InputFile       = "input.txt"
	AnalysisFile    = "context_analysis.json"
	DescriptionFile = "description.md"
	LogFile         = "podcast.log"

	folderTimeLayout = "20060102_1504"
	maxTopicRunes    = 32
)

// FolderName builds "YYYYMMDD_HHMM_<Topic>" with spaces removed from the
// topic and the topic cut to 32 characters.
func FolderName(now time.Time, topic string) string {
	compacted := strings.ReplaceAll(textutil.SanitizeFileName(topic), " ", "")
	runes := []rune(compacted)
	if len(runes) > maxTopicRunes {
		runes = runes[:maxTopicRunes]
	}
	name := now.Format(folderTimeLayout)
	if len(runes) > 0 {
		name += "_" + string(runes)
	}
	return name
}

// CreateFolder makes a fresh podcast directory under root. When the name is
// taken a numeric suffix is appended.
func CreateFolder(root string, now time.Time, topic string) (string, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	base := FolderName(now, topic)
	for attempt := 1; attempt < 100; attempt++ {
		name := base
		if attempt > 1 {
			name = fmt.Sprintf("%s_%d", base, attempt)
		}
		path := filepath.Join(root, name)
		err := os.Mkdir(path, 0o755)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("create podcast folder: %w", err)
		}
	}
	return "", fmt.Errorf("create podcast folder: too many folders named %s", base)
}

// AudioFile returns the narration path for the given audio format.
func AudioFile(folder, format string) string {
	return filepath.Join(folder, "speech."+format)
}

// CoverFile returns the cover image path for the given image format.
func CoverFile(folder, format string) string {
	return filepath.Join(folder, "cover."+format)
}

// VideoFile returns the rendered video path for the given container format.
func VideoFile(folder, format string) string {
	return filepath.Join(folder, "video."+format)
}

// WriteInput stores the raw thought text.
func WriteInput(folder, text string) error {
	return fileutil.WriteFileAtomic(filepath.Join(folder, InputFile), []byte(text), 0o644)
}

// ReadInput loads the raw thought text.
func ReadInput(folder string) (string, error) {
	data, err := os.ReadFile(filepath.Join(folder, InputFile))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveAnalysis writes context_analysis.json.
func SaveAnalysis(folder string, analysis *Analysis) error {
	return fileutil.WriteJSON(filepath.Join(folder, AnalysisFile), analysis)
}

// LoadAnalysis reads context_analysis.json.
func LoadAnalysis(folder string) (*Analysis, error) {
	var analysis Analysis
	if err := fileutil.ReadJSON(filepath.Join(folder, AnalysisFile), &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}
