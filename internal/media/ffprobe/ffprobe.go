package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result is the subset of ffprobe's JSON output the pipeline reads.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream is one entry of the streams array.
type Stream struct {
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
}

// Format is the container section.
type Format struct {
	Duration string `json:"duration"`
}

// Inspect runs binary (default "ffprobe") on path and decodes its JSON report.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}

	out, err := exec.CommandContext(ctx, binary,
		"-v", "error", "-hide_banner",
		"-show_entries", "format=duration:stream=codec_type,duration",
		"-of", "json", "--", path,
	).Output()
	if exitErr := (*exec.ExitError)(nil); errors.As(err, &exitErr) {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
	} else if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result Result
	if err := json.Unmarshal(out, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Duration returns the length of path in seconds.
func Duration(ctx context.Context, binary, path string) (float64, error) {
	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return 0, err
	}
	if seconds := result.DurationSeconds(); seconds > 0 {
		return seconds, nil
	}
	return 0, fmt.Errorf("ffprobe: no duration reported for %s", path)
}

// DurationSeconds prefers the container duration and otherwise takes the
// longest stream. An unparseable container duration yields NaN.
func (r Result) DurationSeconds() float64 {
	if strings.TrimSpace(r.Format.Duration) != "" {
		return seconds(r.Format.Duration)
	}
	var longest float64
	for _, s := range r.Streams {
		if d := seconds(s.Duration); d > longest {
			longest = d
		}
	}
	return longest
}

func seconds(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
