// Package ffmpeg runs ffmpeg invocations and reports their stderr on failure.
package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const stderrTailLines = 12

// ProgressFunc receives the encoded output time reported by -progress.
type ProgressFunc func(outTime time.Duration)

// Run executes binary with args. On failure the error carries the last lines
// of stderr.
func Run(ctx context.Context, binary string, args ...string) error {
	return RunWithProgress(ctx, binary, nil, args...)
}

// RunWithProgress executes binary with "-progress pipe:1" prepended to args
// when onProgress is set, calling it for each out_time report.
func RunWithProgress(ctx context.Context, binary string, onProgress ProgressFunc, args ...string) error {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	fullArgs := append([]string{"-hide_banner", "-nostdin", "-y"}, args...)
	if onProgress != nil {
		fullArgs = append([]string{"-progress", "pipe:1", "-nostats"}, fullArgs...)
	}
	cmd := exec.CommandContext(ctx, binary, fullArgs...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	var stdout io.ReadCloser
	if onProgress != nil {
		pipe, err := cmd.StdoutPipe()
		if err != nil {
			return fmt.Errorf("ffmpeg: stdout pipe: %w", err)
		}
		stdout = pipe
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg: start: %w", err)
	}
	if stdout != nil {
		scanProgress(stdout, onProgress)
	}
	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg: %w", ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("ffmpeg: exit %d: %s", exitErr.ExitCode(), tail(stderr.String(), stderrTailLines))
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

func scanProgress(r io.Reader, onProgress ProgressFunc) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			// Both keys report microseconds.
			if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
				onProgress(time.Duration(us) * time.Microsecond)
			}
		}
	}
	_, _ = io.Copy(io.Discard, r)
}

func tail(s string, lines int) string {
	parts := strings.Split(strings.TrimSpace(s), "\n")
	if len(parts) > lines {
		parts = parts[len(parts)-lines:]
	}
	return strings.Join(parts, " | ")
}

// AudioCodecArgs returns encoder arguments for an audio container format.
func AudioCodecArgs(format, quality string) []string {
	switch strings.ToLower(format) {
	case "wav":
		return []string{"-c:a", "pcm_s16le"}
	case "ogg":
		q := map[string]string{"low": "2", "medium": "4", "high": "6"}[strings.ToLower(quality)]
		if q == "" {
			q = "6"
		}
		return []string{"-c:a", "libvorbis", "-q:a", q}
	default:
		q := map[string]string{"low": "6", "medium": "4", "high": "2"}[strings.ToLower(quality)]
		if q == "" {
			q = "2"
		}
		return []string{"-c:a", "libmp3lame", "-q:a", q}
	}
}

// FormatSeconds renders seconds for ffmpeg duration flags.
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
