package render

import (
	"fmt"
	"math"
	"strings"

	"podcaster/internal/media/ffmpeg"
)

const (
	minDuration      = 1.0
	fallbackDuration = 5.0
)

// Job describes one ffmpeg render.
type Job struct {
	Image       string
	Audio       string
	Output      string
	Width       int
	Height      int
	FPS         int
	Duration    float64
	FadeSeconds float64
}

// ClampDuration applies the minimum duration and substitutes the fallback for
// unusable probe results.
func ClampDuration(seconds float64, probeErr error) float64 {
	if probeErr != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return fallbackDuration
	}
	return math.Max(minDuration, seconds)
}

// Args builds the ffmpeg arguments for job.
func Args(job Job) []string {
	fade := job.FadeSeconds
	if fade < 0 {
		fade = 0
	}
	if fade > job.Duration/2 {
		fade = job.Duration / 2
	}
	filters := []string{
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", job.Width, job.Height),
		fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=0x121212", job.Width, job.Height),
	}
	if fade > 0 {
		filters = append(filters,
			fmt.Sprintf("fade=t=in:st=0:d=%s", ffmpeg.FormatSeconds(fade)),
			fmt.Sprintf("fade=t=out:st=%s:d=%s", ffmpeg.FormatSeconds(job.Duration-fade), ffmpeg.FormatSeconds(fade)),
		)
	}
	filters = append(filters, "format=yuv420p")

	args := []string{"-loop", "1", "-framerate", fmt.Sprint(job.FPS), "-i", job.Image}
	if job.Audio != "" {
		args = append(args, "-i", job.Audio)
	}
	args = append(args,
		"-t", ffmpeg.FormatSeconds(job.Duration),
		"-vf", strings.Join(filters, ","),
		"-r", fmt.Sprint(job.FPS),
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-pix_fmt", "yuv420p",
	)
	if job.Audio != "" {
		args = append(args, "-c:a", "aac", "-b:a", "192k", "-shortest")
	} else {
		args = append(args, "-an")
	}
	if ext := strings.ToLower(job.Output); strings.HasSuffix(ext, ".mp4") || strings.HasSuffix(ext, ".mov") {
		args = append(args, "-movflags", "+faststart")
	}
	return append(args, job.Output)
}
