package narration

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"podcaster/internal/fileutil"
	"podcaster/internal/media/ffmpeg"
	"podcaster/internal/services/elevenlabs"
)

// writeSilence renders seconds of silence to target with ffmpeg. When ffmpeg
// fails, a mono 16-bit WAV is written next to target instead and its path
// returned.
func writeSilence(ctx context.Context, ffmpegBinary, target, format, quality string, sampleRate, seconds int) (string, error) {
	args := []string{
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=mono", sampleRate),
		"-t", fmt.Sprintf("%d", seconds),
	}
	args = append(args, ffmpeg.AudioCodecArgs(format, quality)...)
	args = append(args, target)
	ffmpegErr := ffmpeg.Run(ctx, ffmpegBinary, args...)
	if ffmpegErr == nil && fileutil.Exists(target) {
		return target, nil
	}

	wavPath := strings.TrimSuffix(target, filepath.Ext(target)) + ".wav"
	if err := fileutil.WriteFileAtomic(wavPath, silentWAV(sampleRate, seconds), 0o644); err != nil {
		return "", fmt.Errorf("write silent wav: %w (ffmpeg: %v)", err, ffmpegErr)
	}
	return wavPath, nil
}

// silentWAV builds a mono 16-bit PCM WAV file of zero samples.
func silentWAV(sampleRate, seconds int) []byte {
	return elevenlabs.WrapPCM(make([]byte, sampleRate*seconds*2), sampleRate)
}
