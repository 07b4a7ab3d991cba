// Package ffprobe wraps ffprobe JSON output. Narration and rendering use it
// to read the duration of synthesized speech so the video matches the audio.
package ffprobe
