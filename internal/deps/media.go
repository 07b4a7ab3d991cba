package deps

// MediaRequirements lists the binaries used to probe narration and render
// video. ffprobe is optional: narration falls back to reading the WAV header
// or the placeholder length when it is missing.
func MediaRequirements(ffmpeg, ffprobe string, videoEnabled bool) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpeg,
			Description: "Required for video rendering",
			Optional:    !videoEnabled,
		},
		{
			Name:        "FFprobe",
			Command:     ffprobe,
			Description: "Measures narration length",
			Optional:    true,
		},
	}
}
