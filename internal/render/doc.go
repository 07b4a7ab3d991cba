// Package render implements the video stage: it loops the cover image for the
// length of the narration with fades and muxes the audio with ffmpeg.
package render
