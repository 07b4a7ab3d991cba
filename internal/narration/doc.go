// Package narration implements the audio stage. It narrates the analysis
// summary (or the raw thought) with ElevenLabs or Google Cloud TTS and falls
// back to a silent placeholder so later stages always have an audio track.
package narration
