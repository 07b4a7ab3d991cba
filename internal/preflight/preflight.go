package preflight

import (
	"context"

	"podcaster/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check enabled by the configuration.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results,
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
	)
	if cfg.Logging.File {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if cfg.Inbox.Enabled {
		results = append(results, CheckDirectoryAccess("Inbox directory", cfg.Paths.InboxDir))
	}

	if cfg.Pipeline.EnableText {
		results = append(results, CheckLLM(ctx, "LLM", cfg.GetLLM()))
	}
	if cfg.Pipeline.EnableAudio {
		results = append(results, CheckTTS(cfg.TTS))
	}
	if cfg.Pipeline.EnableYouTube {
		results = append(results, CheckYouTube(cfg.YouTube))
	}
	if cfg.Pipeline.EnableAnnounce {
		results = append(results, CheckAnnounce(cfg.Announce))
	}

	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Available || status.Optional, Detail: status.Command}
		if !status.Available {
			result.Detail = status.Detail
		}
		results = append(results, result)
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
