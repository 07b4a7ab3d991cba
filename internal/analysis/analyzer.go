package analysis

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"podcaster/internal/config"
	"podcaster/internal/language"
	"podcaster/internal/logging"
	"podcaster/internal/podcast"
	"podcaster/internal/queue"
	"podcaster/internal/services"
	"podcaster/internal/services/llm"
	"podcaster/internal/stage"
)

const stageName = "analysis"

// Analyzer is the analysis stage handler.
type Analyzer struct {
	cfg       *config.Config
	store     *queue.Store
	logger    *slog.Logger
	completer llm.Completer
	now       func() time.Time
}

// NewAnalyzer constructs the stage with the provider selected by llm.provider.
func NewAnalyzer(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Analyzer {
	return NewAnalyzerWithDependencies(cfg, store, logger, NewCompleter(cfg, logger))
}

// NewAnalyzerWithDependencies allows injecting the completer (used in tests).
func NewAnalyzerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, completer llm.Completer) *Analyzer {
	a := &Analyzer{cfg: cfg, store: store, completer: completer, now: time.Now}
	a.SetLogger(logger)
	return a
}

// SetLogger replaces the stage logger.
func (a *Analyzer) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = logging.NewNop()
	}
	a.logger = logger.With(logging.String(logging.FieldComponent, stageName))
}

// Prepare validates the thought before any API call is made.
func (a *Analyzer) Prepare(ctx context.Context, item *queue.Item) error {
	item.InitProgress("Analyzing", "Preparing context analysis")
	if err := ValidateText(a.cfg.Text, item.InputText); err != nil {
		return err
	}
	lang := language.Detect(item.InputText)
	item.Language = lang.Code
	logging.WithContext(ctx, a.logger).Info("analysis prepared",
		logging.String("language", lang.Name),
		logging.Int("characters", utf8.RuneCountInString(item.InputText)),
	)
	return nil
}

// Execute runs the analysis and writes the folder artifacts.
func (a *Analyzer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, a.logger)
	a.updateProgress(ctx, item, "Requesting context analysis", 10)

	result, err := a.Analyze(ctx, item.InputText)
	if err != nil {
		return err
	}

	a.updateProgress(ctx, item, "Writing podcast folder", 80)
	folder, err := a.Persist(item, result)
	if err != nil {
		return err
	}

	item.FolderPath = folder
	item.Topic = result.Topic
	item.Title = result.DisplayTitle()
	item.Language = result.Language
	item.SetProgressComplete("Analyzed", fmt.Sprintf("Topic: %s", result.Topic))
	logger.Info("analysis completed",
		logging.String(logging.FieldEventType, "analysis_complete"),
		logging.String("topic", result.Topic),
		logging.Int("references", len(result.BibleReferences)),
		logging.Float64("completeness_score", result.ContextEvaluation.CompletenessScore),
		logging.String("folder", folder),
	)
	if !result.ContextEvaluation.IsContextSufficient {
		logging.WarnWithContext(logger, "thought context is insufficient", "context_insufficient",
			logging.String(logging.FieldErrorHint, "enrich the thought with more references or structure"),
			logging.String(logging.FieldImpact, "podcast is produced from a partial thought"),
			logging.Any("missing_elements", result.ContextEvaluation.MissingElements),
		)
	}
	return nil
}

// Analyze asks the LLM for the structured analysis of text.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*podcast.Analysis, error) {
	if a.completer == nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "select provider",
			fmt.Sprintf("No API key configured for llm provider %q", a.cfg.LLM.Provider), nil)
	}
	if err := ValidateText(a.cfg.Text, text); err != nil {
		return nil, err
	}
	lang := language.Detect(text)

	started := time.Now()
	raw, err := a.completer.CompleteJSON(ctx, SystemPrompt(lang), text)
	if err != nil {
		return nil, classifyCompletionError(err)
	}
	logging.LogPerformance(a.logger, "context analysis", time.Since(started),
		logging.String("language", lang.Name))

	var result podcast.Analysis
	if err := llm.DecodeJSON(raw, &result); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "decode analysis",
			"Model returned malformed analysis JSON", err)
	}
	result.Language = lang.Code
	result.Normalize()
	if err := result.Validate(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "validate analysis",
			"Model returned an incomplete analysis", err)
	}
	return &result, nil
}

// Persist writes the folder artifacts for result. A folder recorded on the
// item from an earlier attempt is reused.
func (a *Analyzer) Persist(item *queue.Item, result *podcast.Analysis) (string, error) {
	folder := strings.TrimSpace(item.FolderPath)
	if folder != "" {
		if info, err := os.Stat(folder); err != nil || !info.IsDir() {
			folder = ""
		}
	}
	now := a.now()
	if folder == "" {
		created, err := podcast.CreateFolder(a.cfg.Paths.OutputDir, now, result.Topic)
		if err != nil {
			return "", services.Wrap(services.ErrConfiguration, stageName, "create folder",
				"Failed to create podcast folder; check paths.output_dir permissions", err)
		}
		folder = created
	}
	if err := podcast.WriteInput(folder, item.InputText); err != nil {
		return "", services.Wrap(services.ErrTransient, stageName, "write input", "Failed to write input.txt", err)
	}
	if err := podcast.SaveAnalysis(folder, result); err != nil {
		return "", services.Wrap(services.ErrTransient, stageName, "write analysis", "Failed to write context_analysis.json", err)
	}
	description := podcast.NewDescription(result, sourceLabel(item), now)
	keepPublication(folder, item, &description)
	if err := podcast.WriteDescription(folder, description); err != nil {
		return "", services.Wrap(services.ErrTransient, stageName, "write description", "Failed to write description.md", err)
	}
	return folder, nil
}

// keepPublication carries the creation time and the upload and announce
// state of a re-analyzed podcast into its new description. Values on the
// item win over the previous document.
func keepPublication(folder string, item *queue.Item, d *podcast.Description) {
	if previous, err := podcast.ReadDescription(folder); err == nil {
		if !previous.Created.IsZero() {
			d.Created = previous.Created
		}
		d.YouTubeID = previous.YouTubeID
		d.YouTubeURL = previous.YouTubeURL
		d.Announced = previous.Announced
	}
	d.YouTubeID = cmp.Or(item.YouTubeID, d.YouTubeID)
	d.YouTubeURL = cmp.Or(item.YouTubeURL, d.YouTubeURL)
	d.Announced = d.Announced || item.Announced
}

// HealthCheck reports whether an LLM provider is configured.
func (a *Analyzer) HealthCheck(ctx context.Context) stage.Health {
	if a.completer == nil {
		return stage.Unhealthy(stageName, "llm api key not configured")
	}
	return stage.Healthy(stageName)
}

// ValidateText enforces the configured length bounds, counted in characters.
func ValidateText(bounds config.Text, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return services.Wrap(services.ErrValidation, stageName, "validate text", "Thought text is empty", nil)
	}
	length := utf8.RuneCountInString(trimmed)
	if bounds.MinLength > 0 && length < bounds.MinLength {
		return services.Wrap(services.ErrValidation, stageName, "validate text",
			fmt.Sprintf("Thought is too short: %d characters, minimum %d", length, bounds.MinLength), nil)
	}
	if bounds.MaxLength > 0 && length > bounds.MaxLength {
		return services.Wrap(services.ErrValidation, stageName, "validate text",
			fmt.Sprintf("Thought is too long: %d characters, maximum %d", length, bounds.MaxLength), nil)
	}
	return nil
}

func classifyCompletionError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, stageName, "complete", "LLM request timed out", err)
	}
	switch code := llm.StatusCode(err); {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, stageName, "complete",
			"LLM rejected the API key; check llm.api_key", err)
	case code == http.StatusBadRequest, code == http.StatusNotFound:
		return services.Wrap(services.ErrConfiguration, stageName, "complete",
			"LLM rejected the request; check llm.model and llm.base_url", err)
	}
	return services.Wrap(services.ErrExternalTool, stageName, "complete", "LLM request failed", err)
}

func sourceLabel(item *queue.Item) string {
	ref := strings.TrimSpace(item.SourceRef)
	if ref == "" {
		return string(item.SourceKind)
	}
	return fmt.Sprintf("%s:%s", item.SourceKind, ref)
}

func (a *Analyzer) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	item.SetProgress("Analyzing", message, percent)
	if a.store == nil || item.ID == 0 {
		return
	}
	if err := a.store.Update(ctx, item); err != nil {
		logging.WithContext(ctx, a.logger).Warn("failed to persist analysis progress", logging.Error(err))
	}
}
