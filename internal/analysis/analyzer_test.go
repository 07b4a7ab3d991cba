package analysis_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podcaster/internal/analysis"
	"podcaster/internal/config"
	"podcaster/internal/language"
	"podcaster/internal/podcast"
	"podcaster/internal/services"
	"podcaster/internal/services/gemini"
	"podcaster/internal/services/llm"
	"podcaster/internal/testsupport"
)

type fakeCompleter struct {
	response string
	err      error
	system   string
	user     string
	calls    int
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.system = system
	f.user = user
	return f.response, f.err
}

func (f *fakeCompleter) HealthCheck(context.Context) error { return f.err }

func TestExecuteWritesFolderArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewItem(t, store, testsupport.Thought)
	completer := &fakeCompleter{response: "```json\n" + testsupport.AnalysisJSON + "\n```"}
	analyzer := analysis.NewAnalyzerWithDependencies(cfg, store, nil, completer)

	ctx := context.Background()
	if err := analyzer.Prepare(ctx, item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := analyzer.Execute(ctx, item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !strings.Contains(completer.system, "English") || !strings.Contains(completer.system, "King James") {
		t.Fatalf("expected english prompt, got %q", completer.system)
	}
	if completer.user != testsupport.Thought {
		t.Fatalf("expected raw thought as user prompt")
	}
	if item.Topic != "Walls of Jericho" || item.Title != "Walls of Faith" || item.Language != "en" {
		t.Fatalf("unexpected item fields: %+v", item)
	}
	if !strings.HasSuffix(item.FolderPath, "_WallsofJericho") {
		t.Fatalf("unexpected folder %q", item.FolderPath)
	}
	if filepath.Dir(item.FolderPath) != cfg.Paths.OutputDir {
		t.Fatalf("folder %q not under output dir", item.FolderPath)
	}
	for _, name := range []string{podcast.InputFile, podcast.AnalysisFile, podcast.DescriptionFile} {
		if _, err := os.Stat(filepath.Join(item.FolderPath, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	saved, err := podcast.LoadAnalysis(item.FolderPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved.BibleReferences) != 2 || saved.ContextEvaluation.ThoughtCompleteness != "complete" {
		t.Fatalf("unexpected saved analysis: %+v", saved)
	}
	if item.ProgressPercent != 100 {
		t.Fatalf("expected completed progress, got %v", item.ProgressPercent)
	}
}

func TestExecuteReusesExistingFolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewItem(t, store, testsupport.Thought)
	existing := filepath.Join(cfg.Paths.OutputDir, "20240101_0000_Previous")
	if err := os.MkdirAll(existing, 0o755); err != nil {
		t.Fatal(err)
	}
	item.FolderPath = existing
	analyzer := analysis.NewAnalyzerWithDependencies(cfg, store, nil, &fakeCompleter{response: testsupport.AnalysisJSON})

	if err := analyzer.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if item.FolderPath != existing {
		t.Fatalf("expected folder reuse, got %q", item.FolderPath)
	}
	entries, err := os.ReadDir(cfg.Paths.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected a single folder, found %d", len(entries))
	}
}

func TestReanalysisKeepsPublishedLink(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.SeedAnalyzedItem(t, store, cfg.Paths.OutputDir)
	err := podcast.UpdateDescription(item.FolderPath, func(d *podcast.Description) {
		d.YouTubeID = "abc123"
		d.YouTubeURL = "https://youtu.be/abc123"
	})
	if err != nil {
		t.Fatalf("UpdateDescription: %v", err)
	}
	before, err := podcast.ReadDescription(item.FolderPath)
	if err != nil {
		t.Fatal(err)
	}
	item.YouTubeID = "abc123"
	item.YouTubeURL = "https://youtu.be/abc123"
	item.Announced = true

	analyzer := analysis.NewAnalyzerWithDependencies(cfg, store, nil, &fakeCompleter{response: testsupport.AnalysisJSON})
	if err := analyzer.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	after, err := podcast.ReadDescription(item.FolderPath)
	if err != nil {
		t.Fatal(err)
	}
	if after.YouTubeID != "abc123" || after.YouTubeURL != "https://youtu.be/abc123" || !after.Announced {
		t.Fatalf("publication state lost on re-analysis: %+v", after)
	}
	if !after.Created.Equal(before.Created) {
		t.Fatalf("created changed from %v to %v", before.Created, after.Created)
	}
}

func TestAnalyzeDetectsRussian(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	completer := &fakeCompleter{response: testsupport.AnalysisJSON}
	analyzer := analysis.NewAnalyzerWithDependencies(cfg, nil, nil, completer)

	result, err := analyzer.Analyze(context.Background(), testsupport.RussianThought)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Language != "ru" {
		t.Fatalf("expected ru language, got %q", result.Language)
	}
	if !strings.Contains(completer.system, "Russian") || !strings.Contains(completer.system, "RST") {
		t.Fatalf("expected russian prompt, got %q", completer.system)
	}
}

func TestAnalyzeFailures(t *testing.T) {
	tests := []struct {
		name      string
		completer llm.Completer
		text      string
		marker    error
	}{
		{"no provider", nil, testsupport.Thought, services.ErrConfiguration},
		{"too short", &fakeCompleter{response: testsupport.AnalysisJSON}, "Too short.", services.ErrValidation},
		{"too long", &fakeCompleter{response: testsupport.AnalysisJSON}, strings.Repeat("a", 10001), services.ErrValidation},
		{"malformed", &fakeCompleter{response: "not json"}, testsupport.Thought, services.ErrExternalTool},
		{"missing summary", &fakeCompleter{response: `{"topic":"Grace"}`}, testsupport.Thought, services.ErrExternalTool},
		{"timeout", &fakeCompleter{err: fmt.Errorf("wrapped: %w", context.DeadlineExceeded)}, testsupport.Thought, services.ErrTimeout},
		{"transport", &fakeCompleter{err: errors.New("connection reset")}, testsupport.Thought, services.ErrExternalTool},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			analyzer := analysis.NewAnalyzerWithDependencies(cfg, nil, nil, tt.completer)
			_, err := analyzer.Analyze(context.Background(), tt.text)
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
		})
	}
}

func TestAnalyzeRejectedKeyIsConfigurationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid key"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithLLM(server.URL, "bad-key"))
	analyzer := analysis.NewAnalyzer(cfg, nil, nil)
	_, err := analyzer.Analyze(context.Background(), testsupport.Thought)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if services.IsRetryable(err) {
		t.Fatal("rejected key must not be retried")
	}
}

func TestValidateText(t *testing.T) {
	bounds := config.Text{MinLength: 5, MaxLength: 10}
	tests := map[string]bool{
		"":            false,
		"   ":         false,
		"abcd":        false,
		"abcde":       true,
		"  абвгд  ":   true,
		"abcdefghijk": false,
		"абвгдеёжзий": false,
	}
	for text, ok := range tests {
		err := analysis.ValidateText(bounds, text)
		if (err == nil) != ok {
			t.Errorf("ValidateText(%q) = %v, want ok=%v", text, err, ok)
		}
	}
}

func TestNewCompleterSelectsProvider(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if analysis.NewCompleter(cfg, nil) != nil {
		t.Fatal("expected nil completer without api key")
	}
	cfg.LLM.APIKey = "sk-test"
	if _, ok := analysis.NewCompleter(cfg, nil).(*llm.Client); !ok {
		t.Fatal("expected openai-compatible client")
	}
	cfg.LLM.Provider = config.ProviderGemini
	cfg.LLM.GeminiAPIKey = "gm-test"
	if _, ok := analysis.NewCompleter(cfg, nil).(*gemini.Client); !ok {
		t.Fatal("expected gemini client")
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if analysis.NewAnalyzerWithDependencies(cfg, nil, nil, nil).HealthCheck(context.Background()).Ready {
		t.Fatal("expected unhealthy without completer")
	}
	if !analysis.NewAnalyzerWithDependencies(cfg, nil, nil, &fakeCompleter{}).HealthCheck(context.Background()).Ready {
		t.Fatal("expected healthy with completer")
	}
}

func TestSystemPromptNamesTranslation(t *testing.T) {
	prompt := analysis.SystemPrompt(language.Russian)
	for _, want := range []string{"Russian", "Синодальный перевод", "topic: 2-5 words in English", "thought_completeness"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
