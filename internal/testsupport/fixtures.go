package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"podcaster/internal/podcast"
	"podcaster/internal/queue"
)

// Thought is an English biblical thought long enough to pass the default
// length bounds.
const Thought = "Six days God worked to create the world, and six days Israel circled Jericho in silence. " +
	"On the seventh day the walls fell at the shout of faith, just as the seventh day of creation brought rest."

// RussianThought is the Russian counterpart of Thought.
const RussianThought = "Шесть дней Бог творил мир, и шесть дней Израиль молча обходил Иерихон. " +
	"В седьмой день стены пали от возгласа веры, как седьмой день творения принес покой."

// AnalysisJSON is a model answer matching Thought.
const AnalysisJSON = `{
  "title": "Walls of Faith",
  "topic": "Walls of Jericho",
  "bible_references": [
    {"reference": "Joshua 6:1-20", "quotes": ["So the people shouted when the priests blew with the trumpets..."], "context": "The fall of Jericho."},
    {"reference": "Genesis 2:2", "quotes": ["And on the seventh day God ended his work which he had made."], "context": "God rests after creation."}
  ],
  "keywords": ["faith", "seventh day", "Jericho"],
  "themes": ["rest", "obedience"],
  "structure": "Parallel of two sevens",
  "typologies_and_parallelisms": ["six days of creation - six circuits of Jericho"],
  "summary": "Creation and the fall of Jericho share a pattern of six days of work and a seventh of completion.",
  "context_evaluation": {
    "is_context_sufficient": true,
    "missing_elements": [],
    "enrichment_suggestions": ["add Hebrews 11:30"],
    "completeness_score": 0.85,
    "thought_completeness": "complete"
  }
}`

// SampleAnalysis returns a normalized analysis matching AnalysisJSON.
func SampleAnalysis() *podcast.Analysis {
	analysis := &podcast.Analysis{
		Title:    "Walls of Faith",
		Topic:    "Walls of Jericho",
		Language: "en",
		BibleReferences: []podcast.Reference{
			{Reference: "Joshua 6:1-20", Quotes: []string{"So the people shouted when the priests blew with the trumpets..."}, Context: "The fall of Jericho."},
		},
		Keywords: []string{"faith", "seventh day", "Jericho"},
		Themes:   []string{"rest", "obedience"},
		Summary:  "Creation and the fall of Jericho share a pattern of six days of work and a seventh of completion.",
		ContextEvaluation: podcast.ContextEvaluation{
			IsContextSufficient: true,
			CompletenessScore:   0.85,
			ThoughtCompleteness: podcast.CompletenessComplete,
		},
	}
	analysis.Normalize()
	return analysis
}

// SeedAnalyzedItem enqueues Thought and writes the artifacts analysis would
// have produced, leaving the item in the analyzed status.
func SeedAnalyzedItem(t testing.TB, store *queue.Store, outputDir string) *queue.Item {
	t.Helper()

	item := NewItem(t, store, Thought)
	analysis := SampleAnalysis()
	now := time.Date(2024, 3, 9, 7, 5, 0, 0, time.UTC)
	folder, err := podcast.CreateFolder(outputDir, now, analysis.Topic)
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}
	if err := podcast.WriteInput(folder, item.InputText); err != nil {
		t.Fatalf("write input: %v", err)
	}
	if err := podcast.SaveAnalysis(folder, analysis); err != nil {
		t.Fatalf("save analysis: %v", err)
	}
	if err := podcast.WriteDescription(folder, podcast.NewDescription(analysis, "file:test.txt", now)); err != nil {
		t.Fatalf("write description: %v", err)
	}
	item.FolderPath = folder
	item.Topic = analysis.Topic
	item.Title = analysis.DisplayTitle()
	item.Language = analysis.Language
	item.Status = queue.StatusAnalyzed
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("update item: %v", err)
	}
	return item
}

// TouchArtifact writes a small placeholder file at folder/name and returns
// its path.
func TouchArtifact(t testing.TB, folder, name string) string {
	t.Helper()

	path := filepath.Join(folder, name)
	if err := os.WriteFile(path, []byte("artifact"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
