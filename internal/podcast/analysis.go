package podcast

import (
	"errors"
	"math"
	"strings"

	"golang.org/x/text/cases"

	"podcaster/internal/language"
)

// Completeness labels reported by the analyzer.
const (
	CompletenessComplete   = "complete"
	CompletenessPartial    = "partial"
	CompletenessIncomplete = "incomplete"
)

// Reference is a scripture passage cited by the thought.
type Reference struct {
	Reference string   `json:"reference"`
	Quotes    []string `json:"quotes"`
	Context   string   `json:"context"`
}

// ContextEvaluation grades how self-contained the thought is.
type ContextEvaluation struct {
	IsContextSufficient   bool     `json:"is_context_sufficient"`
	MissingElements       []string `json:"missing_elements"`
	EnrichmentSuggestions []string `json:"enrichment_suggestions"`
	CompletenessScore     float64  `json:"completeness_score"`
	ThoughtCompleteness   string   `json:"thought_completeness"`
}

// Analysis is the structured result stored in context_analysis.json.
type Analysis struct {
	Title                     string            `json:"title,omitempty"`
	Topic                     string            `json:"topic"`
	Language                  string            `json:"language,omitempty"`
	BibleReferences           []Reference       `json:"bible_references"`
	Keywords                  []string          `json:"keywords"`
	Themes                    []string          `json:"themes"`
	Structure                 string            `json:"structure,omitempty"`
	TypologiesAndParallelisms []string          `json:"typologies_and_parallelisms"`
	Summary                   string            `json:"summary"`
	ContextEvaluation         ContextEvaluation `json:"context_evaluation"`
}

// Validate reports whether the analysis carries the fields downstream stages
// depend on.
func (a *Analysis) Validate() error {
	var errs []error
	if strings.TrimSpace(a.Topic) == "" {
		errs = append(errs, errors.New("topic is empty"))
	}
	if strings.TrimSpace(a.Summary) == "" {
		errs = append(errs, errors.New("summary is empty"))
	}
	return errors.Join(errs...)
}

// Normalize trims text fields, drops blank list entries, clamps the
// completeness score into [0,1] and derives thought_completeness from the
// score when the model omitted it or returned an unknown label.
func (a *Analysis) Normalize() {
	a.Title = strings.TrimSpace(a.Title)
	a.Topic = strings.TrimSpace(a.Topic)
	a.Summary = strings.TrimSpace(a.Summary)
	a.Structure = strings.TrimSpace(a.Structure)
	a.Keywords = compact(a.Keywords)
	a.Themes = compact(a.Themes)
	a.TypologiesAndParallelisms = compact(a.TypologiesAndParallelisms)

	refs := a.BibleReferences[:0]
	for _, ref := range a.BibleReferences {
		ref.Reference = strings.TrimSpace(ref.Reference)
		if ref.Reference == "" {
			continue
		}
		ref.Quotes = compact(ref.Quotes)
		ref.Context = strings.TrimSpace(ref.Context)
		refs = append(refs, ref)
	}
	a.BibleReferences = refs

	eval := &a.ContextEvaluation
	eval.MissingElements = compact(eval.MissingElements)
	eval.EnrichmentSuggestions = compact(eval.EnrichmentSuggestions)
	switch {
	case math.IsNaN(eval.CompletenessScore), eval.CompletenessScore < 0:
		eval.CompletenessScore = 0
	case eval.CompletenessScore > 1:
		eval.CompletenessScore = 1
	}
	label := strings.ToLower(strings.TrimSpace(eval.ThoughtCompleteness))
	switch label {
	case CompletenessComplete, CompletenessPartial, CompletenessIncomplete:
		eval.ThoughtCompleteness = label
	default:
		eval.ThoughtCompleteness = CompletenessFromScore(eval.CompletenessScore)
	}
}

// CompletenessFromScore maps a score onto the completeness rubric.
func CompletenessFromScore(score float64) string {
	switch {
	case score >= 0.8:
		return CompletenessComplete
	case score >= 0.5:
		return CompletenessPartial
	default:
		return CompletenessIncomplete
	}
}

// DisplayTitle returns the analyzed title, falling back to the topic in
// title case for the thought's language.
func (a *Analysis) DisplayTitle() string {
	if a.Title != "" {
		return a.Title
	}
	if a.Topic == "" {
		return ""
	}
	return cases.Title(language.Lookup(a.Language).Tag).String(a.Topic)
}

// ReferenceList returns the reference labels in order.
func (a *Analysis) ReferenceList() []string {
	out := make([]string, 0, len(a.BibleReferences))
	for _, ref := range a.BibleReferences {
		out = append(out, ref.Reference)
	}
	return out
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
