package upload

import (
	"strings"

	"podcaster/internal/language"
	"podcaster/internal/podcast"
	"podcaster/internal/services/youtube"
	"podcaster/internal/textutil"
)

const maxHashtags = 8

// Metadata derives the upload title, description and tags from an analysis.
func Metadata(analysis *podcast.Analysis, fallbackTitle, defaultLanguage string) youtube.Video {
	title := strings.TrimSpace(analysis.DisplayTitle())
	if title == "" {
		title = fallbackTitle
	}
	lang := strings.TrimSpace(analysis.Language)
	if lang == "" {
		lang = defaultLanguage
	}
	return youtube.Video{
		Title:       title,
		Description: Description(analysis),
		Tags:        analysis.Keywords,
		Language:    languageCode(lang),
	}
}

// Description builds the video description: summary, scripture references
// and keyword hashtags.
func Description(analysis *podcast.Analysis) string {
	var sections []string
	if summary := strings.TrimSpace(analysis.Summary); summary != "" {
		sections = append(sections, summary)
	}
	if refs := analysis.ReferenceList(); len(refs) > 0 {
		lines := make([]string, 0, len(refs))
		for _, ref := range refs {
			lines = append(lines, "📖 "+ref)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	var tags []string
	for _, keyword := range analysis.Keywords {
		if tag := textutil.Hashtag(keyword); tag != "" {
			tags = append(tags, tag)
		}
		if len(tags) == maxHashtags {
			break
		}
	}
	if len(tags) > 0 {
		sections = append(sections, strings.Join(tags, " "))
	}
	return strings.Join(sections, "\n\n")
}

func languageCode(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	base, _ := language.Lookup(value).Tag.Base()
	return base.String()
}
