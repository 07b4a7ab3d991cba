package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeJSON decodes a model answer into target. When the raw answer is not
// valid JSON it retries with code fences stripped and then with the outermost
// {...} span, which covers models that wrap the object in prose.
func DecodeJSON(content string, target any) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.New("empty payload")
	}
	var firstErr error
	tried := map[string]bool{}
	for _, candidate := range jsonCandidates(content) {
		if candidate == "" || tried[candidate] {
			continue
		}
		tried[candidate] = true
		err := json.Unmarshal([]byte(candidate), target)
		if err == nil {
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return fmt.Errorf("%w (payload snippet: %s)", firstErr, summarizePayloadSnippet(content))
}

func jsonCandidates(content string) []string {
	unfenced := stripCodeFence(content)
	candidates := []string{content, unfenced}
	start, end := strings.Index(unfenced, "{"), strings.LastIndex(unfenced, "}")
	if start >= 0 && end > start {
		candidates = append(candidates, unfenced[start:end+1])
	}
	return candidates
}

// stripCodeFence removes a leading ``` or ```json line and the closing fence.
func stripCodeFence(content string) string {
	body, ok := strings.CutPrefix(content, "```")
	if !ok {
		return content
	}
	body = strings.TrimSpace(body)
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	if i := strings.LastIndex(body, "```"); i >= 0 {
		body = body[:i]
	}
	return strings.TrimSpace(body)
}

// summarizePayloadSnippet collapses whitespace and caps the text at 160 runes.
func summarizePayloadSnippet(content string) string {
	const limit = 160
	clean := strings.Join(strings.Fields(content), " ")
	switch runes := []rune(clean); {
	case len(runes) == 0:
		return "<empty>"
	case len(runes) > limit:
		return string(runes[:limit]) + "..."
	}
	return clean
}
