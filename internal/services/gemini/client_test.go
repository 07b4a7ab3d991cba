package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestResponseTextJoinsFirstCandidate(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			nil,
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"topic":`), genai.Text(`"Grace"}`)}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"topic":"Other"}`)}}},
		},
	}
	if got := responseText(resp); got != `{"topic":"Grace"}` {
		t.Fatalf("unexpected text %q", got)
	}
	if got := responseText(nil); got != "" {
		t.Fatalf("expected empty text for nil response, got %q", got)
	}
}

func TestCompleteJSONRequiresKey(t *testing.T) {
	client := NewClient(Config{Model: "gemini-1.5-flash"}, nil)
	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error without api key")
	}
	if _, err := client.CompleteJSON(context.Background(), "system", " "); err == nil {
		t.Fatal("expected error without user prompt")
	}
}
