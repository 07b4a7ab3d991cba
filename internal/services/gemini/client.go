// Package gemini adapts Google's Gemini models to the llm.Completer interface.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"podcaster/internal/logging"
	"podcaster/internal/services/llm"
)

const jsonMIMEType = "application/json"

// Config captures the settings required to reach Gemini.
type Config struct {
	APIKey         string
	Model          string
	Temperature    float32
	TimeoutSeconds int
	// Endpoint overrides the API host; empty uses the public endpoint.
	Endpoint string
}

// Client issues JSON-mode generate requests.
type Client struct {
	cfg    Config
	logger *slog.Logger
}

var _ llm.Completer = (*Client)(nil)

// NewClient constructs a Gemini client. The SDK connection is opened per call.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{cfg: cfg, logger: logger}
}

// CompleteJSON returns the model's JSON answer for the prompts.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", errors.New("gemini complete: user prompt required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("gemini complete: api key required")
	}
	if c.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	opts := []option.ClientOption{option.WithAPIKey(c.cfg.APIKey)}
	if c.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.cfg.Endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("gemini complete: new client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(c.cfg.Model)
	model.ResponseMIMEType = jsonMIMEType
	model.SetTemperature(c.cfg.Temperature)
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	}

	started := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	status := 200
	if err != nil {
		status = 500
	}
	logging.LogAPICall(c.logger, "gemini", c.cfg.Model, status, time.Since(started))
	if err != nil {
		return "", fmt.Errorf("gemini complete: generate: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", errors.New("gemini complete: empty response")
	}
	return text, nil
}

// HealthCheck asks the model for a trivial JSON document.
func (c *Client) HealthCheck(ctx context.Context) error {
	content, err := c.CompleteJSON(ctx, "You must respond with JSON only.", "Respond with {\"ok\":true}")
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := llm.DecodeJSON(content, &parsed); err != nil {
		return fmt.Errorf("gemini health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("gemini health: unexpected response")
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(b.String())
}
