// Package elevenlabs is a minimal client for the ElevenLabs text-to-speech
// HTTP API.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"podcaster/internal/language"
	"podcaster/internal/logging"
)

const (
	// DefaultBaseURL is the public API host.
	DefaultBaseURL = "https://api.elevenlabs.io"

	defaultTimeout = 120 * time.Second
	maxErrorBody   = 2048
)

// premadeVoices maps the public voice names to their IDs so configs can use
// either form.
var premadeVoices = map[string]string{
	"rachel": "21m00Tcm4TlvDq8ikWAM",
	"adam":   "pNInz6obpgDQGcFmaJgB",
	"antoni": "ErXwobaYiN019PkySvjV",
	"bella":  "EXAVITQu4vr4xnSDxMaL",
	"domi":   "AZnzlk1XvdvUeBnXmlld",
	"elli":   "MF3mGyEYCl7XYWbV9V6O",
	"josh":   "TxGEqnHWrfWFTfGW9XjX",
	"arnold": "VR6AewLTigWG4xSOukaG",
	"sam":    "yoZ06aMxZJJ28mfd3POQ",
}

// Config holds the connection settings.
type Config struct {
	APIKey     string
	BaseURL    string
	VoiceID    string
	ModelID    string
	SampleRate int
	Format     string
	Quality    string
}

// Client synthesizes speech through ElevenLabs.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a client. A nil httpClient uses a default with a
// generous timeout.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{cfg: cfg, httpClient: httpClient, logger: logger}
}

// Name identifies the provider in logs.
func (c *Client) Name() string { return "elevenlabs" }

type synthesisRequest struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id,omitempty"`
	LanguageCode  string         `json:"language_code,omitempty"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize returns audio for text. The returned format is "mp3" or "wav";
// ElevenLabs cannot produce ogg, so ogg requests receive mp3.
func (c *Client) Synthesize(ctx context.Context, text string, lang language.Language) ([]byte, string, error) {
	if c.cfg.APIKey == "" {
		return nil, "", errors.New("elevenlabs: api key required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, "", errors.New("elevenlabs: text required")
	}

	outputFormat, format := OutputFormat(c.cfg.Format, c.cfg.SampleRate, c.cfg.Quality)
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		c.cfg.BaseURL, url.PathEscape(ResolveVoiceID(c.cfg.VoiceID)), url.QueryEscape(outputFormat))

	payload := synthesisRequest{
		Text:          text,
		ModelID:       c.cfg.ModelID,
		VoiceSettings: &voiceSettings{Stability: 0.5, SimilarityBoost: 0.75},
	}
	if AcceptsLanguageCode(c.cfg.ModelID) {
		payload.LanguageCode = lang.Code
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("elevenlabs: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("elevenlabs: build request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if format == "mp3" {
		req.Header.Set("Accept", "audio/mpeg")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("elevenlabs: request failed: %w", err)
	}
	defer resp.Body.Close()
	logging.LogAPICall(c.logger, c.Name(), "/v1/text-to-speech", resp.StatusCode, time.Since(started),
		logging.String("output_format", outputFormat))

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("elevenlabs: read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, "", errors.New("elevenlabs: empty audio response")
	}
	if format == "wav" {
		audio = WrapPCM(audio, outputSampleRate(outputFormat))
	}
	return audio, format, nil
}

// HealthCheck verifies the API key by listing voices.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("elevenlabs: api key required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/voices", nil)
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// StatusError reports a non-2xx API response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("elevenlabs: http %d", e.StatusCode)
	}
	return fmt.Sprintf("elevenlabs: http %d: %s", e.StatusCode, e.Body)
}

// ResolveVoiceID maps a premade voice name to its ID; other values pass
// through unchanged.
func ResolveVoiceID(voice string) string {
	voice = strings.TrimSpace(voice)
	if id, ok := premadeVoices[strings.ToLower(voice)]; ok {
		return id
	}
	if voice == "" {
		return premadeVoices["rachel"]
	}
	return voice
}

// AcceptsLanguageCode reports whether model takes an explicit language_code.
// Only the v2.5 models (Turbo, Flash) do; the others reject the field and
// detect the language from the text.
func AcceptsLanguageCode(model string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(model)), "_v2_5")
}

// OutputFormat picks the ElevenLabs output_format for the configured audio
// format, sample rate and quality, and the container format of the result.
// For mp3 the quality sets the bitrate; sample_rate only matters at low
// quality, where 22050 Hz or less selects the smallest 22.05 kHz stream.
func OutputFormat(format string, sampleRate int, quality string) (string, string) {
	if strings.EqualFold(format, "wav") {
		switch {
		case sampleRate <= 16000:
			return "pcm_16000", "wav"
		case sampleRate <= 22050:
			return "pcm_22050", "wav"
		case sampleRate <= 24000:
			return "pcm_24000", "wav"
		default:
			return "pcm_44100", "wav"
		}
	}
	switch strings.ToLower(quality) {
	case "low":
		if sampleRate > 0 && sampleRate <= 22050 {
			return "mp3_22050_32", "mp3"
		}
		return "mp3_44100_64", "mp3"
	case "medium":
		return "mp3_44100_96", "mp3"
	default:
		return "mp3_44100_128", "mp3"
	}
}

func outputSampleRate(outputFormat string) int {
	var rate int
	if _, err := fmt.Sscanf(outputFormat, "pcm_%d", &rate); err != nil || rate <= 0 {
		return 22050
	}
	return rate
}

// WrapPCM prefixes raw mono 16-bit little-endian PCM with a WAV header.
func WrapPCM(pcm []byte, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
