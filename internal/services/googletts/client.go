// Package googletts synthesizes narration with Google Cloud Text-to-Speech.
package googletts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"

	"podcaster/internal/language"
	"podcaster/internal/logging"
	"podcaster/internal/textutil"
)

// maxInputBytes is the SynthesizeSpeech input limit.
const maxInputBytes = 5000

// Config holds the synthesis settings.
type Config struct {
	// CredentialsFile is a service account JSON; empty uses application
	// default credentials.
	CredentialsFile string
	// Voices lists preferred voice names such as "ru-RU-Wavenet-D"; the first
	// one matching the text language wins.
	Voices     []string
	SampleRate int
	Format     string
}

// SynthesizeFunc performs one SynthesizeSpeech call.
type SynthesizeFunc func(context.Context, *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error)

// Client synthesizes speech through the Cloud Text-to-Speech API.
type Client struct {
	cfg        Config
	logger     *slog.Logger
	synthesize SynthesizeFunc
}

// NewClient constructs a client that opens an API connection per request.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Client{cfg: cfg, logger: logger}
	c.synthesize = c.callAPI
	return c
}

// NewClientWithSynthesizer replaces the API call (used in tests).
func NewClientWithSynthesizer(cfg Config, logger *slog.Logger, fn SynthesizeFunc) *Client {
	c := NewClient(cfg, logger)
	if fn != nil {
		c.synthesize = fn
	}
	return c
}

// Name identifies the provider in logs.
func (c *Client) Name() string { return "google-tts" }

// Synthesize returns audio for text in the configured container format.
func (c *Client) Synthesize(ctx context.Context, text string, lang language.Language) ([]byte, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, "", errors.New("google tts: text required")
	}
	req, format := BuildRequest(c.cfg, text, lang)

	started := time.Now()
	resp, err := c.synthesize(ctx, req)
	status := 200
	if err != nil {
		status = 500
	}
	logging.LogAPICall(c.logger, c.Name(), "SynthesizeSpeech", status, time.Since(started),
		logging.String("language", req.GetVoice().GetLanguageCode()),
		logging.String("voice", req.GetVoice().GetName()),
	)
	if err != nil {
		return nil, "", fmt.Errorf("google tts: synthesize: %w", err)
	}
	if len(resp.GetAudioContent()) == 0 {
		return nil, "", errors.New("google tts: empty audio response")
	}
	return resp.GetAudioContent(), format, nil
}

// BuildRequest assembles the SynthesizeSpeech request and reports the
// container format of the returned audio.
func BuildRequest(cfg Config, text string, lang language.Language) (*texttospeechpb.SynthesizeSpeechRequest, string) {
	voice := &texttospeechpb.VoiceSelectionParams{
		LanguageCode: lang.Tag.String(),
		SsmlGender:   texttospeechpb.SsmlVoiceGender_NEUTRAL,
	}
	if name := pickVoice(cfg.Voices, lang); name != "" {
		voice.Name = name
		voice.SsmlGender = texttospeechpb.SsmlVoiceGender_SSML_VOICE_GENDER_UNSPECIFIED
	}

	encoding, format := texttospeechpb.AudioEncoding_MP3, "mp3"
	switch strings.ToLower(cfg.Format) {
	case "wav":
		encoding, format = texttospeechpb.AudioEncoding_LINEAR16, "wav"
	case "ogg":
		encoding, format = texttospeechpb.AudioEncoding_OGG_OPUS, "ogg"
	}
	audioCfg := &texttospeechpb.AudioConfig{AudioEncoding: encoding}
	if cfg.SampleRate > 0 {
		audioCfg.SampleRateHertz = int32(cfg.SampleRate)
	}

	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: textutil.TruncateBytes(text, maxInputBytes)},
		},
		Voice:       voice,
		AudioConfig: audioCfg,
	}, format
}

func pickVoice(voices []string, lang language.Language) string {
	prefix := strings.ToLower(lang.Tag.String()) + "-"
	for _, name := range voices {
		name = strings.TrimSpace(name)
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			return name
		}
	}
	return ""
}

func (c *Client) callAPI(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
	var opts []option.ClientOption
	if path := strings.TrimSpace(c.cfg.CredentialsFile); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("open client: %w", err)
	}
	defer client.Close()
	return client.SynthesizeSpeech(ctx, req)
}
