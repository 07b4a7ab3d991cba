package googletts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"

	"podcaster/internal/language"
)

func TestBuildRequestPicksVoiceForLanguage(t *testing.T) {
	cfg := Config{Voices: []string{"en-US-Neural2-D", "ru-RU-Wavenet-D"}, SampleRate: 22050, Format: "ogg"}
	req, format := BuildRequest(cfg, "Благодать", language.Russian)
	if format != "ogg" || req.GetAudioConfig().GetAudioEncoding() != texttospeechpb.AudioEncoding_OGG_OPUS {
		t.Fatalf("unexpected encoding %v / %q", req.GetAudioConfig().GetAudioEncoding(), format)
	}
	if req.GetVoice().GetLanguageCode() != "ru-RU" || req.GetVoice().GetName() != "ru-RU-Wavenet-D" {
		t.Fatalf("unexpected voice %+v", req.GetVoice())
	}
	if req.GetAudioConfig().GetSampleRateHertz() != 22050 {
		t.Fatalf("unexpected sample rate %d", req.GetAudioConfig().GetSampleRateHertz())
	}
	if req.GetInput().GetText() != "Благодать" {
		t.Fatalf("unexpected text %q", req.GetInput().GetText())
	}
}

func TestBuildRequestDefaults(t *testing.T) {
	req, format := BuildRequest(Config{Format: "mp3"}, strings.Repeat("word ", 2000), language.English)
	if format != "mp3" || req.GetAudioConfig().GetAudioEncoding() != texttospeechpb.AudioEncoding_MP3 {
		t.Fatalf("expected mp3, got %q", format)
	}
	if req.GetVoice().GetSsmlGender() != texttospeechpb.SsmlVoiceGender_NEUTRAL || req.GetVoice().GetName() != "" {
		t.Fatalf("expected neutral unnamed voice, got %+v", req.GetVoice())
	}
	if len(req.GetInput().GetText()) > maxInputBytes {
		t.Fatalf("input not truncated: %d bytes", len(req.GetInput().GetText()))
	}

	_, format = BuildRequest(Config{Format: "wav"}, "x", language.English)
	if format != "wav" {
		t.Fatalf("expected wav, got %q", format)
	}
}

func TestSynthesizeUsesInjectedCall(t *testing.T) {
	var seen *texttospeechpb.SynthesizeSpeechRequest
	client := NewClientWithSynthesizer(Config{Format: "mp3"}, nil, func(_ context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
		seen = req
		return &texttospeechpb.SynthesizeSpeechResponse{AudioContent: []byte("mp3-bytes")}, nil
	})
	audio, format, err := client.Synthesize(context.Background(), "Grace", language.English)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "mp3-bytes" || format != "mp3" || seen.GetVoice().GetLanguageCode() != "en-US" {
		t.Fatalf("unexpected result %q %q %+v", audio, format, seen.GetVoice())
	}
}

func TestSynthesizeErrors(t *testing.T) {
	failing := NewClientWithSynthesizer(Config{}, nil, func(context.Context, *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
		return nil, errors.New("permission denied")
	})
	if _, _, err := failing.Synthesize(context.Background(), "Grace", language.English); err == nil {
		t.Fatal("expected api error")
	}
	empty := NewClientWithSynthesizer(Config{}, nil, func(context.Context, *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
		return &texttospeechpb.SynthesizeSpeechResponse{}, nil
	})
	if _, _, err := empty.Synthesize(context.Background(), "Grace", language.English); err == nil {
		t.Fatal("expected empty audio error")
	}
	if _, _, err := empty.Synthesize(context.Background(), " ", language.English); err == nil {
		t.Fatal("expected empty text error")
	}
}
