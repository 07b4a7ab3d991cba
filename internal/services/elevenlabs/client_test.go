package elevenlabs

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"podcaster/internal/config"
	"podcaster/internal/language"
)

func TestSynthesizeSendsRequest(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	var payload synthesisRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("output_format")
		gotKey = r.Header.Get("xi-api-key")
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-audio"))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{APIKey: "xi-key", BaseURL: server.URL + "/", VoiceID: "Rachel", ModelID: "eleven_flash_v2_5", SampleRate: 22050, Format: "mp3", Quality: "low"}, nil, nil)
	audio, format, err := client.Synthesize(context.Background(), "Grace abounds.", language.Russian)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "ID3-audio" || format != "mp3" {
		t.Fatalf("unexpected result %q %q", audio, format)
	}
	if gotPath != "/v1/text-to-speech/21m00Tcm4TlvDq8ikWAM" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotQuery != "mp3_22050_32" || gotKey != "xi-key" {
		t.Fatalf("unexpected query/key %q %q", gotQuery, gotKey)
	}
	if payload.Text != "Grace abounds." || payload.ModelID != "eleven_flash_v2_5" || payload.LanguageCode != "ru" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestDefaultModelOmitsLanguageCode(t *testing.T) {
	tts := config.Default().TTS
	var raw map[string]any
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("output_format")
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte("ID3-audio"))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{
		APIKey:     "xi-key",
		BaseURL:    server.URL,
		VoiceID:    tts.VoiceID,
		ModelID:    tts.ModelID,
		SampleRate: tts.SampleRate,
		Format:     tts.Format,
		Quality:    tts.Quality,
	}, nil, nil)
	if _, _, err := client.Synthesize(context.Background(), "hello", language.English); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if _, ok := raw["language_code"]; ok {
		t.Fatalf("model %q must not receive language_code: %v", tts.ModelID, raw)
	}
	if tts.Quality == "high" && gotQuery != "mp3_44100_128" {
		t.Fatalf("high quality ignored: output_format=%q", gotQuery)
	}
}

func TestAcceptsLanguageCode(t *testing.T) {
	for model, want := range map[string]bool{
		"eleven_multilingual_v2": false,
		"eleven_monolingual_v1":  false,
		"eleven_turbo_v2_5":      true,
		"eleven_flash_v2_5":      true,
		"":                       false,
	} {
		if got := AcceptsLanguageCode(model); got != want {
			t.Errorf("AcceptsLanguageCode(%q) = %v, want %v", model, got, want)
		}
	}
}

func TestSynthesizeWrapsPCMAsWAV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 100))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Format: "wav", SampleRate: 24000}, nil, nil)
	audio, format, err := client.Synthesize(context.Background(), "text", language.English)
	if err != nil {
		t.Fatal(err)
	}
	if format != "wav" || string(audio[:4]) != "RIFF" || string(audio[8:12]) != "WAVE" {
		t.Fatalf("expected wav output, got %q header %q", format, audio[:12])
	}
	if rate := binary.LittleEndian.Uint32(audio[24:28]); rate != 24000 {
		t.Fatalf("sample rate = %d", rate)
	}
	if size := binary.LittleEndian.Uint32(audio[40:44]); size != 100 {
		t.Fatalf("data size = %d", size)
	}
}

func TestSynthesizeErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL}, nil, nil)
	_, _, err := client.Synthesize(context.Background(), "text", language.English)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 status error, got %v", err)
	}

	if _, _, err := NewClient(Config{}, nil, nil).Synthesize(context.Background(), "text", language.English); err == nil {
		t.Fatal("expected error without api key")
	}
	if _, _, err := client.Synthesize(context.Background(), "  ", language.English); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"voices":[]}`))
	}))
	t.Cleanup(server.Close)

	if err := NewClient(Config{APIKey: "good", BaseURL: server.URL}, nil, nil).HealthCheck(context.Background()); err != nil {
		t.Fatalf("expected healthy, got %v", err)
	}
	if err := NewClient(Config{APIKey: "bad", BaseURL: server.URL}, nil, nil).HealthCheck(context.Background()); err == nil {
		t.Fatal("expected unauthorized error")
	}
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		format     string
		rate       int
		quality    string
		wantOutput string
		wantFormat string
	}{
		{"mp3", 22050, "high", "mp3_44100_128", "mp3"},
		{"mp3", 22050, "low", "mp3_22050_32", "mp3"},
		{"mp3", 44100, "high", "mp3_44100_128", "mp3"},
		{"mp3", 44100, "low", "mp3_44100_64", "mp3"},
		{"ogg", 48000, "medium", "mp3_44100_96", "mp3"},
		{"wav", 16000, "", "pcm_16000", "wav"},
		{"wav", 22050, "", "pcm_22050", "wav"},
		{"wav", 48000, "", "pcm_44100", "wav"},
	}
	for _, tt := range tests {
		output, format := OutputFormat(tt.format, tt.rate, tt.quality)
		if output != tt.wantOutput || format != tt.wantFormat {
			t.Errorf("OutputFormat(%q, %d, %q) = %q, %q", tt.format, tt.rate, tt.quality, output, format)
		}
	}
}

func TestResolveVoiceID(t *testing.T) {
	if ResolveVoiceID("Rachel") != "21m00Tcm4TlvDq8ikWAM" {
		t.Fatal("expected rachel id")
	}
	if ResolveVoiceID("custom-id") != "custom-id" {
		t.Fatal("expected passthrough")
	}
	if ResolveVoiceID("") != "21m00Tcm4TlvDq8ikWAM" {
		t.Fatal("expected default voice")
	}
}
