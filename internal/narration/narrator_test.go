package narration_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podcaster/internal/config"
	"podcaster/internal/language"
	"podcaster/internal/narration"
	"podcaster/internal/podcast"
	"podcaster/internal/queue"
	"podcaster/internal/testsupport"
)

const writeLastArg = `for a; do last="$a"; done
echo encoded > "$last"`

type fakeSynth struct {
	audio  []byte
	format string
	err    error
	text   string
	lang   language.Language
}

func (f *fakeSynth) Name() string { return "fake" }

func (f *fakeSynth) Synthesize(_ context.Context, text string, lang language.Language) ([]byte, string, error) {
	f.text = text
	f.lang = lang
	return f.audio, f.format, f.err
}

func setup(t *testing.T, ffmpegBody string) (*config.Config, *queue.Store, *queue.Item) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	bin := filepath.Join(testsupport.BaseDir(cfg), "bin")
	cfg.Video.FFmpegBinary = testsupport.WriteScript(t, bin, "ffmpeg", ffmpegBody)
	cfg.Video.FFprobeBinary = testsupport.WriteScript(t, bin, "ffprobe", `echo '{"format":{"duration":"4.2"}}'`)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.SeedAnalyzedItem(t, store, cfg.Paths.OutputDir)
	return cfg, store, item
}

func run(t *testing.T, n *narration.Narrator, item *queue.Item) {
	t.Helper()
	ctx := context.Background()
	if err := n.Prepare(ctx, item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := n.Execute(ctx, item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}

func TestNarratesSummary(t *testing.T) {
	cfg, store, item := setup(t, "exit 1")
	synth := &fakeSynth{audio: []byte("ID3-speech"), format: "mp3"}
	run(t, narration.NewNarratorWithDependencies(cfg, store, nil, synth), item)

	if synth.text != testsupport.SampleAnalysis().Summary {
		t.Fatalf("expected summary narration, got %q", synth.text)
	}
	if synth.lang.Code != "en" {
		t.Fatalf("expected english voice, got %s", synth.lang.Code)
	}
	if item.AudioPath != filepath.Join(item.FolderPath, "speech.mp3") {
		t.Fatalf("unexpected audio path %q", item.AudioPath)
	}
	data, err := os.ReadFile(item.AudioPath)
	if err != nil || string(data) != "ID3-speech" {
		t.Fatalf("unexpected audio %q err=%v", data, err)
	}
	if !strings.Contains(item.ProgressMessage, "4.2s") {
		t.Fatalf("expected probed duration in message, got %q", item.ProgressMessage)
	}
}

func TestPlaceholderWithoutCredentials(t *testing.T) {
	cfg, store, item := setup(t, writeLastArg)
	run(t, narration.NewNarratorWithDependencies(cfg, store, nil, nil), item)

	if filepath.Base(item.AudioPath) != "speech.mp3" {
		t.Fatalf("unexpected placeholder path %q", item.AudioPath)
	}
	if data, _ := os.ReadFile(item.AudioPath); strings.TrimSpace(string(data)) != "encoded" {
		t.Fatalf("expected ffmpeg placeholder, got %q", data)
	}
}

func TestPlaceholderAfterSynthesisFailure(t *testing.T) {
	cfg, store, item := setup(t, writeLastArg)
	synth := &fakeSynth{err: errors.New("quota exceeded")}
	run(t, narration.NewNarratorWithDependencies(cfg, store, nil, synth), item)
	if filepath.Base(item.AudioPath) != "speech.mp3" {
		t.Fatalf("expected placeholder after failure, got %q", item.AudioPath)
	}
}

func TestWAVFallbackWhenFFmpegFails(t *testing.T) {
	cfg, store, item := setup(t, "exit 1")
	cfg.TTS.SampleRate = 8000
	cfg.TTS.PlaceholderSeconds = 2
	run(t, narration.NewNarratorWithDependencies(cfg, store, nil, nil), item)

	if filepath.Base(item.AudioPath) != "speech.wav" {
		t.Fatalf("expected wav fallback, got %q", item.AudioPath)
	}
	data, err := os.ReadFile(item.AudioPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data[:4]) != "RIFF" || len(data) != 44+8000*2*2 {
		t.Fatalf("unexpected wav: header %q size %d", data[:4], len(data))
	}
}

func TestTranscodesForeignFormat(t *testing.T) {
	cfg, store, item := setup(t, writeLastArg)
	cfg.TTS.Format = "ogg"
	synth := &fakeSynth{audio: []byte("ID3"), format: "mp3"}
	run(t, narration.NewNarratorWithDependencies(cfg, store, nil, synth), item)

	if filepath.Base(item.AudioPath) != "speech.ogg" {
		t.Fatalf("expected transcoded ogg, got %q", item.AudioPath)
	}
	if _, err := os.Stat(filepath.Join(item.FolderPath, "speech.native.mp3")); !os.IsNotExist(err) {
		t.Fatalf("expected intermediate removed, stat err=%v", err)
	}
}

func TestKeepsProviderFormatWhenTranscodeFails(t *testing.T) {
	cfg, store, item := setup(t, "exit 1")
	cfg.TTS.Format = "ogg"
	synth := &fakeSynth{audio: []byte("ID3"), format: "mp3"}
	run(t, narration.NewNarratorWithDependencies(cfg, store, nil, synth), item)

	if filepath.Base(item.AudioPath) != "speech.mp3" {
		t.Fatalf("expected provider mp3 kept, got %q", item.AudioPath)
	}
}

func TestPrepareRequiresFolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewItem(t, store, testsupport.Thought)
	if err := narration.NewNarratorWithDependencies(cfg, store, nil, nil).Prepare(context.Background(), item); err == nil {
		t.Fatal("expected error without folder")
	}
}

func TestNarrationTextFallsBackToInput(t *testing.T) {
	folder := t.TempDir()
	if got := narration.NarrationText(folder, " raw thought "); got != "raw thought" {
		t.Fatalf("expected input fallback, got %q", got)
	}
	if err := podcast.WriteInput(folder, "from file"); err != nil {
		t.Fatal(err)
	}
	if got := narration.NarrationText(folder, ""); got != "from file" {
		t.Fatalf("expected input.txt fallback, got %q", got)
	}
	if err := podcast.SaveAnalysis(folder, &podcast.Analysis{Topic: "x", Summary: "summary"}); err != nil {
		t.Fatal(err)
	}
	if got := narration.NarrationText(folder, "raw"); got != "summary" {
		t.Fatalf("expected summary, got %q", got)
	}
}

func TestNewSynthesizerSelection(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if narration.NewSynthesizer(cfg, nil) != nil {
		t.Fatal("expected nil without credentials")
	}
	cfg.TTS.ElevenLabsAPIKey = "xi"
	if s := narration.NewSynthesizer(cfg, nil); s == nil || s.Name() != "elevenlabs" {
		t.Fatalf("expected elevenlabs, got %v", s)
	}
	cfg.TTS.Provider = config.ProviderGoogle
	cfg.TTS.GoogleCredentials = "/tmp/creds.json"
	if s := narration.NewSynthesizer(cfg, nil); s == nil || s.Name() != "google-tts" {
		t.Fatalf("expected google tts, got %v", s)
	}
}
