package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"podcaster/internal/config"
	"podcaster/internal/logging"
	"podcaster/internal/services"
)

func TestNewFromConfigWritesLogFiles(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello file")
	logger.Error("boom", logging.Error(errors.New("disk full")))

	main, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read main log: %v", err)
	}
	if !strings.Contains(string(main), "hello file") || !strings.Contains(string(main), "boom") {
		t.Fatalf("main log missing records: %s", main)
	}
	errs, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.ErrorLogFileName))
	if err != nil {
		t.Fatalf("read error log: %v", err)
	}
	if strings.Contains(string(errs), "hello file") || !strings.Contains(string(errs), "disk full") {
		t.Fatalf("error log should only hold errors: %s", errs)
	}
}

func TestConsoleLoggerFormatsSubject(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithStage(services.WithItemID(context.Background(), 7), "narration")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "workflow")).Info("synthesizing", logging.String("voice", "Rachel"))

	out := buf.String()
	for _, want := range []string{"INFO", "[workflow]", "Podcast #7 (narration)", "synthesizing", "voice: Rachel"} {
		if !strings.Contains(out, want) {
			t.Fatalf("console output missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color codes for non-terminal writer: %q", out)
	}
	if strings.Contains(out, ".go:") {
		t.Fatalf("expected no source location at info level: %q", out)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.LogAPICall(logger, "elevenlabs", "/v1/text-to-speech", 200, 1500*time.Millisecond)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json: %v (%s)", err, buf.String())
	}
	if record["level"] != "debug" || record["msg"] != "external api call" {
		t.Fatalf("unexpected record: %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key: %v", record)
	}
	if record["service"] != "elevenlabs" {
		t.Fatalf("expected service attribute: %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"WARNING": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"bogus":   "INFO",
	}
	for in, want := range tests {
		if got := logging.ParseLevel(in).String(); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestLogStepEscalatesFailures(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.LogStep(logger, "render", "failed")
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error level for failed step: %s", buf.String())
	}
}

func TestWithContextWithoutFieldsReturnsSameLogger(t *testing.T) {
	base := logging.NewNop()
	if logging.WithContext(context.Background(), base) != base {
		t.Fatal("expected unchanged logger for empty context")
	}
}
