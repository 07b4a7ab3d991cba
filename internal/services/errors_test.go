package services_test

import (
	"errors"
	"strings"
	"testing"

	"podcaster/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "render", "ffmpeg", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"render", "ffmpeg", "failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "narration", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "narration") {
		t.Fatalf("expected stage in message, got %q", err.Error())
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"validation", services.Wrap(services.ErrValidation, "analysis", "", "too short", nil), false},
		{"configuration", services.Wrap(services.ErrConfiguration, "upload", "", "no token", nil), false},
		{"transient", services.Wrap(services.ErrTransient, "narration", "", "", errors.New("reset")), true},
		{"timeout", services.Wrap(services.ErrTimeout, "analysis", "", "", nil), true},
		{"plain", errors.New("plain"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.IsRetryable(tc.err); got != tc.want {
				t.Fatalf("IsRetryable = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDetails(t *testing.T) {
	err := services.Wrap(services.ErrExternalTool, "render", "ffmpeg", "encode failed", errors.New("exit status 1"))
	details := services.Details(err)
	if details.Kind != "external_tool" || details.Stage != "render" || details.Operation != "ffmpeg" {
		t.Fatalf("unexpected details: %+v", details)
	}
	if details.Message != "encode failed" || details.Cause != "exit status 1" {
		t.Fatalf("unexpected message/cause: %+v", details)
	}

	plain := services.Details(errors.New("boom"))
	if plain.Kind != "unknown" || plain.Message != "boom" {
		t.Fatalf("unexpected plain details: %+v", plain)
	}
}
