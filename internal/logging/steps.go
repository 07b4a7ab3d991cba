package logging

import (
	"context"
	"log/slog"
	"time"
)

// LogStep records a named pipeline step with its outcome.
func LogStep(logger *slog.Logger, step, status string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = append([]Attr{String("step", step), String("status", status)}, attrs...)
	level := slog.LevelInfo
	if status == "failed" {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, "pipeline step", Args(attrs...)...)
}

// LogAPICall records an outbound call to an external service.
func LogAPICall(logger *slog.Logger, service, endpoint string, status int, elapsed time.Duration, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = append([]Attr{
		String("service", service),
		String("endpoint", endpoint),
		Int("status_code", status),
		Duration("elapsed", elapsed),
	}, attrs...)
	if status >= 400 {
		logger.Warn("external api call failed", Args(attrs...)...)
		return
	}
	logger.Debug("external api call", Args(attrs...)...)
}

// LogPerformance records how long an operation took.
func LogPerformance(logger *slog.Logger, operation string, elapsed time.Duration, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = append([]Attr{
		String("operation", operation),
		Float64("seconds", elapsed.Seconds()),
	}, attrs...)
	logger.Info("operation timing", Args(attrs...)...)
}
