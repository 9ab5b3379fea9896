package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// captureLogOutput captures log output for testing by temporarily
// redirecting the logger to write to a buffer
func captureLogOutput(f func()) string {
	// Create a buffer to capture output
	var buf bytes.Buffer

	// Save original logger
	oldLogger := defaultLogger

	// Create a new logger that writes to the buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	defaultLogger = slog.New(handler)

	// Execute function
	f()

	// Restore original logger
	defaultLogger = oldLogger

	return buf.String()
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func()
		wantMsg string
		wantLvl string
	}{
		{
			name:    "debug",
			logFunc: func() { Debug("debug message", "key", "value") },
			wantMsg: "debug message",
			wantLvl: "DEBUG",
		},
		{
			name:    "info",
			logFunc: func() { Info("info message", "book", "GEN") },
			wantMsg: "info message",
			wantLvl: "INFO",
		},
		{
			name:    "warn",
			logFunc: func() { Warn("warn message") },
			wantMsg: "warn message",
			wantLvl: "WARN",
		},
		{
			name:    "error",
			logFunc: func() { Error("error message") },
			wantMsg: "error message",
			wantLvl: "ERROR",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureLogOutput(tt.logFunc)
			if !strings.Contains(out, tt.wantMsg) {
				t.Errorf("output missing message %q: %s", tt.wantMsg, out)
			}
			if !strings.Contains(out, tt.wantLvl) {
				t.Errorf("output missing level %q: %s", tt.wantLvl, out)
			}
		})
	}
}

func TestRunIDContext(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")
	if got := GetRunID(ctx); got != "run-123" {
		t.Errorf("GetRunID = %q, want run-123", got)
	}
	if got := GetRunID(context.Background()); got != "" {
		t.Errorf("GetRunID on empty context = %q, want empty", got)
	}

	out := captureLogOutput(func() {
		InfoContext(ctx, "converting")
	})
	if !strings.Contains(out, "run-123") {
		t.Errorf("context logger missing run_id: %s", out)
	}
}

func TestBookEvent(t *testing.T) {
	out := captureLogOutput(func() {
		BookEvent("emit_start", "EST", "osis", "entries", 167)
	})
	for _, want := range []string{"book_event", "emit_start", "EST", "osis", "entries"} {
		if !strings.Contains(out, want) {
			t.Errorf("BookEvent output missing %q: %s", want, out)
		}
	}
}

func TestEmitterError(t *testing.T) {
	out := captureLogOutput(func() {
		EmitterError("sqlite", "GEN", errors.New("disk full"))
	})
	for _, want := range []string{"emitter_error", "sqlite", "GEN", "disk full"} {
		if !strings.Contains(out, want) {
			t.Errorf("EmitterError output missing %q: %s", want, out)
		}
	}
}

func TestRunSummary(t *testing.T) {
	out := captureLogOutput(func() {
		RunSummary("run-123", 66, 4, 1500*time.Millisecond)
	})
	for _, want := range []string{"run_summary", "run-123", "\"books\":66", "\"warnings\":4", "\"duration_ms\":1500"} {
		if !strings.Contains(out, want) {
			t.Errorf("RunSummary output missing %q: %s", want, out)
		}
	}
}
