package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Formats used by -log-format
// =============================================================================

func TestNewLoggerWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "json", "info", false)

	logger.Info("experiment_started", "topic", "Struct256", "rate", 7)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if rec["msg"] != "experiment_started" || rec["topic"] != "Struct256" {
		t.Errorf("record = %v", rec)
	}
	if _, ok := rec["source"]; ok {
		t.Error("info logger should not add source")
	}
}

func TestNewLoggerWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "TEXT", "info", false)

	logger.Info("sweep_finished", "executed", 3)

	out := buf.String()
	if !strings.Contains(out, "msg=sweep_finished") || !strings.Contains(out, "executed=3") {
		t.Errorf("text output = %q", out)
	}
}

func TestNewLoggerWithWriter_UnknownFormatIsJSON(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerWithWriter(&buf, "xml", "info", false).Info("x")

	if !json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Errorf("output = %q, want JSON", buf.String())
	}
}

// =============================================================================
// -verbose
// =============================================================================

func TestNewLoggerWithWriter_Verbose(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		verbose   bool
		wantDebug bool
	}{
		{"info", "info", false, false},
		{"verbose overrides info", "info", true, true},
		{"verbose overrides error", "error", true, true},
		{"debug level", "debug", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(&buf, "json", tt.level, tt.verbose)

			if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}

			logger.Debug("slot_killed")
			if tt.wantDebug && !strings.Contains(buf.String(), `"source"`) {
				t.Errorf("debug record missing source: %s", buf.String())
			}
		})
	}
}

func TestNewLogger_Verbose(t *testing.T) {
	logger := NewLogger("text", "info", true)
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("NewLogger(verbose) should enable debug")
	}
}

// =============================================================================
// Dashboard mode
// =============================================================================

func TestNewDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()

	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelError} {
		if logger.Enabled(context.Background(), level) {
			t.Errorf("discard logger enabled at %v", level)
		}
	}
	logger.Error("ignored")
}

func TestSetDefault(t *testing.T) {
	orig := slog.Default()
	defer slog.SetDefault(orig)

	var buf bytes.Buffer
	SetDefault(NewLoggerWithWriter(&buf, "text", "info", false))
	slog.Info("via_default")

	if !strings.Contains(buf.String(), "via_default") {
		t.Errorf("default logger not replaced: %q", buf.String())
	}
}
