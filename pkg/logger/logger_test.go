package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"invalid", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := ParseLevel(tt.level); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		logFunc  func(string, ...any)
		logMsg   string
		expected bool
	}{
		{"Debug when debug level", "debug", Debug, "trial evaluated", true},
		{"Debug when info level", "info", Debug, "trial evaluated", false},
		{"Info when info level", "info", Info, "study started", true},
		{"Warn when error level", "error", Warn, "replay mismatch", false},
		{"Error when info level", "info", Error, "oracle failed", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetDefault(New(tt.logLevel, &buf))

			tt.logFunc(tt.logMsg)
			output := buf.String()

			if tt.expected && !strings.Contains(output, tt.logMsg) {
				t.Errorf("Expected log output to contain '%s', got: %s", tt.logMsg, output)
			}
			if !tt.expected && strings.Contains(output, tt.logMsg) {
				t.Errorf("Expected log output NOT to contain '%s', but it did: %s", tt.logMsg, output)
			}
		})
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New("info", &buf))

	With("study_id", "abc").Info("trial evaluated", "trial", 3, "raw", 12.5)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log output: %v", err)
	}
	if entry["msg"] != "trial evaluated" {
		t.Errorf("Expected msg 'trial evaluated', got '%v'", entry["msg"])
	}
	if entry["study_id"] != "abc" {
		t.Errorf("Expected study_id 'abc', got '%v'", entry["study_id"])
	}
	if entry["trial"] != float64(3) {
		t.Errorf("Expected trial 3, got '%v'", entry["trial"])
	}
}

func TestNewWithFormat(t *testing.T) {
	var buf bytes.Buffer
	NewWithFormat("info", "text", &buf).Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "k=v") {
		t.Errorf("Expected text output, got: %s", buf.String())
	}

	buf.Reset()
	NewWithFormat("info", "JSON", &buf).Info("hello")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("Expected JSON output, got: %s", buf.String())
	}
}

func TestDiscardAndOrDefault(t *testing.T) {
	d := Discard()
	if d.Enabled(nil, slog.LevelError) {
		t.Error("Discard logger should not be enabled at error level")
	}
	if OrDefault(nil) != Default {
		t.Error("OrDefault(nil) should return Default")
	}
	if OrDefault(d) != d {
		t.Error("OrDefault should return the given logger")
	}
}
