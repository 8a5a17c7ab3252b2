package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"warn", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"info", log.InfoLevel},
		{"", log.InfoLevel},
		{"verbose", log.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLoggerWithWriter(t *testing.T) {
	t.Setenv("THREADGEN_LOG_LEVEL", "warn")
	t.Setenv("THREADGEN_LOG_PREFIX", "tg")

	var buf bytes.Buffer
	lg := NewLoggerWithWriter(&buf)
	defer lg.Close()

	lg.Info("hidden")
	lg.Warn("shown", "labels", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	for _, want := range []string{"tg", "shown", "labels=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestIsDebug(t *testing.T) {
	t.Setenv("THREADGEN_LOG_LEVEL", "debug")
	if !IsDebug() {
		t.Error("IsDebug() = false with THREADGEN_LOG_LEVEL=debug")
	}
	t.Setenv("THREADGEN_LOG_LEVEL", "info")
	if IsDebug() {
		t.Error("IsDebug() = true with THREADGEN_LOG_LEVEL=info")
	}
}
