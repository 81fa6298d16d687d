package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/chess10kp/pagegrid/internal/config"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		name string
		want log.Level
	}{
		{"", log.InfoLevel},
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"error", log.ErrorLevel},
	}

	for _, tc := range testCases {
		got, err := ParseLevel(tc.name)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestNew_WritesToWriterWhenNoFile(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(config.LogConfig{Level: "warn"}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("page closed", "id", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "page closed") || !strings.Contains(out, "id=3") {
		t.Errorf("Expected warn line with id=3, got %q", out)
	}
}

func TestNew_WritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pagegrid.log")
	logger, closer, err := New(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("layout applied", "pages", 4)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "layout applied") {
		t.Errorf("Expected log line in file, got %q", data)
	}
}
