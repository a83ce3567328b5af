package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromCore(core).With("run_id", "abc")

	logger.Infow("processed image", "image", "0_00_01_000__0_00_02_000")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["run_id"] != "abc" {
		t.Errorf("run_id = %v, want abc", fields["run_id"])
	}
	if fields["image"] != "0_00_01_000__0_00_02_000" {
		t.Errorf("image = %v", fields["image"])
	}
}

func TestNewJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create log file: %v", err)
	}
	defer f.Close()

	logger := New(Options{Format: "json", Output: f})
	logger.Debugw("hidden")
	logger.Infow("visible", "count", 2)
	_ = logger.Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "hidden") {
		t.Errorf("debug entry written without verbose: %q", content)
	}
	if !strings.Contains(string(content), `"msg":"visible"`) {
		t.Errorf("expected json message, got %q", content)
	}
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"json", "json"},
		{"JSON", "json"},
		{"console", "console"},
		{" console ", "console"},
		{"", "json"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			// a nil file is never a terminal, so auto falls back to json
			if got := resolveFormat(tt.format, nil); got != tt.want {
				t.Errorf("resolveFormat(%q) = %q, want %q", tt.format, got, tt.want)
			}
		})
	}
}
