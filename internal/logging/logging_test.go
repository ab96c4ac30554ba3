package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig("debug", "json")
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if cfg.Level != slog.LevelDebug || cfg.Format != FormatJSON {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	cfg, err = ParseConfig("", "")
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if _, err := ParseConfig("loud", ""); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if _, err := ParseConfig("", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: slog.LevelInfo, Format: FormatJSON})
	logger.Debug("hidden")
	logger.Info("analysis done", "speed", 75)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if entry["msg"] != "analysis done" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
}
