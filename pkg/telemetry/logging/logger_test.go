package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("run finished", "kept", 7, "deleted", 1)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "run finished" {
		t.Errorf("msg = %v, want %q", entry["msg"], "run finished")
	}
	if entry["kept"] != float64(7) {
		t.Errorf("kept = %v, want 7", entry["kept"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("info line logged at warn level")
	}
	if !strings.Contains(out, "visible") {
		t.Error("warn line missing")
	}
}

func TestNew_SetsDefault(t *testing.T) {
	var buf bytes.Buffer
	if _, err := New(Config{Format: "json", Writer: &buf}); err != nil {
		t.Fatalf("New: %v", err)
	}

	slog.Default().With("component", "test").Info("hello")
	if !strings.Contains(buf.String(), "component") {
		t.Error("default logger not installed")
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("unknown level should fail")
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("unknown format should fail")
	}
}
