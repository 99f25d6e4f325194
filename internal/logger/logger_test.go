package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestConfigureJSON(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "debug", Format: "json", Output: &buf})

	Info("stage finished", "stage", "fetch_serp", "results", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "stage finished" {
		t.Errorf("unexpected message: %v", entry["message"])
	}
	if entry["stage"] != "fetch_serp" {
		t.Errorf("expected stage field, got %v", entry["stage"])
	}
	if entry["level"] != "info" {
		t.Errorf("expected info level, got %v", entry["level"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "warn", Format: "json", Output: &buf})

	Debug("hidden")
	Info("hidden too")
	Error("visible", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected debug/info to be filtered, got %s", out)
	}
	if !strings.Contains(out, "boom") {
		t.Errorf("expected error text in output, got %s", out)
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "info", Format: "json", Output: &buf})

	log := Component("serp")
	log.Info().Msg("hello")

	if !strings.Contains(buf.String(), `"component":"serp"`) {
		t.Errorf("expected component field, got %s", buf.String())
	}
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Level: "chatty", Output: &buf})

	Debug("nope")
	Info("yes")

	if strings.Contains(buf.String(), "nope") || !strings.Contains(buf.String(), "yes") {
		t.Errorf("expected info level default, got %s", buf.String())
	}
}
