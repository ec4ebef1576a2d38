package logutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	prevLevel := Level(minLevel.Load())
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		SetLevel(prevLevel)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"trace": LevelTrace,
		"DEBUG": LevelDebug,
		"":      LevelInfo,
		"warn":  LevelWarn,
		"error": LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %s want %s", in, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := captureLog(t)
	SetLevel(LevelInfo)

	Trace("hidden-trace", nil)
	Debug("hidden-debug", nil)
	Info("shown-info", map[string]interface{}{"key": 3})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected trace/debug to be filtered, got %s", out)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entry); err != nil {
		t.Fatalf("entry is not json: %v (%s)", err, out)
	}
	if entry["level"] != "info" || entry["message"] != "shown-info" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry["key"] != float64(3) {
		t.Fatalf("expected field to be merged, got %+v", entry)
	}
}

func TestErrorIncludesErrorString(t *testing.T) {
	buf := captureLog(t)
	SetLevel(LevelTrace)

	Error("launch failed", errors.New("boom"), nil)

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("entry is not json: %v", err)
	}
	if entry["error"] != "boom" || entry["level"] != "error" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}
