package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestInitWritesRotatingLog(t *testing.T) {
	dir := t.TempDir()
	Init(Config{LogDir: dir, Level: "debug", Format: "json"})
	defer Shutdown()

	Logger().Info("hello", "k", "v")

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "hello" || entry["k"] != "v" {
		t.Errorf("entry = %v", entry)
	}
}

func TestForComponentTagsEntries(t *testing.T) {
	dir := t.TempDir()
	Init(Config{LogDir: dir, Level: "debug", Format: "json"})
	defer Shutdown()

	log := ForComponent(CompPoll)
	log.Info("pass_done")

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["component"] != CompPoll {
		t.Errorf("component = %v, want %q", entry["component"], CompPoll)
	}
}

func TestUninitializedLoggerDiscards(t *testing.T) {
	Shutdown()
	// Must not panic with no Init.
	Logger().Info("dropped")
	ForComponent(CompTmux).Debug("dropped")
}
