package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNew_WritesJSONLines verifies log entries land in the file as JSON.
func TestNew_WritesJSONLines(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "commands.log")

	log, closer, err := New(logFile, false)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	log.Info().Str("executable", "/opt/conda/bin/conda").Msg("backend command")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	line := strings.TrimSpace(string(data))
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %q", line)
	}
	if entry["executable"] != "/opt/conda/bin/conda" {
		t.Errorf("entry = %v", entry)
	}
	if entry["time"] == nil {
		t.Error("entries should carry a timestamp")
	}
}

// TestNew_Appends verifies reopening the same file keeps prior entries.
func TestNew_Appends(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "commands.log")

	for i := 0; i < 2; i++ {
		log, closer, err := New(logFile, false)
		if err != nil {
			t.Fatalf("New() failed: %v", err)
		}
		log.Info().Int("run", i).Msg("backend command")
		closer.Close()
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "backend command"); got != 2 {
		t.Errorf("log holds %d entries, want 2", got)
	}
}

// TestNew_BadPath errors on an unwritable location.
func TestNew_BadPath(t *testing.T) {
	if _, _, err := New(filepath.Join(t.TempDir(), "missing", "x.log"), false); err == nil {
		t.Error("New() should fail when the parent directory does not exist")
	}
}
