package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// TestNew_NoWatchableDirs errors when every directory is missing.
func TestNew_NoWatchableDirs(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	if _, err := New([]string{missing}, zerolog.Nop()); err == nil {
		t.Error("New() with only missing dirs should fail")
	}
}

// TestNew_SkipsMissingDirs tolerates some missing directories as long as
// one is watchable.
func TestNew_SkipsMissingDirs(t *testing.T) {
	good := t.TempDir()
	missing := filepath.Join(t.TempDir(), "nope")

	w, err := New([]string{missing, good}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() failed: %v", err)
	}
}

// TestWatcher_DebouncedEvent verifies that creating entries in a watched
// directory produces one debounced event.
func TestWatcher_DebouncedEvent(t *testing.T) {
	dir := t.TempDir()

	w, err := New([]string{dir}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer w.Stop()

	events := w.Subscribe()
	w.Start()

	// A burst of creations must collapse into a single event.
	for i := 0; i < 3; i++ {
		if err := os.Mkdir(filepath.Join(dir, "env-"+string(rune('a'+i))), 0755); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case ev := <-events:
		if ev.Dir != dir {
			t.Errorf("event dir = %q, want %q", ev.Dir, dir)
		}
	case <-time.After(debounceWindow + 3*time.Second):
		t.Fatal("no event received")
	}

	// The burst already fired; no further event should be pending.
	select {
	case ev := <-events:
		t.Errorf("unexpected second event: %+v", ev)
	case <-time.After(debounceWindow + time.Second):
	}
}

// TestWatcher_StopClosesSubscribers verifies subscriber channels close on
// Stop.
func TestWatcher_StopClosesSubscribers(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	events := w.Subscribe()
	w.Start()
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected closed channel, got an event")
		}
	case <-time.After(time.Second):
		t.Error("subscriber channel not closed after Stop")
	}
}
