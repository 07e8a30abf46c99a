package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestConfigWatcher_FiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "janus.yaml")
	if err := os.WriteFile(path, []byte("rules: [R7/P1D]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewConfigWatcher(path, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewConfigWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan struct{}, 1)
	go func() {
		_ = w.Watch(ctx, func() error {
			select {
			case reloaded <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	// Give the watcher time to arm before writing.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("rules: [R4/P1W]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(3 * time.Second):
		t.Fatal("reload callback not invoked after config write")
	}
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "janus.yaml")

	w, err := NewConfigWatcher(path, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewConfigWatcher() error = %v", err)
	}
	defer w.watcher.Close()

	other := fsnotify.Event{Name: filepath.Join(dir, "other.yaml"), Op: fsnotify.Write}
	if w.relevant(other) {
		t.Error("relevant() = true for unrelated file")
	}

	chmod := fsnotify.Event{Name: path, Op: fsnotify.Chmod}
	if w.relevant(chmod) {
		t.Error("relevant() = true for chmod event")
	}

	write := fsnotify.Event{Name: path, Op: fsnotify.Write}
	if !w.relevant(write) {
		t.Error("relevant() = false for write to watched file")
	}
}

func TestConfigWatcher_RejectsDoubleWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "janus.yaml")
	if err := os.WriteFile(path, []byte("rules: [R7/P1D]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewConfigWatcher(path, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewConfigWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = w.Watch(ctx, func() error { return nil })
	}()
	time.Sleep(50 * time.Millisecond)

	if err := w.Watch(ctx, func() error { return nil }); err == nil {
		t.Error("second Watch() error = nil, want already running error")
	}
}
