package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestWatcherReloadsOnConfigWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	dir := filepath.Join(root, WorkspaceDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, ConfigFileName)
	if err := Default().Save(path); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(root)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	// Short debounce keeps the test fast
	w.debounceDur = 50 * time.Millisecond

	reloaded := make(chan struct{}, 1)
	w.OnReload = func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	cfg := Default()
	cfg.Logging.DebugMode = true
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload within 5s")
	}

	if w.Reloads() == 0 {
		t.Error("expected at least one recorded reload")
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, WorkspaceDirName), 0755); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(root)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	w.Stop()
	w.Stop() // Second stop must not panic or block

	if w.IsWatching() {
		t.Error("watcher should not report running after Stop")
	}
}
