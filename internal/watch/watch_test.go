package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, path string, debounce time.Duration) *Watcher {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	w, err := New(ctx, path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })
	if err := w.Start(debounce); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	// Give fsnotify time to register the directory.
	time.Sleep(100 * time.Millisecond)
	return w
}

func TestWatcher_ReportsWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dairy_dataset.csv")
	if err := os.WriteFile(path, []byte("a\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := startWatcher(t, path, 50*time.Millisecond)

	if err := os.WriteFile(path, []byte("a\n2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Events():
	case err := <-w.Errors():
		t.Fatalf("watcher error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change event")
	}
}

func TestWatcher_ReportsCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "late.csv")
	w := startWatcher(t, path, 50*time.Millisecond)

	if err := os.WriteFile(path, []byte("a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Events():
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for create event")
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte("a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	debounce := 200 * time.Millisecond
	w := startWatcher(t, path, debounce)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("a\n"+string(rune('0'+i))+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	count := 0
	timeout := time.After(debounce + 600*time.Millisecond)
	for {
		select {
		case <-w.Events():
			count++
		case <-timeout:
			if count != 1 {
				t.Errorf("got %d events, want 1", count)
			}
			return
		}
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte("a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := startWatcher(t, path, 50*time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "other.csv"), []byte("b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Events():
		t.Fatal("unexpected event for sibling file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_StopClosesEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	w := startWatcher(t, path, 50*time.Millisecond)

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}

	select {
	case _, ok := <-w.Events():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestWatcher_StartTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	w := startWatcher(t, path, 50*time.Millisecond)
	if err := w.Start(50 * time.Millisecond); err == nil {
		t.Fatal("expected error starting twice")
	}
}
