package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type reloads struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (r *reloads) fn(ctx context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return r.err
}

func (r *reloads) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func startWatcher(t *testing.T, path string, r *reloads) (context.CancelFunc, chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	w := New(path, r.fn).WithDebounce(50 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	select {
	case <-w.Ready():
	case err := <-done:
		t.Fatalf("watch failed to start: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never became ready")
	}
	t.Cleanup(cancel)
	return cancel, done
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatchDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "station.json")
	if err := os.WriteFile(path, []byte(`{"nodes":[]}`), 0644); err != nil {
		t.Fatal(err)
	}

	r := &reloads{}
	startWatcher(t, path, r)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte(`{"nodes":[],"edges":[]}`), 0644); err != nil {
			t.Fatal(err)
		}
	}

	waitFor(t, func() bool { return r.count() >= 1 })
	time.Sleep(150 * time.Millisecond)
	if got := r.count(); got != 1 {
		t.Errorf("expected one debounced reload, got %d", got)
	}

	abs, _ := filepath.Abs(path)
	if r.paths[0] != abs {
		t.Errorf("reloaded %s, want %s", r.paths[0], abs)
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "station.json")
	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	r := &reloads{}
	startWatcher(t, path, r)

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if got := r.count(); got != 0 {
		t.Errorf("expected no reloads for unrelated file, got %d", got)
	}
}

func TestWatchSurvivesReloadError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "station.yaml")
	if err := os.WriteFile(path, []byte("nodes: []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r := &reloads{err: errors.New("malformed graph")}
	startWatcher(t, path, r)

	os.WriteFile(path, []byte("nodes: [\n"), 0644)
	waitFor(t, func() bool { return r.count() == 1 })

	os.WriteFile(path, []byte("nodes: []\n"), 0644)
	waitFor(t, func() bool { return r.count() == 2 })
}

func TestWatchStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "station.json")

	r := &reloads{}
	cancel, done := startWatcher(t, path, r)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope", "station.json"), (&reloads{}).fn)
	if err := w.Watch(context.Background()); err == nil {
		t.Error("expected error watching a missing directory")
	}
}
