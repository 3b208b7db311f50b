// Package watcher re-renders a graph payload file whenever it changes on disk.
package watcher

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events editors emit on save
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc loads the payload at path. A returned error is logged and the
// previous render stays on screen.
type ReloadFunc func(ctx context.Context, path string) error

// Watcher watches one payload file
type Watcher struct {
	path     string
	reload   ReloadFunc
	debounce time.Duration
	ready    chan struct{}
}

// New creates a new file watcher
func New(path string, reload ReloadFunc) *Watcher {
	return &Watcher{
		path:     path,
		reload:   reload,
		debounce: DefaultDebounce,
		ready:    make(chan struct{}),
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// Ready is closed once the watch is registered
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Watch starts watching the file for changes.
// It blocks until the context is cancelled or an error occurs.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}

	// Watch the directory containing the file so atomic replaces by
	// editors are seen as a create
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return err
	}
	close(w.ready)

	log.Printf("Watching %s for changes", absPath)

	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()
	defer debounceTimer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			name, err := filepath.Abs(event.Name)
			if err != nil || name != absPath {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				debounceTimer.Reset(w.debounce)
			}

		case <-debounceTimer.C:
			log.Printf("File changed: %s", absPath)
			if err := w.reload(ctx, absPath); err != nil {
				log.Printf("Failed to reload %s: %v", absPath, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
