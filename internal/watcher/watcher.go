// Package watcher reruns a callback when a file changes.
//
// The directory holding the file is watched rather than the file itself, as
// editors and atomic writers replace the file through a rename.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a single file and calls OnChange after it settles.
type Watcher struct {
	path string
	name string

	// Configuration
	debounceDelay time.Duration
	log           *slog.Logger
	onChange      func(ctx context.Context) error

	// Internal state
	mu      sync.Mutex
	pending time.Time
	ready   chan struct{}
}

// Config holds configuration options for the Watcher.
type Config struct {
	Path          string
	DebounceDelay time.Duration // Default: 100ms
	Logger        *slog.Logger
	// OnChange runs once per burst of changes. An error is logged and the
	// watcher keeps going.
	OnChange func(ctx context.Context) error
}

// New creates a new Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("watcher: path is required")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("watcher: change callback is required")
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}
	debounce := cfg.DebounceDelay
	if debounce == 0 {
		debounce = 100 * time.Millisecond
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		path:          abs,
		name:          filepath.Base(abs),
		debounceDelay: debounce,
		log:           log,
		onChange:      cfg.OnChange,
		ready:         make(chan struct{}),
	}, nil
}

// Ready is closed once the watcher receives events.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Start watches the file until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: create: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watcher: watch %s: %w", filepath.Dir(w.path), err)
	}
	w.log.Info("watching", "path", w.path)
	close(w.ready)

	ticker := time.NewTicker(max(w.debounceDelay/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "err", err)

		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != w.name {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	w.log.Debug("file event", "op", event.Op.String(), "path", event.Name)
	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

// processPending runs the callback once the last event is older than the
// debounce delay.
func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounceDelay {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	if err := w.onChange(ctx); err != nil {
		w.log.Error("change handler failed", "path", w.path, "err", err)
		return
	}
	w.log.Debug("change handled", "path", w.path)
}
