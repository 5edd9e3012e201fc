// Package watch optionally re-invokes the path engine's addpath/rm_path
// when a search-path directory changes on disk. The engine itself is
// single-threaded and non-reentrant, so this package never
// calls it directly from fsnotify's callback goroutine: every event is
// serialized onto one dispatch goroutine that owns the engine exclusively.
package watch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/watermarkhu/mpath/pkg/pathengine"
)

// Options configures debouncing for the underlying file watcher.
type Options struct {
	DebounceMs int
}

func DefaultOptions() Options {
	return Options{DebounceMs: 200}
}

// Watcher watches one or more search-path roots and keeps an Engine's
// indexing up to date as files are added, changed, or removed underneath
// them.
type Watcher struct {
	fsw    *fsnotify.Watcher
	engine *pathengine.Engine
	logger *slog.Logger
	opts   Options

	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer

	dispatch chan func()
	stopChan chan struct{}
	mu       sync.Mutex
	stopped  bool
}

// New creates a Watcher bound to engine. Call Start for each root directory
// to watch.
func New(engine *pathengine.Engine, opts Options, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if opts.DebounceMs == 0 {
		opts.DebounceMs = 200
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		fsw:            fsw,
		engine:         engine,
		logger:         logger,
		opts:           opts,
		debounceTimers: map[string]*time.Timer{},
		dispatch:       make(chan func(), 64),
		stopChan:       make(chan struct{}),
	}
	go w.dispatchLoop()
	go w.eventLoop()
	return w, nil
}

// Start adds root (and, per toEnd/recursive, its existing contents) to the
// engine, then begins watching root itself for changes. Subdirectories of
// root are not watched.
func (w *Watcher) Start(root string, toEnd, recursive bool) error {
	done := make(chan error, 1)
	w.dispatch <- func() {
		done <- w.engine.AddPath(root, toEnd, recursive)
	}
	if err := <-done; err != nil {
		return err
	}
	return w.fsw.Add(root)
}

// dispatchLoop is the sole goroutine permitted to touch the engine,
// serializing every addpath/rm_path call it receives from fsnotify events.
func (w *Watcher) dispatchLoop() {
	for {
		select {
		case <-w.stopChan:
			return
		case fn := <-w.dispatch:
			fn()
		}
	}
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".m") {
		return
	}
	dir := filepath.Dir(event.Name)
	w.logger.Debug("file event", "op", event.Op.String(), "file", event.Name)

	switch {
	case event.Op&fsnotify.Remove == fsnotify.Remove, event.Op&fsnotify.Rename == fsnotify.Rename:
		w.debounce(dir, func() { w.engine.RmPath(dir, false) })
	default:
		w.debounce(dir, func() {
			if err := w.engine.AddPath(dir, false, false); err != nil {
				w.logger.Warn("reindex after file change failed", "dir", dir, "error", err)
			}
		})
	}
}

// debounce groups rapid events for the same directory, then submits exactly
// one dispatch call after the debounce window elapses.
func (w *Watcher) debounce(key string, fn func()) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if t, ok := w.debounceTimers[key]; ok {
		t.Stop()
	}
	w.debounceTimers[key] = time.AfterFunc(time.Duration(w.opts.DebounceMs)*time.Millisecond, func() {
		w.dispatch <- fn
	})
}

// Stop halts the watcher. Safe to call once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)

	w.debounceMu.Lock()
	for _, t := range w.debounceTimers {
		t.Stop()
	}
	w.debounceMu.Unlock()

	return w.fsw.Close()
}
