package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"filekebab/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Store publishes the current settings snapshot. Readers take a snapshot
// once per operation; writers replace it atomically and persist it.
type Store struct {
	path    string
	current atomic.Pointer[Settings]
	mu      sync.Mutex // serializes writers
}

// NewStore creates a store for path holding settings.
func NewStore(path string, settings Settings) *Store {
	s := &Store{path: path}
	snap := settings.Clone()
	s.current.Store(&snap)
	return s
}

// OpenStore loads the settings at path, falling back to defaults when the
// file does not exist.
func OpenStore(path string) (*Store, error) {
	settings, err := LoadOrCreate(path)
	if err != nil {
		return nil, err
	}
	return NewStore(path, *settings), nil
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns the current settings. The returned value is a copy.
func (s *Store) Snapshot() Settings {
	return s.current.Load().Clone()
}

// Reload re-reads the settings file. Invalid settings are rejected and the
// previous snapshot stays in place.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := LoadOrCreate(s.path)
	if err != nil {
		return err
	}
	if err := ValidateSettings(settings).Err(); err != nil {
		return err
	}
	s.current.Store(settings)
	return nil
}

// Update applies fn to a copy of the current settings, validates and saves
// the result, then publishes it.
func (s *Store) Update(fn func(*Settings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Load().Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := ValidateSettings(&next).Err(); err != nil {
		return err
	}
	if err := Save(&next, s.path); err != nil {
		return err
	}
	s.current.Store(&next)
	return nil
}

// Set updates a single option and saves the settings.
func (s *Store) Set(key, value string) error {
	return s.Update(func(settings *Settings) error {
		return settings.Set(key, value)
	})
}

const defaultWatchDebounce = 750 * time.Millisecond

// Watcher reloads a Store when its settings file changes on disk.
type Watcher struct {
	store    *Store
	path     string
	logger   *slog.Logger
	debounce time.Duration
	onReload func(Settings)

	mu       sync.Mutex
	timer    *time.Timer
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// WatchOption customizes a Watcher.
type WatchOption func(*Watcher)

// WithWatchDebounce sets the debounce window for reloads.
func WithWatchDebounce(debounce time.Duration) WatchOption {
	return func(w *Watcher) {
		if debounce > 0 {
			w.debounce = debounce
		}
	}
}

// WithWatchLogger sets the logger for watcher diagnostics.
func WithWatchLogger(logger *slog.Logger) WatchOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithReloadHook registers a callback invoked after each successful reload.
func WithReloadHook(fn func(Settings)) WatchOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher constructs a watcher for the store's settings file.
func NewWatcher(store *Store, opts ...WatchOption) (*Watcher, error) {
	if store == nil {
		return nil, errors.New("settings store required")
	}
	path := store.Path()
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	w := &Watcher{
		store:    store,
		path:     filepath.Clean(path),
		logger:   logging.Discard(),
		debounce: defaultWatchDebounce,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching the settings directory. The watcher stops when ctx
// is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watcher != nil {
		w.mu.Unlock()
		return nil
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		w.mu.Unlock()
		return fmt.Errorf("create settings directory: %w", err)
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = fsWatcher
	w.mu.Unlock()

	go w.watchLoop(fsWatcher)
	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.stopCh:
		}
	}()
	return nil
}

// Stop terminates the watcher and waits for its loop to exit.
func (w *Watcher) Stop() {
	started := false
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
			started = true
		}
		w.mu.Unlock()
	})
	if started {
		<-w.done
	}
}

func (w *Watcher) watchLoop(fsWatcher *fsnotify.Watcher) {
	defer close(w.done)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("settings watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if filepath.Clean(event.Name) != w.path {
		return
	}
	w.scheduleReload()
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.stopCh:
			return
		default:
		}
		if err := w.store.Reload(); err != nil {
			w.logger.Warn("settings reload failed, keeping previous settings",
				"path", w.path,
				"error", err)
			return
		}
		w.logger.Info("settings reloaded", "path", w.path)
		if w.onReload != nil {
			w.onReload(w.store.Snapshot())
		}
	})
}
