// Package watcher turns filesystem notifications inside a vault into
// lifecycle events for the rename dispatcher.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"filekebab/internal/dispatch"
	"filekebab/internal/logging"
	"filekebab/internal/rename"
	"filekebab/internal/title"
	"filekebab/internal/vault"

	"github.com/fsnotify/fsnotify"
)

// WatchConfig contains watcher settings.
type WatchConfig struct {
	Debounce       time.Duration // Quiet period before a written note is parsed
	RenameWindow   time.Duration // A Create this soon after a Rename completes the rename
	NotesExtension string        // Only notes are parsed for headings
	IgnorePatterns []string      // Glob patterns to ignore; nil uses the defaults
}

// DefaultWatchConfig returns a WatchConfig with sensible defaults.
func DefaultWatchConfig() *WatchConfig {
	return &WatchConfig{
		Debounce:       750 * time.Millisecond,
		RenameWindow:   250 * time.Millisecond,
		NotesExtension: ".md",
	}
}

// WatchSummary contains stats from the watch session.
type WatchSummary struct {
	Renamed   int
	Unchanged int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

// Handler processes one lifecycle event to completion.
type Handler func(ctx context.Context, ev dispatch.Event) rename.Outcome

// Watcher monitors a vault recursively. Events reach the handler one at a
// time from a single goroutine.
type Watcher struct {
	config     *WatchConfig
	vault      *vault.FS
	handler    Handler
	headings   func() bool
	logger     *slog.Logger
	fsWatcher  *fsnotify.Watcher
	fileFilter *FileFilter
	debouncer  *Debouncer
	settled    chan string
	done       chan struct{}
	wg         sync.WaitGroup
	startTime  time.Time
	stopOnce   sync.Once

	// Owned by the event loop.
	lastRename time.Time
	dirs       map[string]bool
	echoes     map[string]time.Time

	mu        sync.Mutex
	renamed   int
	unchanged int
	failed    int
	skipped   int
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithHeadingNaming reports whether note writes should be parsed for
// headings. It is consulted on every write, so a live settings snapshot
// can back it. Without it every note write is parsed.
func WithHeadingNaming(enabled func() bool) Option {
	return func(w *Watcher) {
		w.headings = enabled
	}
}

// New creates a Watcher for the vault. If config is nil, the default
// configuration is used.
func New(v *vault.FS, config *WatchConfig, handler Handler, opts ...Option) *Watcher {
	if config == nil {
		config = DefaultWatchConfig()
	}
	w := &Watcher{
		config:     config,
		vault:      v,
		handler:    handler,
		logger:     logging.Discard(),
		fileFilter: NewFileFilter(config.IgnorePatterns),
		settled:    make(chan string, 64),
		done:       make(chan struct{}),
		dirs:       make(map[string]bool),
		echoes:     make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(config.Debounce, w.enqueueSettled)
	return w
}

// Start begins watching the vault. The handler receives ctx's values but
// never its cancellation: a dispatched event is reconciled to completion
// even after ctx is done. The watch itself runs until Stop.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.addTree(w.vault.Root()); err != nil {
		w.fsWatcher.Close()
		return err
	}

	w.startTime = time.Now()
	w.wg.Add(1)
	go w.processEvents(context.WithoutCancel(ctx))
	return nil
}

// Stop shuts the watcher down, waits for the event in progress and returns
// a summary of the session.
func (w *Watcher) Stop() *WatchSummary {
	w.stopOnce.Do(func() {
		close(w.done)
		w.debouncer.CancelAll()
		w.wg.Wait()
		if w.fsWatcher != nil {
			w.fsWatcher.Close()
		}
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	return &WatchSummary{
		Renamed:   w.renamed,
		Unchanged: w.unchanged,
		Failed:    w.failed,
		Skipped:   w.skipped,
		Duration:  time.Since(w.startTime),
	}
}

// IsRunning returns true if the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	select {
	case <-w.done:
		return false
	default:
		return w.fsWatcher != nil
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(ctx, event)
		case path := <-w.settled:
			w.handleSettled(ctx, path)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleFsEvent(ctx context.Context, event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	rel, err := w.vault.Rel(path)
	if err != nil || rel == "" || isHidden(rel) {
		return
	}

	switch {
	case event.Has(fsnotify.Rename):
		w.lastRename = time.Now()
		w.debouncer.Cancel(path)
		w.forgetTree(path)
	case event.Has(fsnotify.Remove):
		w.debouncer.Cancel(path)
		w.forgetTree(path)
	case event.Has(fsnotify.Create):
		w.handleCreate(ctx, path)
	case event.Has(fsnotify.Write):
		if w.isNote(path) && w.headingNaming() && !w.fileFilter.ShouldIgnore(path) {
			w.debouncer.Add(path)
		}
	}
}

func (w *Watcher) handleCreate(ctx context.Context, path string) {
	info, err := os.Lstat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		if err := w.addTree(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
	}

	if w.consumeEcho(path) {
		return
	}
	if w.fileFilter.ShouldIgnore(path) {
		w.count(rename.Outcome{}, true)
		return
	}

	kind := dispatch.KindCreated
	if !w.lastRename.IsZero() && time.Since(w.lastRename) <= w.config.RenameWindow {
		kind = dispatch.KindRenamed
	}
	w.lastRename = time.Time{}

	entry, err := w.vault.EntryAt(path)
	if err != nil {
		return
	}
	w.dispatch(ctx, dispatch.Event{Kind: kind, Entry: entry})
}

func (w *Watcher) handleSettled(ctx context.Context, path string) {
	if !w.headingNaming() {
		return
	}
	entry, err := w.vault.EntryAt(path)
	if err != nil || entry.IsContainer {
		return
	}
	md, err := title.ReadFile(path)
	if err != nil {
		w.logger.Debug("metadata unavailable", "path", entry.Path, "error", err)
		md = nil
	}
	w.dispatch(ctx, dispatch.Event{Kind: dispatch.KindMetadataChanged, Entry: entry, Metadata: md})
}

func (w *Watcher) dispatch(ctx context.Context, ev dispatch.Event) {
	if w.handler == nil {
		return
	}
	out := w.handler(ctx, ev)
	if out.Renamed() {
		abs, err := w.vault.Abs(out.NewPath)
		if err == nil {
			w.echoes[abs] = time.Now()
		}
	}
	w.count(out, false)
}

// consumeEcho reports whether a Create is the notification for a rename
// the watcher's own handler just applied.
func (w *Watcher) consumeEcho(path string) bool {
	at, ok := w.echoes[path]
	if !ok {
		return false
	}
	delete(w.echoes, path)
	w.lastRename = time.Time{}
	return time.Since(at) <= w.echoWindow()
}

func (w *Watcher) echoWindow() time.Duration {
	window := 10 * w.config.RenameWindow
	if window < time.Second {
		window = time.Second
	}
	return window
}

func (w *Watcher) enqueueSettled(path string) {
	select {
	case w.settled <- path:
	case <-w.done:
	}
}

func (w *Watcher) count(out rename.Outcome, skipped bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case skipped:
		w.skipped++
	case out.Renamed():
		w.renamed++
	case out.Failed():
		w.failed++
	default:
		w.unchanged++
	}
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if w.dirs[path] {
			return nil
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return err
		}
		w.dirs[path] = true
		return nil
	})
}

// forgetTree drops the watches for a directory that was moved or removed.
func (w *Watcher) forgetTree(path string) {
	for dir := range w.dirs {
		if dir == path || strings.HasPrefix(dir, path+string(filepath.Separator)) {
			_ = w.fsWatcher.Remove(dir)
			delete(w.dirs, dir)
		}
	}
}

func (w *Watcher) headingNaming() bool {
	return w.headings == nil || w.headings()
}

func (w *Watcher) isNote(path string) bool {
	ext := w.config.NotesExtension
	if ext == "" {
		ext = ".md"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.EqualFold(filepath.Ext(path), ext)
}

// isHidden reports whether any segment of a vault-relative path starts
// with ".".
func isHidden(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
