package server

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before changed files are reported.
const DefaultDebounce = 300 * time.Millisecond

// FileEvent represents a change to one file.
type FileEvent struct {
	Path string
	Op   string
	Time time.Time
}

// WatcherConfig holds file watcher configuration.
type WatcherConfig struct {
	Paths      []string                // Paths to watch (files or directories)
	Ignore     []string                // Glob patterns to ignore
	Extensions []string                // Only report files with these extensions; empty reports all
	Delay      time.Duration           // Debounce delay (0 = DefaultDebounce)
	OnChange   func(events []FileEvent) // Called with the files changed during one quiet period
	Debug      bool                    // Enable debug logging
}

// Watcher watches files for changes and reports them in debounced batches.
type Watcher struct {
	config    WatcherConfig
	fsWatcher *fsnotify.Watcher
	debouncer *debouncer
	mu        sync.Mutex
	running   bool
	done      chan struct{}
	debugLog  func(format string, args ...any)
}

// NewWatcher creates a new file watcher.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("at least one path is required")
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		config:    cfg,
		fsWatcher: fsWatcher,
		done:      make(chan struct{}),
	}

	// Setup debug logger
	if cfg.Debug {
		w.debugLog = func(format string, args ...any) {
			log.Printf("[WATCHER] "+format, args...)
		}
	} else {
		w.debugLog = func(format string, args ...any) {}
	}

	w.debouncer = newDebouncer(cfg.Delay, func(events []FileEvent) {
		if cfg.OnChange != nil {
			cfg.OnChange(events)
		}
	})

	return w, nil
}

// Start starts watching the configured paths.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	for _, path := range w.config.Paths {
		if err := w.addPath(path); err != nil {
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			w.fsWatcher.Close()
			return fmt.Errorf("failed to add watch path %s: %w", path, err)
		}
	}

	go w.eventLoop()

	return nil
}

// Stop stops the file watcher. A batch already being reported finishes
// first; changes still waiting for their quiet period are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	w.debouncer.stop()

	if err := w.fsWatcher.Close(); err != nil {
		return err
	}

	// Wait for event loop to finish
	<-w.done

	return nil
}

// addPath adds a path (file or directory) to the watcher.
// For directories, recursively adds all subdirectories.
func (w *Watcher) addPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return filepath.Walk(absPath, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// The root was named explicitly; only its descendants are filtered.
			if path != absPath && w.shouldIgnore(path) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Only watch directories (fsnotify watches files in those directories)
			if info.IsDir() {
				if err := w.fsWatcher.Add(path); err != nil {
					return err
				}
				w.debugLog("Watching directory: %s", path)
			}

			return nil
		})
	}

	// Single file - watch its directory
	dir := filepath.Dir(absPath)
	if err := w.fsWatcher.Add(dir); err != nil {
		return err
	}
	w.debugLog("Watching file: %s (via directory: %s)", absPath, dir)

	return nil
}

// shouldIgnore checks if a path should be ignored based on glob patterns.
func (w *Watcher) shouldIgnore(path string) bool {
	// Always ignore hidden files (files starting with .)
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}

	// Editor swap and backup files
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return true
	}

	pathParts := strings.Split(filepath.Clean(path), string(filepath.Separator))
	for _, part := range pathParts {
		if part == "node_modules" || part == "vendor" {
			return true
		}
	}

	for _, pattern := range w.config.Ignore {
		matched, err := filepath.Match(pattern, base)
		if err == nil && matched {
			return true
		}

		// Also try matching the full path
		matched, err = filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}

	return false
}

// wants reports whether changes to path are reported.
func (w *Watcher) wants(path string) bool {
	if len(w.config.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.config.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// eventLoop processes file system events.
func (w *Watcher) eventLoop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if w.shouldIgnore(event.Name) {
				continue
			}

			w.debugLog("Event: %s %s", event.Op, event.Name)

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}

			// New directories are watched too
			if info.IsDir() {
				if event.Has(fsnotify.Create) {
					if err := w.addPath(event.Name); err != nil {
						w.debugLog("Failed to add new directory: %v", err)
					}
				}
				continue
			}

			if !w.wants(event.Name) {
				continue
			}

			w.debouncer.trigger(FileEvent{
				Path: event.Name,
				Op:   event.Op.String(),
				Time: time.Now(),
			})

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.debugLog("Watcher error: %v", err)
		}
	}
}

// debouncer collects events until none has arrived for delay, then reports
// the latest event per path in one batch.
type debouncer struct {
	delay    time.Duration
	callback func(events []FileEvent)
	timer    *time.Timer
	pending  map[string]FileEvent
	stopped  bool
	mu       sync.Mutex
	cbMu     sync.Mutex // Held while callback runs
}

// newDebouncer creates a new debouncer.
func newDebouncer(delay time.Duration, callback func(events []FileEvent)) *debouncer {
	return &debouncer{
		delay:    delay,
		callback: callback,
		pending:  make(map[string]FileEvent),
	}
}

// trigger records an event, resetting the delay timer.
func (d *debouncer) trigger(ev FileEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending[ev.Path] = ev

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *debouncer) fire() {
	d.mu.Lock()
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	events := make([]FileEvent, 0, len(d.pending))
	for _, ev := range d.pending {
		events = append(events, ev)
	}
	d.pending = make(map[string]FileEvent)
	d.mu.Unlock()

	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })

	d.cbMu.Lock()
	defer d.cbMu.Unlock()
	if d.isStopped() {
		return
	}
	d.callback(events)
}

func (d *debouncer) isStopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped
}

// stop cancels pending events and waits for a running callback.
func (d *debouncer) stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.mu.Unlock()

	d.cbMu.Lock()
	d.cbMu.Unlock()
}
