package promptgen

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// StoreWatcher watches a filesystem-backed store for document changes
// and invalidates the engine's resolution cache once writes settle.
// Events are debounced so rapid editor saves trigger one invalidation.
type StoreWatcher struct {
	engine   *Engine
	root     string
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
	stats   WatcherStats
	running bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// WatcherStats tracks watcher activity.
type WatcherStats struct {
	Events        int
	Invalidations int
	LastPath      string
}

// NewStoreWatcher creates a watcher for the engine's store. The store
// must be filesystem-backed; other backends have no file events to
// watch. A non-positive debounce falls back to the default.
func NewStoreWatcher(engine *Engine, debounce time.Duration, logger *zap.Logger) (*StoreWatcher, error) {
	fsStore, ok := engine.Store().(*FilesystemStore)
	if !ok {
		return nil, &StoreError{Message: ErrMsgStoreNotWatchable}
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &StoreWatcher{
		engine:   engine,
		root:     fsStore.Root(),
		watcher:  watcher,
		logger:   logger,
		debounce: debounce,
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching the store root and its subdirectories. It is
// non-blocking; events are handled in a background goroutine until
// Close is called.
func (w *StoreWatcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// fsnotify watches are not recursive, so every existing directory
	// gets its own watch. Directories created later are added on their
	// create events.
	err := filepath.WalkDir(w.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(p)
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.logger.Info(LogMsgWatcherStarted, zap.String(LogFieldPath, w.root))
	go w.run()
	return nil
}

// Close stops the watcher and waits for the event loop to drain.
func (w *StoreWatcher) Close() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	err := w.watcher.Close()
	w.logger.Info(LogMsgWatcherStopped, zap.String(LogFieldPath, w.root))
	return err
}

// Stats returns a snapshot of watcher activity.
func (w *StoreWatcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *StoreWatcher) run() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(LogMsgWatchEvent, zap.Error(err))

		case <-ticker.C:
			w.flushSettled()
		}
	}
}

// handleEvent records one filesystem event for debounced processing.
func (w *StoreWatcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// New subdirectories need their own watch to keep coverage recursive.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.watcher.Add(event.Name)
			return
		}
	}
	if !isDocumentFile(event.Name) {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.stats.Events++
	w.stats.LastPath = event.Name
	w.mu.Unlock()
}

// flushSettled invalidates cached resolutions for files whose events
// settled past the debounce window.
func (w *StoreWatcher) flushSettled() {
	now := time.Now()

	w.mu.Lock()
	var settled []string
	for p, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			settled = append(settled, p)
			delete(w.pending, p)
		}
	}
	w.mu.Unlock()

	for _, p := range settled {
		rel, err := filepath.Rel(w.root, p)
		if err != nil {
			continue
		}
		docPath := filepath.ToSlash(rel)
		removed := w.engine.Invalidate(docPath)

		w.mu.Lock()
		w.stats.Invalidations++
		w.mu.Unlock()

		w.logger.Debug(LogMsgWatchEvent,
			zap.String(LogFieldPath, docPath),
			zap.Int(LogFieldCount, removed))
	}
}

// isDocumentFile reports whether a path looks like a store document.
func isDocumentFile(p string) bool {
	return strings.HasSuffix(p, PoolFileExtension) || strings.HasSuffix(p, PoolFileExtensionAlt)
}
