package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// DefaultDebounce is how long a path must be quiet before it is re-indexed.
const DefaultDebounce = 200 * time.Millisecond

// ChangeType is the kind of change applied to the index.
type ChangeType string

// Change types.
const (
	ChangeIndexed ChangeType = "indexed"
	ChangeRemoved ChangeType = "removed"
)

// Change reports one watcher action.
type Change struct {
	Type       ChangeType
	Path       string
	DocumentID string

	// Err is set when the action failed.
	Err error
}

// Watcher re-indexes files under a directory as they change.
// Create and write events re-index the file after a quiet period;
// remove and rename events drop it.
type Watcher struct {
	syncer   *Syncer
	root     string
	debounce time.Duration

	watcher *fsnotify.Watcher
	changes chan Change

	mu      sync.Mutex
	pending map[string]*pendingSync
	wg      sync.WaitGroup
}

// pendingSync is a debounced re-index waiting to fire.
type pendingSync struct {
	timer *time.Timer
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a changed file is re-indexed.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for root that applies changes through syncer.
func NewWatcher(syncer *Syncer, root string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		syncer:   syncer,
		root:     root,
		debounce: DefaultDebounce,
		changes:  make(chan Change, 64),
		pending:  make(map[string]*pendingSync),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start registers the directory tree and begins handling events until
// ctx is cancelled. The returned channel reports each applied change and
// is closed when the watcher stops. Reports are dropped when nobody reads.
func (w *Watcher) Start(ctx context.Context) (<-chan Change, error) {
	info, err := os.Stat(w.root)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", w.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch %s: not a directory", w.root)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w.watcher = fw

	if err := w.addTree(w.root); err != nil {
		_ = fw.Close()
		return nil, err
	}

	logger.Info("Watching %s", w.root)
	go w.loop(ctx)
	return w.changes, nil
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer func() {
		w.stopTimers()
		_ = w.watcher.Close()
		w.wg.Wait()
		close(w.changes)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	path := event.Name

	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if event.Has(fsnotify.Create) && !strings.HasPrefix(info.Name(), ".") {
				if err := w.addTree(path); err != nil {
					logger.Warn("%v", err)
				}
			}
			return
		}
		if IsSupported(path) {
			w.schedule(ctx, path)
		}

	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.cancel(path)
		removed, err := w.syncer.RemovePath(ctx, path)
		if !removed && err == nil {
			return
		}
		w.emit(Change{Type: ChangeRemoved, Path: path, DocumentID: DocumentID(path), Err: err})
	}
}

// schedule re-indexes path once it has been quiet for the debounce period.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok && p.timer.Stop() {
		p.timer.Reset(w.debounce)
		return
	}

	p := &pendingSync{}
	w.wg.Add(1)
	p.timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		if w.pending[path] == p {
			delete(w.pending, path)
		}
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		result, err := w.syncer.SyncPath(ctx, path)
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		change := Change{Type: ChangeIndexed, Path: path, Err: err}
		if result != nil {
			change.DocumentID = result.DocumentID
		}
		w.emit(change)
	})
	w.pending[path] = p
}

// cancel drops a pending re-index that has not fired yet.
func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pending[path]; ok && p.timer.Stop() {
		delete(w.pending, path)
		w.wg.Done()
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, p := range w.pending {
		if p.timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
}

func (w *Watcher) emit(c Change) {
	if c.Err != nil {
		logger.Warn("Watcher failed to apply %s for %s: %v", c.Type, c.Path, c.Err)
	}
	select {
	case w.changes <- c:
	default:
	}
}
