// Package watcher monitors library roots for changes and reports the paths
// that need re-discovery. Events are debounced: a file must stop changing
// for a settle delay before its path is emitted, so half-copied rips are not
// scanned mid-transfer. Watching is best-effort; failures are logged and
// never stop the player.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ariaplayer/aria-core/internal/errors"
	"github.com/ariaplayer/aria-core/internal/logger"
)

// DefaultSettleDelay is how long a file must stay unchanged before its
// change is reported.
const DefaultSettleDelay = 2 * time.Second

// Watcher watches directory trees and emits changed paths.
type Watcher struct {
	log         *logger.Logger
	fs          *fsnotify.Watcher
	settleDelay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingChange

	changes chan string
	done    chan struct{}
	wg      sync.WaitGroup
}

type pendingChange struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// New creates a watcher. A zero settleDelay uses DefaultSettleDelay.
func New(log *logger.Logger, settleDelay time.Duration) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create watcher")
	}
	if settleDelay <= 0 {
		settleDelay = DefaultSettleDelay
	}
	return &Watcher{
		log:         log,
		fs:          fs,
		settleDelay: settleDelay,
		pending:     make(map[string]*pendingChange),
		changes:     make(chan string, 100),
		done:        make(chan struct{}),
	}, nil
}

// Watch recursively adds a directory tree to the watch set.
func (w *Watcher) Watch(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			w.log.Warn("cannot access path", "path", path, "error", err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			w.log.Error("cannot watch directory", "path", path, "error", err)
			return nil
		}
		w.log.Debug("watching", "path", path)
		return nil
	})
}

// Changes returns the channel of settled changed paths.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Start processes events until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.done:
				return
			case event, ok := <-w.fs.Events:
				if !ok {
					return
				}
				w.handle(event)
			case err, ok := <-w.fs.Errors:
				if !ok {
					return
				}
				w.log.WithError(err).Warn("watch error")
			}
		}
	}()
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name

	// New directories join the watch set so nested copies are seen.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.Watch(path); err != nil {
				w.log.WithError(err).Warn("cannot watch new directory", "path", path)
			}
			return
		}
	}

	if event.Op&fsnotify.Remove != 0 {
		w.cancelPending(path)
		w.emit(path)
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
		w.startSettling(path)
	}
}

// startSettling arms (or re-arms) the settle timer for path.
func (w *Watcher) startSettling(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		return
	}
	if info.IsDir() {
		return
	}

	p := &pendingChange{size: info.Size(), modTime: info.ModTime()}
	p.timer = time.AfterFunc(w.settleDelay, func() { w.checkSettled(path) })
	w.pending[path] = p
}

func (w *Watcher) checkSettled(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.pending[path]
	if !ok {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		w.emit(path)
		return
	}

	if info.Size() != p.size || !info.ModTime().Equal(p.modTime) {
		// Still being written; wait another round.
		p.size = info.Size()
		p.modTime = info.ModTime()
		p.timer = time.AfterFunc(w.settleDelay, func() { w.checkSettled(path) })
		return
	}

	delete(w.pending, path)
	w.emit(path)
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) emit(path string) {
	select {
	case w.changes <- path:
	case <-w.done:
	default:
		w.log.Warn("change buffer full, dropping", "path", path)
	}
}

// Stop shuts the watcher down and closes the changes channel.
func (w *Watcher) Stop() error {
	close(w.done)

	w.mu.Lock()
	for _, p := range w.pending {
		p.timer.Stop()
	}
	clear(w.pending)
	w.mu.Unlock()

	err := w.fs.Close()
	w.wg.Wait()
	close(w.changes)
	return err
}
