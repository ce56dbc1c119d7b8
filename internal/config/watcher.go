package config

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 1500 * time.Millisecond

// Watcher watches a file or a directory and hands a freshly loaded value to
// its handlers once changes settle. For a directory, entries that appear,
// disappear or are renamed count as changes too.
type Watcher[T any] struct {
	path     string
	debounce time.Duration
	loader   func(path string) (T, error)
	ops      fsnotify.Op
	filter   func(name string) bool
	onError  func(error)
	logger   *slog.Logger

	mu       sync.RWMutex
	handlers map[int]func(T)
	nextID   int

	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption[T any] func(*Watcher[T])

// WithDebounce sets how long changes must be quiet before a reload.
// Default is 1500ms.
func WithDebounce[T any](d time.Duration) WatcherOption[T] {
	return func(w *Watcher[T]) {
		w.debounce = d
	}
}

// WithErrorHandler sets a callback for load errors. Without one, errors are
// only logged.
func WithErrorHandler[T any](handler func(error)) WatcherOption[T] {
	return func(w *Watcher[T]) {
		w.onError = handler
	}
}

// WithFilter ignores events whose file name fails keep.
func WithFilter[T any](keep func(name string) bool) WatcherOption[T] {
	return func(w *Watcher[T]) {
		w.filter = keep
	}
}

// NewConfigWatcher creates a new typed watcher for path.
// The loader function is called fresh on every change.
func NewConfigWatcher[T any](
	path string,
	loader func(path string) (T, error),
	logger *slog.Logger,
	opts ...WatcherOption[T],
) *Watcher[T] {
	w := &Watcher[T]{
		path:     path,
		debounce: defaultDebounce,
		loader:   loader,
		ops:      fsnotify.Write | fsnotify.Create,
		logger:   logger,
		handlers: make(map[int]func(T)),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// OnReload registers a handler and returns a function that removes it.
func (w *Watcher[T]) OnReload(handler func(T)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.handlers[id] = handler
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.handlers, id)
		w.mu.Unlock()
	}
}

// Start begins watching. The path must exist.
func (w *Watcher[T]) Start() error {
	info, err := os.Stat(w.path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		w.ops |= fsnotify.Remove | fsnotify.Rename
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if addErr := watcher.Add(w.path); addErr != nil {
		watcher.Close()
		return addErr
	}
	w.watcher = watcher

	w.logger.Info("Watcher started", "path", w.path, "dir", info.IsDir(), "debounce", w.debounce)
	w.wg.Add(1)
	go w.watch()
	return nil
}

// Stop stops watching and waits for a reload in progress to finish. It is
// safe to call more than once.
func (w *Watcher[T]) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		if w.watcher != nil {
			err = w.watcher.Close()
		}
		w.wg.Wait()
	})
	return err
}

func (w *Watcher[T]) relevant(ev fsnotify.Event) bool {
	if ev.Op&w.ops == 0 {
		return false
	}
	return w.filter == nil || w.filter(ev.Name)
}

func (w *Watcher[T]) watch() {
	defer w.wg.Done()

	// The timer only runs while changes are pending.
	settle := time.NewTimer(w.debounce)
	settle.Stop()
	defer settle.Stop()
	pending := 0

	for {
		select {
		case <-w.done:
			w.logger.Debug("Watcher stopped", "path", w.path)
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Editors that replace the file show up as Create.
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("Change detected", "name", ev.Name, "op", ev.Op.String())
			pending++
			settle.Reset(w.debounce)

		case <-settle.C:
			w.logger.Info("Changes settled, reloading", "path", w.path, "events", pending)
			pending = 0
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", "path", w.path, "error", err)
		}
	}
}

// reload loads the value and gives every handler the same snapshot.
func (w *Watcher[T]) reload() {
	value, err := w.loader(w.path)
	if err != nil {
		w.logger.Warn("Reload failed", "path", w.path, "error", err)
		if w.onError != nil {
			w.onError(err)
		}
		return
	}

	w.mu.RLock()
	handlers := make([]func(T), 0, len(w.handlers))
	for _, h := range w.handlers {
		handlers = append(handlers, h)
	}
	w.mu.RUnlock()

	for _, h := range handlers {
		h(value)
	}
}
