package inventory

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for further changes before
// triggering a reload.
const DefaultDebounce = 500 * time.Millisecond

// Watcher triggers a reload callback when any of a set of files changes.
//
// It watches the parent directories rather than the files themselves so that
// editors replacing a file through rename are still seen. Bursts of events
// are collapsed into one reload.
type Watcher struct {
	files    map[string]bool
	debounce time.Duration
	logger   *log.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for files. A zero debounce selects
// [DefaultDebounce]; a nil logger discards output.
func NewWatcher(files []string, debounce time.Duration, logger *log.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	w := &Watcher{
		files:    make(map[string]bool, len(files)),
		debounce: debounce,
		logger:   logger,
	}
	for _, f := range files {
		if f == "" {
			continue
		}
		if abs, err := filepath.Abs(f); err == nil {
			f = abs
		}
		w.files[filepath.Clean(f)] = true
	}
	return w
}

// Run watches until ctx is done. reload is called once per debounced burst;
// its errors are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context, reload func(context.Context) error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dirs := map[string]bool{}
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return err
		}
		w.logger.Debug("watching", "dir", dir)
	}

	defer w.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("change detected", "file", event.Name, "op", event.Op.String())
			w.schedule(ctx, reload)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	return w.files[filepath.Clean(event.Name)]
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule(ctx context.Context, reload func(context.Context) error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		if err := reload(ctx); err != nil {
			w.logger.Error("reload failed", "error", err)
			return
		}
		w.logger.Info("reloaded")
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
