package host

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/phanxgames/lumen"
)

// reloadDelay coalesces the burst of events editors emit for one save.
const reloadDelay = 100 * time.Millisecond

// PresetWatcher reloads a preset file whenever it changes on disk. The
// latest successfully parsed book is handed to the tick goroutine through
// Poll; files that fail to parse are logged and ignored.
type PresetWatcher struct {
	path    string
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending *lumen.PresetBook

	done chan struct{}
	wg   sync.WaitGroup
}

// WatchPresets loads path once and starts watching it. The initial book is
// available from the first Poll.
func WatchPresets(path string) (*PresetWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch presets: %w", err)
	}
	book, err := lumen.LoadPresetsFile(abs)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch presets: %w", err)
	}
	// Watch the directory: editors often replace the file by rename, which
	// drops a watch on the file itself.
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch presets: %w", err)
	}
	w := &PresetWatcher{path: abs, watcher: fw, pending: book, done: make(chan struct{})}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Poll returns the most recently reloaded book, if one arrived since the
// last call.
func (w *PresetWatcher) Poll() (*lumen.PresetBook, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b := w.pending
	w.pending = nil
	return b, b != nil
}

// Close stops watching.
func (w *PresetWatcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *PresetWatcher) loop() {
	defer w.wg.Done()
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			lumen.Logger().Warn("preset watcher", "error", err)
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *PresetWatcher) reload() {
	book, err := lumen.LoadPresetsFile(w.path)
	if err != nil {
		lumen.Logger().Warn("preset reload failed", "path", w.path, "error", err)
		return
	}
	w.mu.Lock()
	w.pending = book
	w.mu.Unlock()
	lumen.Logger().Info("presets reloaded", "path", w.path, "count", book.Len())
}
