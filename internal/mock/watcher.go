package mock

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"stubrunner/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for further changes before
// reloading.
const DefaultDebounce = 300 * time.Millisecond

// Watcher calls a reload function when mapping files below a directory
// change. Bursts of events inside the debounce interval cause one reload.
type Watcher struct {
	dir      string
	debounce time.Duration
	reload   func() error

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timer   *time.Timer
	stopCh  chan struct{}
	running bool
}

// NewWatcher creates a stopped watcher for dir.
func NewWatcher(dir string, debounce time.Duration, reload func() error) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{dir: dir, debounce: debounce, reload: reload}
}

// Start begins watching dir and its subdirectories.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	err = filepath.WalkDir(w.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return err
	}

	w.watcher = fsw
	w.stopCh = make(chan struct{})
	w.running = true
	go w.processEvents(fsw, w.stopCh)

	logging.Debug("MappingWatcher", "Watching %s for mapping changes", w.dir)
	return nil
}

// Stop ends watching. Pending reloads are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	close(w.stopCh)
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.watcher.Close()
	w.running = false
}

func (w *Watcher) processEvents(fsw *fsnotify.Watcher, stopCh <-chan struct{}) {
	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logging.Error("MappingWatcher", err, "Filesystem watcher error")
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	// New subdirectories need their own watch.
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fsw.Add(event.Name); err != nil {
				logging.Warn("MappingWatcher", "Failed to watch %s: %v", event.Name, err)
			}
			return
		}
	}
	if !isMappingFile(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.schedule()
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if err := w.reload(); err != nil {
			logging.WarnErr("MappingWatcher", err, "Reload of %s failed, keeping previous mappings", w.dir)
		}
	})
}
