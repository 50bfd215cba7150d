package main

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// APKWatcher monitors a drop folder and offers newly appearing APKs for
// installation. Dropping a file in the folder does not install anything
// by itself; the frontend gets an "apk-dropped" event and asks the user.
type APKWatcher struct {
	app     *App
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	mu      sync.Mutex

	// settle timers per path, so a large APK still being copied is only
	// announced once the writes stop
	pending   map[string]*time.Timer
	pendingMu sync.Mutex
}

// NewAPKWatcher creates a new drop folder watcher
func NewAPKWatcher(app *App) *APKWatcher {
	return &APKWatcher{
		app:     app,
		stopCh:  make(chan struct{}),
		pending: make(map[string]*time.Timer),
	}
}

// isAPKFile reports whether a path looks like an installable package
func isAPKFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".apk" || ext == ".apex"
}

// Start begins watching the configured drop folder
func (w *APKWatcher) Start(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.app.mcpMode || dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}
	stopCh := make(chan struct{})
	w.watcher = watcher
	w.stopCh = stopCh

	LogInfo("apk_watcher").Str("path", dir).Msg("Watching APK drop folder")

	go w.watch(watcher, stopCh)
	return nil
}

// Stop stops watching
func (w *APKWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		close(w.stopCh)
		w.watcher.Close()
		w.watcher = nil
		LogInfo("apk_watcher").Msg("Stopped watching APK drop folder")
	}
}

func (w *APKWatcher) watch(watcher *fsnotify.Watcher, stopCh <-chan struct{}) {
	for {
		select {
		case <-stopCh:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isAPKFile(event.Name) {
				continue
			}
			switch {
			case event.Op&fsnotify.Create == fsnotify.Create,
				event.Op&fsnotify.Write == fsnotify.Write:
				w.scheduleAnnounce(event.Name)
			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				w.cancelAnnounce(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			LogWarn("apk_watcher").Err(err).Msg("Watcher error")
		}
	}
}

// scheduleAnnounce (re)arms the settle timer for a path. Each write
// pushes the announcement back until the file has been quiet for a
// second.
func (w *APKWatcher) scheduleAnnounce(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(1*time.Second, func() {
		w.pendingMu.Lock()
		delete(w.pending, path)
		w.pendingMu.Unlock()
		w.announce(path)
	})
}

func (w *APKWatcher) cancelAnnounce(path string) {
	w.pendingMu.Lock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
	w.pendingMu.Unlock()
}

func (w *APKWatcher) announce(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	LogInfo("apk_watcher").Str("path", path).Int64("size", info.Size()).Msg("New APK in drop folder")

	w.app.emit("apk-dropped", map[string]interface{}{
		"path": path,
		"name": filepath.Base(path),
		"size": info.Size(),
	})
}

// ========================================
// App wiring
// ========================================

func (a *App) startAPKWatcher() {
	dir := a.GetWatchDir()
	if dir == "" {
		return
	}
	if a.apkWatcher == nil {
		a.apkWatcher = NewAPKWatcher(a)
	}
	if err := a.apkWatcher.Start(dir); err != nil {
		LogWarn("apk_watcher").Err(err).Str("path", dir).Msg("Failed to start watcher")
	}
}

func (a *App) stopAPKWatcher() {
	if a.apkWatcher != nil {
		a.apkWatcher.Stop()
	}
}
