// Package watcher reports template and static file changes in development.
package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// OnChange is called once per burst of changes with the last file touched.
type OnChange func(path string)

// Watcher monitors directory trees for edits to view files.
type Watcher struct {
	callback OnChange
	delay    time.Duration
	watcher  *fsnotify.Watcher
	logger   *log.Logger

	mu      sync.Mutex
	watched map[string]bool
	timer   *time.Timer
	stop    chan struct{}
	once    sync.Once
}

func New(cb OnChange, delay time.Duration, logger *log.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		callback: cb,
		delay:    delay,
		watcher:  fw,
		logger:   logger,
		watched:  make(map[string]bool),
		stop:     make(chan struct{}),
	}, nil
}

// Add watches root and every directory below it.
func (w *Watcher) Add(root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return err
		}
		w.watched[path] = true
		return nil
	})
}

func (w *Watcher) Start() {
	go w.eventLoop()
	w.mu.Lock()
	n := len(w.watched)
	w.mu.Unlock()
	w.logger.Info("file watcher started", "dirs", n)
}

func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stop)
		w.watcher.Close()
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "err", err)
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	base := filepath.Base(event.Name)
	if hidden(base) || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".tmp") {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// new directories join the watch list
			if err := w.Add(event.Name); err != nil {
				w.logger.Warn("failed to watch directory", "path", event.Name, "err", err)
			}
			return
		}
	}
	if !isViewFile(filepath.Ext(base)) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	name := event.Name
	w.timer = time.AfterFunc(w.delay, func() {
		select {
		case <-w.stop:
		default:
			w.logger.Debug("files changed", "path", name)
			w.callback(name)
		}
	})
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isViewFile(ext string) bool {
	switch strings.ToLower(ext) {
	case ".html", ".css", ".js", ".svg", ".png", ".jpg", ".webp":
		return true
	}
	return false
}
