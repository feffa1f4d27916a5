// Package watch implements the optional, CLI-only dev convenience of
// rerunning an indexing pass when the binary directory changes. It is
// not part of the core (spec.md Non-goals exclude real-time file
// watching as a core feature); kept thin, and modeled on the teacher's
// watcher/debouncer shape from lci/internal/indexing/watcher.go.
package watch

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce matches the teacher's default watch debounce window.
const DefaultDebounce = 500 * time.Millisecond

// Watcher recursively watches a directory tree and calls OnChange,
// debounced, whenever any file under it is created, written, or
// removed.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
}

// New creates a Watcher rooted at dir. The caller must call Run to
// start processing events and Close to release the underlying OS
// watch handles.
func New(dir string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{fsw: fsw, debounce: debounce}
	if err := w.addRecursive(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if addErr := w.fsw.Add(path); addErr != nil {
				log.Printf("watch: failed to watch %s: %v", path, addErr)
			}
		}
		return nil
	})
}

// Run blocks, invoking onChange (debounced) for every batch of file
// system events, until stop is closed.
func (w *Watcher) Run(stop <-chan struct{}, onChange func()) {
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.fsw.Add(ev.Name); err != nil {
						log.Printf("watch: failed to watch new directory %s: %v", ev.Name, err)
					}
				}
			}
			w.schedule(onChange)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watch: %v", err)
		}
	}
}

func (w *Watcher) schedule(onChange func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, onChange)
}

// Close releases the underlying OS watch handles.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
