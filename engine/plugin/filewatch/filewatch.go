// Package filewatch emits event.FileEdit whenever a file below the watched roots is created or
// written. Bursts of writes to one path are collapsed into a single event.
package filewatch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/cubensis-go/common"
	"github.com/Carmen-Shannon/cubensis-go/engine/event"
	"github.com/Carmen-Shannon/cubensis-go/engine/plugin"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change to a path before it is reported.
const DefaultDebounce = 500 * time.Millisecond

// watcher is the implementation of the Watcher interface.
type watcher struct {
	mu *sync.Mutex

	roots    []string
	debounce time.Duration

	fs      *fsnotify.Watcher
	sink    event.Sink
	pending map[string]*time.Timer
	dirs    map[string]bool

	done chan struct{}
	wg   sync.WaitGroup
}

// Watcher watches directory trees recursively. Directories created after Start are watched too.
type Watcher interface {
	plugin.Plugin

	// Dirs returns the directories currently watched, sorted.
	Dirs() []string
}

var _ Watcher = &watcher{}

// NewWatcher creates a watcher for the given roots. Nothing is watched until Start.
//
// Parameters:
//   - roots: the directories to watch recursively
//   - options: functional options to configure the watcher
//
// Returns:
//   - Watcher: the watcher plugin
func NewWatcher(roots []string, options ...WatcherBuilderOption) Watcher {
	w := &watcher{
		mu:       &sync.Mutex{},
		roots:    slices.Clone(roots),
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
		dirs:     make(map[string]bool),
	}
	for _, option := range options {
		option(w)
	}
	return w
}

func (w *watcher) Name() string {
	return "file watcher"
}

func (w *watcher) Start(ctx context.Context, sink event.Sink) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fs != nil {
		return errors.New("file watcher already started")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	w.fs = fw
	w.sink = sink
	w.done = make(chan struct{})

	for _, root := range w.roots {
		if err := w.addTreeLocked(root); err != nil {
			fw.Close()
			w.fs = nil
			return err
		}
	}
	log.Printf("[Watcher] watching %d director(ies) under %v", len(w.dirs), w.roots)

	w.wg.Add(1)
	go w.run(ctx, fw, w.done)
	return nil
}

// run forwards fsnotify events until ctx is cancelled or the watcher is shut down.
func (w *watcher) run(ctx context.Context, fw *fsnotify.Watcher, done chan struct{}) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			log.Printf("[Watcher] %v", err)
		}
	}
}

func (w *watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.mu.Lock()
			if w.fs != nil {
				if err := w.addTreeLocked(ev.Name); err != nil {
					log.Printf("[Watcher] %v", err)
				}
			}
			w.mu.Unlock()
			return
		}
	}
	w.schedule(ev.Name)
}

// schedule (re)starts the debounce timer of path.
func (w *watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sink == nil {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		sink := w.sink
		w.mu.Unlock()
		if sink == nil {
			return
		}
		common.Debugf("[Watcher] detected change to %s", path)
		sink.Push(event.FileEdit{Path: path})
	})
}

// addTreeLocked watches dir and every directory below it. The caller holds w.mu.
func (w *watcher) addTreeLocked(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			log.Printf("[Watcher] skipping %s: %v", path, err)
			return nil
		}
		if !d.IsDir() || w.dirs[path] {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		w.dirs[path] = true
		return nil
	})
}

func (w *watcher) HandleEvent(event.App) {}

func (w *watcher) Dirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	dirs := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		dirs = append(dirs, d)
	}
	slices.Sort(dirs)
	return dirs
}

func (w *watcher) Shutdown() error {
	w.mu.Lock()
	fw := w.fs
	if fw == nil {
		w.mu.Unlock()
		return nil
	}
	w.fs = nil
	w.sink = nil
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	close(w.done)
	w.mu.Unlock()

	err := fw.Close()
	w.wg.Wait()
	return err
}
