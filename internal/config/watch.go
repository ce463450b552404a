package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher reloads a Resolver's merged configuration whenever any of its
// backing files change on disk. Active provider streams are not affected by
// a reload: they hold their own captured config snapshot from when they
// started.
type Watcher struct {
	resolver *Resolver
	fsw      *fsnotify.Watcher
	mu       sync.Mutex
	watching map[string]bool
	stop     chan struct{}
}

// NewWatcher wraps resolver with an fsnotify-backed reload loop. Call
// Start to begin watching resolver's currently-resolved file set.
func NewWatcher(resolver *Resolver) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{resolver: resolver, fsw: fsw, watching: make(map[string]bool), stop: make(chan struct{})}, nil
}

// Start resolves the configuration once to discover its backing files, adds
// directory watches for each (fsnotify watches directories, not individual
// files, so edits-via-rename from editors are still caught), and invokes
// onChange with the freshly re-resolved configuration whenever any watched
// file changes.
func (w *Watcher) Start(onChange func(*Partial, error)) error {
	_, paths, err := w.resolver.Resolve()
	if err != nil {
		return err
	}
	w.syncWatchedDirs(paths)

	go func() {
		for {
			select {
			case <-w.stop:
				return
			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				merged, paths, err := w.resolver.Resolve()
				if err == nil {
					w.syncWatchedDirs(paths)
				}
				onChange(merged, err)
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("config: watch error")
			}
		}
	}()
	return nil
}

func (w *Watcher) syncWatchedDirs(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range paths {
		dir := filepath.Dir(p)
		if w.watching[dir] {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("config: failed to watch directory")
			continue
		}
		w.watching[dir] = true
	}
}

// Close stops the watch loop and releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	close(w.stop)
	return w.fsw.Close()
}
