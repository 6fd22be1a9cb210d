// Package watcher observes the backend's environment directories for
// changes made outside condanest (a clone run manually, an env deleted in
// a terminal) and fans out debounced change events to subscribers: the web
// event stream and the environment size cache.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// debounceWindow coalesces the event bursts a single clone or remove
// produces into one notification per directory.
const debounceWindow = 2 * time.Second

// Event signals that the contents of an environments directory changed.
type Event struct {
	Dir string
}

// Watcher wraps fsnotify over the backend's envs_dirs.
type Watcher struct {
	fs  *fsnotify.Watcher
	log zerolog.Logger

	mu   sync.Mutex
	subs []chan Event

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Watcher over the given directories. Directories that do
// not exist are skipped with a log entry; at least one must be watchable.
func New(dirs []string, log zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	watched := 0
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			log.Warn().Str("dir", dir).Err(err).Msg("cannot watch directory")
			continue
		}
		watched++
	}
	if watched == 0 {
		fsw.Close()
		return nil, fmt.Errorf("none of the environment directories could be watched")
	}

	return &Watcher{
		fs:     fsw,
		log:    log,
		stopCh: make(chan struct{}),
	}, nil
}

// Subscribe returns a channel receiving debounced change events. The
// channel is buffered; slow consumers drop events rather than block the
// watcher.
func (w *Watcher) Subscribe() <-chan Event {
	ch := make(chan Event, 8)
	w.mu.Lock()
	w.subs = append(w.subs, ch)
	w.mu.Unlock()
	return ch
}

// Start begins watching. Events are debounced per directory before fanout.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Watcher) run() {
	defer w.wg.Done()

	pending := make(map[string]*time.Timer)
	var pendingMu sync.Mutex

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			// Creation or removal of an env directory entry is what we
			// care about; chmod noise is ignored.
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			dir := filepath.Dir(ev.Name)

			pendingMu.Lock()
			if timer, exists := pending[dir]; exists {
				timer.Reset(debounceWindow)
			} else {
				pending[dir] = time.AfterFunc(debounceWindow, func() {
					pendingMu.Lock()
					delete(pending, dir)
					pendingMu.Unlock()
					w.publish(Event{Dir: dir})
				})
			}
			pendingMu.Unlock()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("filesystem watcher error")

		case <-w.stopCh:
			return
		}
	}
}

// publish delivers ev to all subscribers, dropping when a buffer is full.
func (w *Watcher) publish(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subs {
		select {
		case ch <- ev:
		default:
			w.log.Debug().Str("dir", ev.Dir).Msg("dropping change event for slow subscriber")
		}
	}
}

// Stop halts the watcher and closes subscriber channels.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	err := w.fs.Close()
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subs {
		close(ch)
	}
	w.subs = nil
	return err
}
