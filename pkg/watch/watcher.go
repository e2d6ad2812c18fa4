// Package watch turns raw filesystem events over session directories into
// debounced settle notifications. A settle carries only the session id; it
// is the consumer's job to re-read the durable record, which by construction
// is a complete snapshot, never an intermediate state.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned when watching through a closed watcher.
var ErrClosed = errors.New("watcher closed")

const settledBuffer = 64

// Config holds watcher options.
type Config struct {
	// Window is the debounce window (defaults to DefaultWindow).
	Window time.Duration

	// Filter selects which event paths count as changes. Nil accepts all.
	Filter func(name string) bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Watcher multiplexes per-session fsnotify watchers into one settled-id
// channel.
type Watcher struct {
	window time.Duration
	filter func(string) bool
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[string]*subscription
	closed bool

	settled chan string
}

type subscription struct {
	id  string
	fsw *fsnotify.Watcher
	deb *Debouncer

	// stop is closed by Unwatch. stopped also covers the setup window
	// before fsw exists, so an Unwatch racing Watch leaves no goroutine or
	// fd behind.
	stop    chan struct{}
	stopped bool
}

// New creates a Watcher.
func New(c Config) *Watcher {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	return &Watcher{
		window:  c.Window,
		filter:  c.Filter,
		logger:  c.Logger,
		subs:    make(map[string]*subscription),
		settled: make(chan string, settledBuffer),
	}
}

// Settled delivers session ids whose directories have settled after a batch
// of writes.
func (w *Watcher) Settled() <-chan string {
	return w.settled
}

// Watch starts watching a session directory. Watching an already-watched
// session is a no-op.
func (w *Watcher) Watch(sessionID, dir string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if _, ok := w.subs[sessionID]; ok {
		w.mu.Unlock()
		return nil
	}

	sub := &subscription{
		id:   sessionID,
		deb:  NewDebouncer(w.window),
		stop: make(chan struct{}),
	}
	w.subs[sessionID] = sub
	w.mu.Unlock()

	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		err = fsw.Add(dir)
	}
	if err != nil {
		if fsw != nil {
			fsw.Close()
		}
		w.mu.Lock()
		delete(w.subs, sessionID)
		w.mu.Unlock()
		return fmt.Errorf("watching session %s: %w", sessionID, err)
	}

	w.mu.Lock()
	if sub.stopped {
		// Unwatch arrived while the fsnotify setup was in flight.
		w.mu.Unlock()
		fsw.Close()
		return nil
	}
	sub.fsw = fsw
	w.mu.Unlock()

	go w.run(sub)

	w.logger.Debug("watching session", "session_id", sessionID, "dir", dir)
	return nil
}

// Unwatch stops watching a session. Safe to call for sessions that are not
// watched and for watches whose setup has not finished yet.
func (w *Watcher) Unwatch(sessionID string) {
	w.mu.Lock()
	sub, ok := w.subs[sessionID]
	if !ok {
		w.mu.Unlock()
		return
	}
	delete(w.subs, sessionID)
	sub.stopped = true
	fsw := sub.fsw
	close(sub.stop)
	w.mu.Unlock()

	if fsw != nil {
		fsw.Close()
	}
	sub.deb.Stop()

	w.logger.Debug("unwatched session", "session_id", sessionID)
}

// Close stops all watches. The settled channel is left open; no further ids
// will be delivered.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	ids := make([]string, 0, len(w.subs))
	for id := range w.subs {
		ids = append(ids, id)
	}
	w.mu.Unlock()

	for _, id := range ids {
		w.Unwatch(id)
	}
}

func (w *Watcher) run(sub *subscription) {
	for {
		select {
		case ev, ok := <-sub.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			sub.deb.Observe()

		case err, ok := <-sub.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "session_id", sub.id, "error", err)

		case <-sub.deb.Settled():
			select {
			case w.settled <- sub.id:
			case <-sub.stop:
				return
			}

		case <-sub.stop:
			return
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	if w.filter != nil && !w.filter(ev.Name) {
		return false
	}
	return true
}
