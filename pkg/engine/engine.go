// Package engine wires the pieces together: it watches session directories,
// re-reads settled records, fans out change and budget events to
// subscribers, publishes settle events, and schedules compaction on the
// worker pool so the write path never waits on compression.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/trail/pkg/budget"
	"github.com/papercomputeco/trail/pkg/eventstream"
	"github.com/papercomputeco/trail/pkg/eventstream/nop"
	"github.com/papercomputeco/trail/pkg/store"
	"github.com/papercomputeco/trail/pkg/store/archive"
	"github.com/papercomputeco/trail/pkg/store/fs"
	"github.com/papercomputeco/trail/pkg/watch"
	"github.com/papercomputeco/trail/pkg/worker"
)

// DirResolver maps a session id to the directory its snapshot lives in.
// The filesystem store driver is the canonical implementation.
type DirResolver interface {
	SessionDir(id string) string
}

// Config holds engine dependencies.
type Config struct {
	// Repo is the session repository. Required.
	Repo *store.Repository

	// Dirs resolves session directories for watching. Required.
	Dirs DirResolver

	// Window is the watcher debounce window (defaults to watch.DefaultWindow).
	Window time.Duration

	// Publisher receives settle events (defaults to the nop publisher).
	Publisher eventstream.Publisher

	// Archive, when set, is fed newly archived fragments after compaction.
	Archive *archive.Index

	// NumWorkers and QueueSize size the background pool.
	NumWorkers uint
	QueueSize  uint

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

type sessionState struct {
	lastHash    string
	lastAlerted budget.Status
	subs        []*Subscription
}

// Engine composes repository, watcher, accountant, worker pool and
// eventstream into the live view of sessions.
type Engine struct {
	repo    *store.Repository
	dirs    DirResolver
	watcher *watch.Watcher
	pool    *worker.Pool
	pub     eventstream.Publisher
	archive *archive.Index
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*sessionState

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates and starts an Engine.
func New(c Config) (*Engine, error) {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Publisher == nil {
		c.Publisher = nop.NewPublisher()
	}

	pool, err := worker.NewPool(worker.Config{
		NumWorkers: c.NumWorkers,
		QueueSize:  c.QueueSize,
		Logger:     c.Logger,
	})
	if err != nil {
		return nil, err
	}

	watcher := watch.New(watch.Config{
		Window: c.Window,
		Logger: c.Logger,
		// Snapshot writes land as temp files renamed over the record file;
		// both spellings count as activity in the batch.
		Filter: func(name string) bool {
			return strings.HasPrefix(filepath.Base(name), fs.RecordFile)
		},
	})

	e := &Engine{
		repo:     c.Repo,
		dirs:     c.Dirs,
		watcher:  watcher,
		pool:     pool,
		pub:      c.Publisher,
		archive:  c.Archive,
		logger:   c.Logger,
		sessions: make(map[string]*sessionState),
		done:     make(chan struct{}),
	}

	e.wg.Add(1)
	go e.loop()

	return e, nil
}

// Watch subscribes to a session's events, starting the directory watch if
// this is the session's first subscriber. Fails fast for unknown sessions.
func (e *Engine) Watch(ctx context.Context, sessionID string) (*Subscription, error) {
	rec, err := e.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sub := newSubscription()

	e.mu.Lock()
	st, ok := e.sessions[sessionID]
	if !ok {
		st = &sessionState{
			lastHash: rec.ContentHash(),
			// Seeded at normal so the first alert fires on the first
			// departure from normal, not on the first settle.
			lastAlerted: budget.StatusNormal,
		}
		e.sessions[sessionID] = st
	}
	st.subs = append(st.subs, sub)
	e.mu.Unlock()

	if err := e.watcher.Watch(sessionID, e.dirs.SessionDir(sessionID)); err != nil {
		e.Unsubscribe(sessionID, sub)
		return nil, err
	}

	return sub, nil
}

// Unsubscribe removes one subscription, tearing the directory watch down
// with the last subscriber. Safe to call twice.
func (e *Engine) Unsubscribe(sessionID string, sub *Subscription) {
	e.mu.Lock()
	st, ok := e.sessions[sessionID]
	if !ok {
		e.mu.Unlock()
		return
	}

	found := false
	for i, s := range st.subs {
		if s == sub {
			st.subs = append(st.subs[:i], st.subs[i+1:]...)
			found = true
			break
		}
	}

	if found {
		sub.close()
	}

	last := len(st.subs) == 0
	if last {
		delete(e.sessions, sessionID)
	}
	e.mu.Unlock()

	if last {
		e.watcher.Unwatch(sessionID)
	}
}

// Unwatch removes every subscription for a session.
func (e *Engine) Unwatch(sessionID string) {
	e.mu.Lock()
	st, ok := e.sessions[sessionID]
	if !ok {
		e.mu.Unlock()
		return
	}
	for _, sub := range st.subs {
		sub.close()
	}
	st.subs = nil
	delete(e.sessions, sessionID)
	e.mu.Unlock()

	e.watcher.Unwatch(sessionID)
}

// Close stops the engine: watcher first so no new settles arrive, then the
// pool so in-flight compactions drain.
func (e *Engine) Close() {
	e.watcher.Close()
	close(e.done)
	e.wg.Wait()
	e.pool.Close()

	if err := e.pub.Close(); err != nil {
		e.logger.Warn("closing publisher", "error", err)
	}

	e.mu.Lock()
	for id, st := range e.sessions {
		for _, sub := range st.subs {
			sub.close()
		}
		delete(e.sessions, id)
	}
	e.mu.Unlock()
}

func (e *Engine) loop() {
	defer e.wg.Done()

	for {
		select {
		case id := <-e.watcher.Settled():
			e.handleSettle(id)
		case <-e.done:
			return
		}
	}
}

// handleSettle re-reads a settled record and fans out what changed.
func (e *Engine) handleSettle(sessionID string) {
	ctx := context.Background()

	rec, err := e.repo.Get(ctx, sessionID)
	if err != nil {
		var notFound store.NotFoundError
		if errors.As(err, &notFound) {
			// The record is gone. Tear the watch down and close subscriber
			// channels so consumers see the stream end.
			e.logger.Info("watched session deleted", "session_id", sessionID)
			e.Unwatch(sessionID)
			return
		}

		// Corrupt mid-watch; subscribers keep their channels, the next
		// good settle resumes delivery.
		e.logger.Warn("settled record unreadable", "session_id", sessionID, "error", err)
		return
	}

	hash := rec.ContentHash()
	snap := budget.Assess(&rec.Memory, e.repo.TotalTokens(), e.repo.Count())

	e.mu.Lock()
	st, ok := e.sessions[sessionID]
	if !ok {
		e.mu.Unlock()
		return
	}

	changed := hash != st.lastHash
	if changed {
		st.lastHash = hash
	}

	crossed := snap.Status != st.lastAlerted
	if crossed {
		st.lastAlerted = snap.Status
	}

	// Fan out under the lock. Sends never block and Unsubscribe closes
	// channels under the same lock, so a send can never hit a closed channel.
	if changed {
		ev := SessionUpdated{
			SessionID:   sessionID,
			ContentHash: hash,
			UpdatedAt:   rec.UpdatedAt,
		}
		for _, sub := range st.subs {
			select {
			case sub.updates <- ev:
			default:
				e.logger.Warn("update event dropped, subscriber lagging", "session_id", sessionID)
			}
		}
	}

	if crossed {
		ev := BudgetAlert{
			SessionID:  sessionID,
			Status:     snap.Status,
			Percentage: snap.Percentage,
			Used:       snap.Used,
			Total:      snap.Total,
		}
		for _, sub := range st.subs {
			select {
			case sub.alerts <- ev:
			default:
				e.logger.Warn("budget alert dropped, subscriber lagging", "session_id", sessionID)
			}
		}
	}
	e.mu.Unlock()

	e.publishSettled(ctx, sessionID, hash, changed, snap)

	// Only a batch that changed content schedules compaction. A settle whose
	// content is unchanged (including a compaction round that freed nothing)
	// must not reschedule, or a session stuck over budget would compact in a
	// loop.
	if changed && snap.Status >= budget.StatusAutoCompress {
		e.scheduleCompact(sessionID)
	}
}

func (e *Engine) publishSettled(ctx context.Context, sessionID, hash string, changed bool, snap budget.Snapshot) {
	event := &eventstream.SessionSettledEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeSessionSettled,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		SessionID:     sessionID,
		ContentHash:   hash,
		Changed:       changed,
		Budget:        snap,
	}

	if err := e.pub.PublishSettled(ctx, event); err != nil {
		e.logger.Warn("settle event publish failed", "session_id", sessionID, "error", err)
	}
}

// scheduleCompact queues a compaction as follow-up work. The settled write
// has already committed; the writer is never blocked on this.
func (e *Engine) scheduleCompact(sessionID string) {
	e.pool.Enqueue(worker.Job{
		Name:      "compact",
		SessionID: sessionID,
		Run: func(ctx context.Context) error {
			result, err := e.repo.Compact(ctx, sessionID, nil)
			if err != nil {
				return err
			}

			if e.archive != nil && len(result.NewlyArchived) > 0 {
				if err := e.archive.Insert(ctx, sessionID, result.NewlyArchived, time.Now().UTC()); err != nil {
					return err
				}
			}

			return nil
		},
	})
}
