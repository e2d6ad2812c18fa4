package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/trail/pkg/budget"
	"github.com/papercomputeco/trail/pkg/compact"
	"github.com/papercomputeco/trail/pkg/memory"
	"github.com/papercomputeco/trail/pkg/session"
	"github.com/papercomputeco/trail/pkg/tokens"
)

const defaultMaxRetries = 3

// RepositoryConfig holds repository dependencies.
type RepositoryConfig struct {
	// Driver is the storage backend. Required.
	Driver Driver

	// TotalTokens is the live budget. Defaults to budget.DefaultTotalTokens.
	TotalTokens int

	// Count is the injected token counter. Defaults to a cached Estimate.
	Count tokens.Counter

	// Merge is the HISTORICAL merge strategy for compaction.
	Merge compact.MergeStrategy

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now is the clock, overridable in tests.
	Now func() time.Time

	// MaxRetries bounds conflict retries in Update (defaults to 3).
	MaxRetries int
}

// Repository layers session operations over a Driver. Every mutation goes
// through Update: read, apply, save with a version check, and retry the
// whole round on conflict so no concurrent write is ever overwritten.
type Repository struct {
	driver     Driver
	compactor  *compact.Compactor
	total      int
	count      tokens.Counter
	logger     *slog.Logger
	now        func() time.Time
	maxRetries int
}

// NewRepository creates a Repository, filling unset config with defaults.
func NewRepository(c RepositoryConfig) *Repository {
	if c.TotalTokens <= 0 {
		c.TotalTokens = budget.DefaultTotalTokens
	}
	if c.Count == nil {
		c.Count = tokens.Cached(tokens.Estimate, 0)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}

	compactor := compact.New(compact.Config{
		TotalTokens: c.TotalTokens,
		Count:       c.Count,
		Merge:       c.Merge,
		Now:         c.Now,
	})

	return &Repository{
		driver:     c.Driver,
		compactor:  compactor,
		total:      c.TotalTokens,
		count:      c.Count,
		logger:     c.Logger,
		now:        c.Now,
		maxRetries: c.MaxRetries,
	}
}

// Driver exposes the underlying storage driver.
func (r *Repository) Driver() Driver {
	return r.driver
}

// TotalTokens returns the configured live budget.
func (r *Repository) TotalTokens() int {
	return r.total
}

// Count returns the injected token counter.
func (r *Repository) Count() tokens.Counter {
	return r.count
}

// Create makes a new backlog session. An empty id gets a generated uuid.
func (r *Repository) Create(ctx context.Context, id, title string) (*session.Record, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	rec := session.New(id, title, r.now())
	if err := r.driver.Create(ctx, rec); err != nil {
		return nil, err
	}

	r.logger.Info("session created", "session_id", id)
	return rec, nil
}

// Get retrieves a record.
func (r *Repository) Get(ctx context.Context, id string) (*session.Record, error) {
	return r.driver.Get(ctx, id)
}

// List returns all records.
func (r *Repository) List(ctx context.Context) ([]*session.Record, error) {
	return r.driver.List(ctx)
}

// Delete removes a session.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.driver.Delete(ctx, id)
}

// Update applies mutate to the current record and saves the result. On a
// version conflict the whole round is retried against the fresh record, up
// to the retry bound; the later writer merges, it never overwrites.
func (r *Repository) Update(ctx context.Context, id string, mutate func(*session.Record) error) (*session.Record, error) {
	var conflict ConflictError

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		rec, err := r.driver.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := mutate(rec); err != nil {
			return nil, err
		}
		rec.Touch(r.now())

		err = r.driver.Save(ctx, rec)
		if err == nil {
			return rec, nil
		}

		if !errors.As(err, &conflict) {
			return nil, err
		}

		r.logger.Debug("write conflict, retrying",
			"session_id", id,
			"attempt", attempt+1,
		)
	}

	return nil, fmt.Errorf("session %s: retries exhausted: %w", id, conflict)
}

// AppendEntity validates and appends a tagged entity envelope.
func (r *Repository) AppendEntity(ctx context.Context, id string, env session.Envelope) (*session.Record, error) {
	return r.Update(ctx, id, func(rec *session.Record) error {
		return env.Apply(rec, r.now())
	})
}

// AppendMemory adds text to the session's RECENT tier.
func (r *Repository) AppendMemory(ctx context.Context, id, text string) (*session.Record, error) {
	return r.Update(ctx, id, func(rec *session.Record) error {
		rec.Memory.Append(text, r.now())
		return nil
	})
}

// SetHead replaces the session's HEAD tier.
func (r *Repository) SetHead(ctx context.Context, id, text string) (*session.Record, error) {
	return r.Update(ctx, id, func(rec *session.Record) error {
		rec.Memory.SetHead(text, r.now())
		return nil
	})
}

// MarkKey promotes a RECENT fragment to KEY_EVIDENCE.
func (r *Repository) MarkKey(ctx context.Context, id, fragmentID string) (*session.Record, error) {
	return r.Update(ctx, id, func(rec *session.Record) error {
		return rec.Memory.MarkKey(fragmentID)
	})
}

// Transition moves the session's lifecycle status.
func (r *Repository) Transition(ctx context.Context, id string, to session.Status) (*session.Record, error) {
	return r.Update(ctx, id, func(rec *session.Record) error {
		_, err := rec.Transition(to, r.now())
		return err
	})
}

// ResolveTension resolves an open tension.
func (r *Repository) ResolveTension(ctx context.Context, id, tensionID, resolution string) (*session.Record, error) {
	return r.Update(ctx, id, func(rec *session.Record) error {
		return rec.ResolveTension(tensionID, resolution, r.now())
	})
}

// Budget assesses current usage without modifying anything.
func (r *Repository) Budget(ctx context.Context, id string) (budget.Snapshot, error) {
	rec, err := r.driver.Get(ctx, id)
	if err != nil {
		return budget.Snapshot{}, err
	}

	return budget.Assess(&rec.Memory, r.total, r.count), nil
}

// Compact runs the compression passes against the session's memory and
// persists the result. A nil tier runs the full pass sequence; a non-nil
// tier scopes the run.
func (r *Repository) Compact(ctx context.Context, id string, tier *memory.Tier) (compact.Result, error) {
	var result compact.Result

	_, err := r.Update(ctx, id, func(rec *session.Record) error {
		if tier != nil {
			result = r.compactor.CompactTier(&rec.Memory, *tier)
		} else {
			result = r.compactor.Compact(&rec.Memory)
		}
		return nil
	})
	if err != nil {
		return compact.Result{}, err
	}

	r.logger.Info("session compacted",
		"session_id", id,
		"trigger", result.Trigger.String(),
		"freed_tokens", result.FreedTokens,
		"still_over", result.Snapshot.StillOver,
	)

	return result, nil
}

// SuggestCompact runs the compression passes against a copy of the session's
// memory and reports what a real run would do, without persisting anything.
func (r *Repository) SuggestCompact(ctx context.Context, id string, tier *memory.Tier) (compact.Result, error) {
	rec, err := r.driver.Get(ctx, id)
	if err != nil {
		return compact.Result{}, err
	}

	scratch := rec.Memory.Clone()
	if tier != nil {
		return r.compactor.CompactTier(&scratch, *tier), nil
	}
	return r.compactor.Compact(&scratch), nil
}

// Fork creates a child session carrying the parent's entities and memory.
func (r *Repository) Fork(ctx context.Context, parentID, childID, title string) (*session.Record, error) {
	parent, err := r.driver.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}

	if childID == "" {
		childID = uuid.NewString()
	}
	if err := ValidateID(childID); err != nil {
		return nil, err
	}

	child := parent.Fork(childID, title, r.now())
	if err := r.driver.Create(ctx, child); err != nil {
		return nil, err
	}

	r.logger.Info("session forked",
		"parent_session_id", parentID,
		"session_id", childID,
	)

	return child, nil
}

// Resume stamps last_resumed and returns the fresh record for projection.
func (r *Repository) Resume(ctx context.Context, id string) (*session.Record, error) {
	return r.Update(ctx, id, func(rec *session.Record) error {
		now := r.now().UTC()
		rec.LastResumed = &now
		return nil
	})
}
