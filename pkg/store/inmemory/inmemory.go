// Package inmemory implements the session store in process memory. Used by
// tests and as a scratch backend when durability doesn't matter.
package inmemory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/papercomputeco/trail/pkg/session"
	"github.com/papercomputeco/trail/pkg/store"
)

// Driver implements store.Driver using a map guarded by a RWMutex. Records
// are deep-copied on the way in and out so callers never share state with
// the store.
type Driver struct {
	mu      sync.RWMutex
	records map[string]*session.Record
}

// NewDriver creates an empty in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		records: make(map[string]*session.Record),
	}
}

// Create stores a new record.
func (d *Driver) Create(_ context.Context, rec *session.Record) error {
	if err := store.ValidateID(rec.ID); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.records[rec.ID]; ok {
		return store.ExistsError{ID: rec.ID}
	}

	d.records[rec.ID] = deepCopy(rec)
	return nil
}

// Get retrieves a record by id.
func (d *Driver) Get(_ context.Context, id string) (*session.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.records[id]
	if !ok {
		return nil, store.NotFoundError{ID: id}
	}

	return deepCopy(rec), nil
}

// Save persists a record after an optimistic version check.
func (d *Driver) Save(_ context.Context, rec *session.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	stored, ok := d.records[rec.ID]
	if !ok {
		return store.NotFoundError{ID: rec.ID}
	}

	if stored.Version != rec.Version {
		return store.ConflictError{
			ID:       rec.ID,
			Expected: rec.Version,
			Found:    stored.Version,
		}
	}

	rec.Version++
	d.records[rec.ID] = deepCopy(rec)
	return nil
}

// Delete removes a record.
func (d *Driver) Delete(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.records[id]; !ok {
		return store.NotFoundError{ID: id}
	}

	delete(d.records, id)
	return nil
}

// List returns all records.
func (d *Driver) List(_ context.Context) ([]*session.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	records := make([]*session.Record, 0, len(d.records))
	for _, rec := range d.records {
		records = append(records, deepCopy(rec))
	}

	return records, nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}

// deepCopy clones a record through its JSON form. Records are snapshots, so
// fidelity to the wire encoding is exactly what we want.
func deepCopy(rec *session.Record) *session.Record {
	data, err := json.Marshal(rec)
	if err != nil {
		return rec
	}

	out := &session.Record{}
	if err := json.Unmarshal(data, out); err != nil {
		return rec
	}

	return out
}
