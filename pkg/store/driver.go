// Package store defines persistence for session records: the Driver
// interface, the error taxonomy, and a Repository that layers record
// operations with optimistic-concurrency retries on top of a Driver.
package store

import (
	"context"

	"github.com/papercomputeco/trail/pkg/session"
)

// Driver persists session records. Saves are full-snapshot and atomic: a
// concurrent reader sees either the previous record or the new one, never a
// torn write.
type Driver interface {
	// Create stores a new record. Returns ExistsError if the id is taken.
	Create(ctx context.Context, rec *session.Record) error

	// Get retrieves a record by id. Returns NotFoundError if absent and
	// CorruptRecordError if the stored bytes fail to decode or validate.
	Get(ctx context.Context, id string) (*session.Record, error)

	// Save persists a record. The record's Version must match the stored
	// version or ConflictError is returned; on success the stored version
	// (and rec.Version) is incremented.
	Save(ctx context.Context, rec *session.Record) error

	// Delete removes a record. Returns NotFoundError if absent.
	Delete(ctx context.Context, id string) error

	// List returns all records, unordered.
	List(ctx context.Context) ([]*session.Record, error)

	// Close releases driver resources.
	Close() error
}
