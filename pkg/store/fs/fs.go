// Package fs implements the session store on the local filesystem: one
// directory per session holding a session.json snapshot.
//
// The filesystem is the source of truth on purpose: external writers can
// update a session with plain file writes, and the change watcher observes
// those writes without any coordination channel.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/papercomputeco/trail/pkg/session"
	"github.com/papercomputeco/trail/pkg/store"
)

const (
	// sessionDirPrefix namespaces session directories under the root.
	sessionDirPrefix = "sess_"

	// RecordFile is the snapshot file name inside a session directory.
	RecordFile = "session.json"
)

// Driver stores one directory per session under root. Writes are atomic
// (temp file + rename) so readers never observe a torn record.
type Driver struct {
	root string

	// mu serializes the version check against the write in Save. The check
	// is best-effort across processes; within a process it is exact.
	mu sync.Mutex
}

// NewDriver creates a filesystem driver rooted at root, creating it if
// needed.
func NewDriver(root string) (*Driver, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating session root %s: %w", root, err)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving session root: %w", err)
	}

	return &Driver{root: abs}, nil
}

// SessionDir returns the directory holding a session's files. Watchers point
// fsnotify here.
func (d *Driver) SessionDir(id string) string {
	return filepath.Join(d.root, sessionDirPrefix+id)
}

func (d *Driver) recordPath(id string) string {
	return filepath.Join(d.SessionDir(id), RecordFile)
}

// Create stores a new record.
func (d *Driver) Create(_ context.Context, rec *session.Record) error {
	if err := store.ValidateID(rec.ID); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	dir := d.SessionDir(rec.ID)
	if _, err := os.Stat(d.recordPath(rec.ID)); err == nil {
		return store.ExistsError{ID: rec.ID}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}

	return d.writeAtomic(rec)
}

// Get reads and validates a record.
func (d *Driver) Get(_ context.Context, id string) (*session.Record, error) {
	if err := store.ValidateID(id); err != nil {
		return nil, err
	}
	return d.read(id)
}

// Save persists a record after an optimistic version check, bumping the
// version on success.
func (d *Driver) Save(_ context.Context, rec *session.Record) error {
	if err := store.ValidateID(rec.ID); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stored, err := d.read(rec.ID)
	if err != nil {
		return err
	}

	if stored.Version != rec.Version {
		return store.ConflictError{
			ID:       rec.ID,
			Expected: rec.Version,
			Found:    stored.Version,
		}
	}

	rec.Version++
	if err := d.writeAtomic(rec); err != nil {
		rec.Version--
		return err
	}

	return nil
}

// Delete removes a session directory.
func (d *Driver) Delete(_ context.Context, id string) error {
	if err := store.ValidateID(id); err != nil {
		return err
	}

	dir := d.SessionDir(id)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return store.NotFoundError{ID: id}
	}

	return os.RemoveAll(dir)
}

// List returns every readable record under the root. Directories whose
// snapshot fails to decode are skipped rather than failing the whole listing;
// Get on the specific id still reports the corruption.
func (d *Driver) List(_ context.Context) ([]*session.Record, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("reading session root: %w", err)
	}

	var records []*session.Record
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), sessionDirPrefix) {
			continue
		}

		id := strings.TrimPrefix(entry.Name(), sessionDirPrefix)
		rec, err := d.read(id)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// Close is a no-op for the filesystem driver.
func (d *Driver) Close() error {
	return nil
}

func (d *Driver) read(id string) (*session.Record, error) {
	data, err := os.ReadFile(d.recordPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, store.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("reading session %s: %w", id, err)
	}

	rec := &session.Record{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, store.CorruptRecordError{ID: id, Err: err}
	}

	if err := rec.Validate(); err != nil {
		return nil, store.CorruptRecordError{ID: id, Err: err}
	}

	return rec, nil
}

// writeAtomic writes the full snapshot to a temp file in the session dir and
// renames it into place. Rename within a directory is atomic on POSIX, so a
// concurrent reader sees the old snapshot or the new one, never a mix.
func (d *Driver) writeAtomic(rec *session.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", rec.ID, err)
	}

	dir := d.SessionDir(rec.ID)
	tmp, err := os.CreateTemp(dir, RecordFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing session %s: %w", rec.ID, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("syncing session %s: %w", rec.ID, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), d.recordPath(rec.ID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publishing session %s: %w", rec.ID, err)
	}

	return nil
}
