// Package archive maintains a SQLite index of ARCHIVED fragments so cold
// memory stays searchable without ever being loaded into a live tier.
//
// The index is strictly derived data: the session records remain the source
// of truth and the index can be rebuilt from them at any time.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Register the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/trail/pkg/memory"
)

const schema = `
CREATE TABLE IF NOT EXISTS archived_fragments (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	text        TEXT NOT NULL,
	added_at    TIMESTAMP NOT NULL,
	archived_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_archived_fragments_session
	ON archived_fragments (session_id);
`

// Entry is one indexed archived fragment.
type Entry struct {
	FragmentID string    `json:"fragment_id"`
	SessionID  string    `json:"session_id"`
	Text       string    `json:"text"`
	AddedAt    time.Time `json:"added_at"`
	ArchivedAt time.Time `json:"archived_at"`
}

// Index is a SQLite-backed archive index.
type Index struct {
	db *sql.DB
}

// Open opens (and migrates) the index at path.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive index: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating archive index: %w", err)
	}

	return &Index{db: db}, nil
}

// Insert indexes newly archived fragments. Re-indexing the same fragment is
// a no-op so the caller can feed every compaction result without tracking
// what it already sent.
func (i *Index) Insert(ctx context.Context, sessionID string, frags []memory.Fragment, archivedAt time.Time) error {
	if len(frags) == 0 {
		return nil
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting archive insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO archived_fragments
			(id, session_id, text, added_at, archived_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing archive insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range frags {
		if _, err := stmt.ExecContext(ctx, f.ID, sessionID, f.Text, f.AddedAt, archivedAt); err != nil {
			return fmt.Errorf("indexing fragment %s: %w", f.ID, err)
		}
	}

	return tx.Commit()
}

// Search returns archived fragments of a session whose text contains term,
// oldest first.
func (i *Index) Search(ctx context.Context, sessionID, term string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT id, session_id, text, added_at, archived_at
		FROM archived_fragments
		WHERE session_id = ? AND text LIKE ?
		ORDER BY added_at ASC
		LIMIT ?`,
		sessionID, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("searching archive: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.FragmentID, &e.SessionID, &e.Text, &e.AddedAt, &e.ArchivedAt); err != nil {
			return nil, fmt.Errorf("scanning archive entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Count returns the number of indexed fragments for a session.
func (i *Index) Count(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := i.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM archived_fragments WHERE session_id = ?`,
		sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting archive entries: %w", err)
	}

	return n, nil
}

// Close closes the underlying database.
func (i *Index) Close() error {
	return i.db.Close()
}
