// Package eventstream defines transport-neutral events emitted when a
// session settles, plus the Publisher interface backends implement.
package eventstream

import (
	"time"

	"github.com/papercomputeco/trail/pkg/budget"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeSessionSettled is emitted after a settled write batch has
	// been observed and re-read.
	EventTypeSessionSettled = "trail.session.settled"
)

// SessionSettledEvent is the payload published for every settled write
// batch on a watched session.
type SessionSettledEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	SessionID   string          `json:"session_id"`
	ContentHash string          `json:"content_hash"`
	Changed     bool            `json:"changed"`
	Budget      budget.Snapshot `json:"budget"`
}
