package engine

import (
	"time"

	"github.com/papercomputeco/trail/pkg/budget"
)

// SessionUpdated is delivered when a settled write batch changed the
// session's observable content. Consumers re-read the record; the event
// intentionally carries no entity data.
type SessionUpdated struct {
	SessionID   string    `json:"session_id"`
	ContentHash string    `json:"content_hash"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BudgetAlert is delivered when a settled write batch moved the session
// into a different threshold band. It is edge-triggered in both directions.
type BudgetAlert struct {
	SessionID  string        `json:"session_id"`
	Status     budget.Status `json:"status"`
	Percentage float64       `json:"percentage"`
	Used       int           `json:"used"`
	Total      int           `json:"total"`
}

const subscriptionBuffer = 16

// Subscription is one consumer's pair of event channels for a watched
// session. Events for a session arrive in write order on each channel; no
// ordering is promised between the two channels.
type Subscription struct {
	updates chan SessionUpdated
	alerts  chan BudgetAlert
}

func newSubscription() *Subscription {
	return &Subscription{
		updates: make(chan SessionUpdated, subscriptionBuffer),
		alerts:  make(chan BudgetAlert, subscriptionBuffer),
	}
}

// Updates delivers content-change events.
func (s *Subscription) Updates() <-chan SessionUpdated {
	return s.updates
}

// Alerts delivers budget threshold-crossing events.
func (s *Subscription) Alerts() <-chan BudgetAlert {
	return s.alerts
}

func (s *Subscription) close() {
	close(s.updates)
	close(s.alerts)
}
