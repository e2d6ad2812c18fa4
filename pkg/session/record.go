// Package session defines the durable session record: lifecycle status,
// reasoning entities (claims, tensions, passes, thesis) and the attached
// tiered working memory.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/trail/pkg/memory"
)

// SchemaVersionV1 is the current on-disk record schema version.
const SchemaVersionV1 = 1

// ErrTensionResolved is returned when resolving an already-resolved tension.
var ErrTensionResolved = errors.New("tension already resolved")

// ErrTensionNotFound is returned when a tension id does not exist.
var ErrTensionNotFound = errors.New("tension not found")

// Claim is an assertion made during exploration. Immutable once appended.
type Claim struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Source    string    `json:"source,omitempty"`
	Marker    *string   `json:"marker,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Tension is a contradiction between two claims. Resolution is the only
// in-place entity mutation the record allows.
type Tension struct {
	ID          string    `json:"id"`
	ClaimAID    string    `json:"claim_a_id"`
	ClaimBID    string    `json:"claim_b_id"`
	Description string    `json:"description"`
	Resolution  *string   `json:"resolution,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Resolved reports whether the tension carries a resolution.
func (t Tension) Resolved() bool {
	return t.Resolution != nil
}

// Pass is one append-only log line of work done on the session.
type Pass struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

// Thesis is the session's current synthesized position.
type Thesis struct {
	Content    string    `json:"content"`
	Confidence float64   `json:"confidence"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Record is the full durable state of one reasoning session.
type Record struct {
	SchemaVersion int     `json:"schema_version"`
	ID            string  `json:"id"`
	Title         string  `json:"title,omitempty"`
	Status        Status  `json:"status"`
	ParentID      *string `json:"parent_session_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastResumed *time.Time `json:"last_resumed,omitempty"`

	// Cycle counts completed exploration cycles; a reopen increments it.
	Cycle int `json:"cycle"`

	Claims   []Claim   `json:"claims"`
	Tensions []Tension `json:"tensions"`
	Passes   []Pass    `json:"passes"`
	Thesis   *Thesis   `json:"thesis,omitempty"`

	// ConfidenceHistory records every thesis confidence ever set, in order.
	// It is append-only and deliberately non-monotonic: dips are signal.
	ConfidenceHistory []float64 `json:"confidence_history"`

	Memory memory.TieredMemory `json:"memory"`

	// Version is the optimistic-concurrency counter bumped on every save.
	Version int `json:"version"`
}

// New creates an empty backlog record.
func New(id, title string, now time.Time) *Record {
	now = now.UTC()
	return &Record{
		SchemaVersion:     SchemaVersionV1,
		ID:                id,
		Title:             title,
		Status:            StatusBacklog,
		CreatedAt:         now,
		UpdatedAt:         now,
		Claims:            []Claim{},
		Tensions:          []Tension{},
		Passes:            []Pass{},
		ConfidenceHistory: []float64{},
	}
}

// Touch advances updated_at, never letting it move backwards.
func (r *Record) Touch(now time.Time) {
	now = now.UTC()
	if now.After(r.UpdatedAt) {
		r.UpdatedAt = now
	}
}

// Transition moves the record to a new lifecycle status, logging the move as
// a Pass and as a RECENT fragment. A reopen (formed -> exploring) increments
// the cycle counter.
func (r *Record) Transition(to Status, now time.Time) (Pass, error) {
	if !CanTransition(r.Status, to) {
		return Pass{}, InvalidTransitionError{From: r.Status, To: to}
	}

	reopen := r.Status == StatusFormed && to == StatusExploring

	p := Pass{
		ID:        uuid.NewString(),
		Type:      "transition",
		Summary:   fmt.Sprintf("status %s -> %s", r.Status, to),
		Timestamp: now.UTC(),
	}

	r.Status = to
	if reopen {
		r.Cycle++
	}
	r.Passes = append(r.Passes, p)
	r.Memory.Append(p.Summary, now)
	r.Touch(now)

	return p, nil
}

// AppendClaim adds a claim.
func (r *Record) AppendClaim(content, source string, marker *string, now time.Time) Claim {
	c := Claim{
		ID:        uuid.NewString(),
		Content:   content,
		Source:    source,
		Marker:    marker,
		CreatedAt: now.UTC(),
	}
	r.Claims = append(r.Claims, c)
	r.Touch(now)
	return c
}

// AppendTension adds an open tension between two claims.
func (r *Record) AppendTension(claimA, claimB, description string, now time.Time) Tension {
	t := Tension{
		ID:          uuid.NewString(),
		ClaimAID:    claimA,
		ClaimBID:    claimB,
		Description: description,
		CreatedAt:   now.UTC(),
	}
	r.Tensions = append(r.Tensions, t)
	r.Touch(now)
	return t
}

// ResolveTension sets the resolution on an open tension.
func (r *Record) ResolveTension(tensionID, resolution string, now time.Time) error {
	for i := range r.Tensions {
		if r.Tensions[i].ID != tensionID {
			continue
		}
		if r.Tensions[i].Resolved() {
			return ErrTensionResolved
		}
		r.Tensions[i].Resolution = &resolution
		r.Touch(now)
		return nil
	}
	return ErrTensionNotFound
}

// AppendPass logs a unit of work.
func (r *Record) AppendPass(passType, summary string, now time.Time) Pass {
	p := Pass{
		ID:        uuid.NewString(),
		Type:      passType,
		Summary:   summary,
		Timestamp: now.UTC(),
	}
	r.Passes = append(r.Passes, p)
	r.Touch(now)
	return p
}

// SetThesis replaces the thesis and appends its confidence to the history.
func (r *Record) SetThesis(content string, confidence float64, now time.Time) {
	r.Thesis = &Thesis{
		Content:    content,
		Confidence: confidence,
		UpdatedAt:  now.UTC(),
	}
	r.ConfidenceHistory = append(r.ConfidenceHistory, confidence)
	r.Touch(now)
}

// Fork creates a child record carrying the parent's claims, tensions, thesis
// and memory, with a fresh pass log and cycle counter. The child starts at
// exploring regardless of the parent's status.
func (r *Record) Fork(childID, title string, now time.Time) *Record {
	child := New(childID, title, now)
	parentID := r.ID
	child.ParentID = &parentID
	child.Status = StatusExploring
	child.Claims = append([]Claim(nil), r.Claims...)
	child.Tensions = append([]Tension(nil), r.Tensions...)
	if r.Thesis != nil {
		t := *r.Thesis
		child.Thesis = &t
		child.ConfidenceHistory = append(child.ConfidenceHistory, t.Confidence)
	}
	child.Memory = r.Memory.Clone()
	return child
}

// Validate checks structural integrity after decoding. A record failing
// validation is treated as corrupt by the store.
func (r *Record) Validate() error {
	if r.SchemaVersion != SchemaVersionV1 {
		return fmt.Errorf("unsupported schema version %d", r.SchemaVersion)
	}
	if r.ID == "" {
		return errors.New("missing session id")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("unknown status %q", r.Status)
	}
	return nil
}

// contentView is the subset of a record that constitutes observable content:
// entities plus memory. Bookkeeping fields (version, timestamps) are
// excluded so a rewrite of identical content hashes identically.
type contentView struct {
	Status            Status              `json:"status"`
	Cycle             int                 `json:"cycle"`
	Claims            []Claim             `json:"claims"`
	Tensions          []Tension           `json:"tensions"`
	Passes            []Pass              `json:"passes"`
	Thesis            *Thesis             `json:"thesis"`
	ConfidenceHistory []float64           `json:"confidence_history"`
	Memory            memory.TieredMemory `json:"memory"`
}

// ContentHash returns a stable hash of the record's observable content,
// used to gate change notifications.
func (r *Record) ContentHash() string {
	view := contentView{
		Status:            r.Status,
		Cycle:             r.Cycle,
		Claims:            r.Claims,
		Tensions:          r.Tensions,
		Passes:            r.Passes,
		Thesis:            r.Thesis,
		ConfidenceHistory: r.ConfidenceHistory,
		Memory:            r.Memory,
	}

	data, err := json.Marshal(view)
	if err != nil {
		// Marshal of plain structs cannot fail; keep the signature simple.
		return ""
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
