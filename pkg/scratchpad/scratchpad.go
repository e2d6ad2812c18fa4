// Package scratchpad projects a session record into a token-capped resume
// payload: what a reasoning agent should load to pick the session back up.
// Projection is read-only; it never mutates the record or its memory.
package scratchpad

import (
	"github.com/papercomputeco/trail/pkg/memory"
	"github.com/papercomputeco/trail/pkg/session"
	"github.com/papercomputeco/trail/pkg/tokens"
)

// DefaultCap is the default projection budget when the caller gives none.
const DefaultCap = 2000

// Options tune a projection.
type Options struct {
	// IncludeHistorical expands HISTORICAL fragments in full instead of
	// folding them into the older-count line.
	IncludeHistorical bool
}

// Payload is the projected scratchpad.
type Payload struct {
	SessionID string         `json:"session_id"`
	Title     string         `json:"title,omitempty"`
	Status    session.Status `json:"status"`
	Cycle     int            `json:"cycle"`

	Thesis            *session.Thesis `json:"thesis,omitempty"`
	ConfidenceHistory []float64       `json:"confidence_history"`
	OpenTensions      int             `json:"open_tensions"`

	// Head and KeyEvidence are always present in full; they are the tiers
	// the session cannot be resumed without.
	Head        []string `json:"head"`
	KeyEvidence []string `json:"key_evidence"`

	// Recent holds the newest RECENT fragments that fit the cap, in
	// chronological order. RecentOmitted counts the ones that didn't fit.
	Recent        []string `json:"recent"`
	RecentOmitted int      `json:"recent_omitted"`

	// Historical is filled only when requested. OlderCount counts the
	// fragments summarized away (HISTORICAL and ARCHIVED, or just ARCHIVED
	// when historical is expanded).
	Historical []string `json:"historical,omitempty"`
	OlderCount int      `json:"older_count"`

	UsedTokens int `json:"used_tokens"`
	CapTokens  int `json:"cap_tokens"`
}

// Project builds the resume payload for a record under a token cap.
func Project(rec *session.Record, cap int, count tokens.Counter, opts Options) Payload {
	if cap <= 0 {
		cap = DefaultCap
	}
	if count == nil {
		count = tokens.Estimate
	}

	p := Payload{
		SessionID:         rec.ID,
		Title:             rec.Title,
		Status:            rec.Status,
		Cycle:             rec.Cycle,
		Thesis:            rec.Thesis,
		ConfidenceHistory: rec.ConfidenceHistory,
		Head:              []string{},
		KeyEvidence:       []string{},
		Recent:            []string{},
		CapTokens:         cap,
	}

	for _, t := range rec.Tensions {
		if !t.Resolved() {
			p.OpenTensions++
		}
	}

	used := 0
	for _, f := range rec.Memory.Fragments(memory.TierHead) {
		p.Head = append(p.Head, f.Text)
		used += count(f.Text)
	}
	for _, f := range rec.Memory.Fragments(memory.TierKeyEvidence) {
		p.KeyEvidence = append(p.KeyEvidence, f.Text)
		used += count(f.Text)
	}

	// RECENT fills the remaining budget newest-first, then flips back to
	// chronological order for reading.
	recent := rec.Memory.Fragments(memory.TierRecent)
	remaining := cap - used
	var picked []string
	for i := len(recent) - 1; i >= 0; i-- {
		c := count(recent[i].Text)
		if c > remaining {
			break
		}
		picked = append(picked, recent[i].Text)
		remaining -= c
		used += c
	}
	for i := len(picked) - 1; i >= 0; i-- {
		p.Recent = append(p.Recent, picked[i])
	}
	p.RecentOmitted = len(recent) - len(picked)

	historical := rec.Memory.Fragments(memory.TierHistorical)
	archived := rec.Memory.Fragments(memory.TierArchived)
	if opts.IncludeHistorical {
		for _, f := range historical {
			p.Historical = append(p.Historical, f.Text)
			used += count(f.Text)
		}
		p.OlderCount = len(archived)
	} else {
		p.OlderCount = len(historical) + len(archived)
	}

	p.UsedTokens = used
	return p
}
