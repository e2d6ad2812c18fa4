// Package memory implements the tiered working memory attached to a session
// record: HEAD, KEY_EVIDENCE, RECENT, HISTORICAL and ARCHIVED tiers of
// immutable text fragments, with token accounting over the live tiers.
package memory

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/trail/pkg/tokens"
)

// ErrFragmentNotFound is returned when a fragment id does not exist in the
// tier it was addressed in.
var ErrFragmentNotFound = errors.New("fragment not found")

// Fragment is one immutable piece of remembered text. Fragments move between
// tiers whole; their text never changes after creation (merges create new
// fragments).
type Fragment struct {
	ID      string    `json:"id"`
	Text    string    `json:"text"`
	AddedAt time.Time `json:"added_at"`
}

// NewFragment creates a fragment with a fresh id.
func NewFragment(text string, now time.Time) Fragment {
	return Fragment{
		ID:      uuid.NewString(),
		Text:    text,
		AddedAt: now.UTC(),
	}
}

// TieredMemory holds a session's working memory. Every fragment lives in
// exactly one tier. The zero value is a valid empty memory.
//
// ForceCompactedAt records the last force-compaction and is cleared by any
// write, so a repeated force pass with no new data is a no-op.
type TieredMemory struct {
	Head        []Fragment `json:"head"`
	KeyEvidence []Fragment `json:"key_evidence"`
	Recent      []Fragment `json:"recent"`
	Historical  []Fragment `json:"historical"`
	Archived    []Fragment `json:"archived"`

	ForceCompactedAt *time.Time `json:"force_compacted_at,omitempty"`
}

// tier returns a pointer to the backing slice for t.
func (m *TieredMemory) tier(t Tier) *[]Fragment {
	switch t {
	case TierHead:
		return &m.Head
	case TierKeyEvidence:
		return &m.KeyEvidence
	case TierRecent:
		return &m.Recent
	case TierHistorical:
		return &m.Historical
	default:
		return &m.Archived
	}
}

// Fragments returns the fragments of a tier, oldest first.
func (m *TieredMemory) Fragments(t Tier) []Fragment {
	return *m.tier(t)
}

// Append adds new text to RECENT and returns the created fragment.
func (m *TieredMemory) Append(text string, now time.Time) Fragment {
	f := NewFragment(text, now)
	m.Recent = append(m.Recent, f)
	m.ForceCompactedAt = nil
	return f
}

// SetHead replaces HEAD wholesale with a single fragment holding the current
// understanding. HEAD is small and rewritten, never appended to.
func (m *TieredMemory) SetHead(text string, now time.Time) Fragment {
	f := NewFragment(text, now)
	m.Head = []Fragment{f}
	m.ForceCompactedAt = nil
	return f
}

// MarkKey promotes a RECENT fragment into KEY_EVIDENCE.
func (m *TieredMemory) MarkKey(fragmentID string) error {
	for i, f := range m.Recent {
		if f.ID == fragmentID {
			m.Recent = append(m.Recent[:i], m.Recent[i+1:]...)
			m.KeyEvidence = append(m.KeyEvidence, f)
			m.ForceCompactedAt = nil
			return nil
		}
	}
	return ErrFragmentNotFound
}

// TierTokens sums token counts for a single tier.
func (m *TieredMemory) TierTokens(t Tier, count tokens.Counter) int {
	total := 0
	for _, f := range *m.tier(t) {
		total += count(f.Text)
	}
	return total
}

// LiveTokens sums token counts across all live tiers. ARCHIVED is excluded
// unconditionally: archived fragments have zero live cost.
func (m *TieredMemory) LiveTokens(count tokens.Counter) int {
	total := 0
	for _, t := range Tiers {
		if t.Live() {
			total += m.TierTokens(t, count)
		}
	}
	return total
}

// FragmentCount returns the number of fragments in a tier.
func (m *TieredMemory) FragmentCount(t Tier) int {
	return len(*m.tier(t))
}

// Clone returns a deep copy. Fragment values are immutable so copying the
// slices is enough.
func (m *TieredMemory) Clone() TieredMemory {
	out := TieredMemory{}
	out.Head = append([]Fragment(nil), m.Head...)
	out.KeyEvidence = append([]Fragment(nil), m.KeyEvidence...)
	out.Recent = append([]Fragment(nil), m.Recent...)
	out.Historical = append([]Fragment(nil), m.Historical...)
	out.Archived = append([]Fragment(nil), m.Archived...)
	if m.ForceCompactedAt != nil {
		ts := *m.ForceCompactedAt
		out.ForceCompactedAt = &ts
	}
	return out
}
