package compact

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/trail/pkg/memory"
	"github.com/papercomputeco/trail/pkg/tokens"
)

// ErrNoFragments is returned when a merge is asked to combine nothing.
var ErrNoFragments = errors.New("no fragments to merge")

// MergeStrategy combines fragments into one. The merged fragment must carry
// strictly fewer tokens than its inputs combined; the compactor treats a
// non-reducing merge as a failure and stops merging.
type MergeStrategy interface {
	Merge(frags []memory.Fragment, count tokens.Counter, now time.Time) (memory.Fragment, error)
}

const defaultMergeMaxChars = 2000

// LossyMerge is the default strategy: it concatenates fragment texts and
// truncates the result to a hard character cap. Nothing smarter is promised;
// a summarizing strategy can be injected where real summaries matter.
type LossyMerge struct {
	MaxChars int
}

// NewLossyMerge creates a LossyMerge with the default cap.
func NewLossyMerge() *LossyMerge {
	return &LossyMerge{MaxChars: defaultMergeMaxChars}
}

// Merge concatenates the fragment texts oldest-first and truncates to the
// cap. The merged fragment keeps the oldest input's timestamp so age-based
// demotion still sees it as old.
func (s *LossyMerge) Merge(frags []memory.Fragment, count tokens.Counter, _ time.Time) (memory.Fragment, error) {
	if len(frags) == 0 {
		return memory.Fragment{}, ErrNoFragments
	}

	maxChars := s.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMergeMaxChars
	}

	parts := make([]string, len(frags))
	for i, f := range frags {
		parts[i] = strings.TrimSpace(f.Text)
	}
	text := strings.Join(parts, "\n")

	if len(text) > maxChars {
		text = text[:maxChars]
	}

	return memory.Fragment{
		ID:      uuid.NewString(),
		Text:    text,
		AddedAt: frags[0].AddedAt,
	}, nil
}
