// Package compact implements the ordered compression passes over a tiered
// memory: exact-text dedupe, age-based demotion, per-tier budget enforcement,
// and the force path for memories that blow past the hard threshold.
//
// The compactor only ever moves or merges fragments between tiers. It never
// deletes remembered text: the coldest destination is ARCHIVED, which costs
// nothing against the live budget but remains on the record.
package compact

import (
	"time"

	"github.com/papercomputeco/trail/pkg/budget"
	"github.com/papercomputeco/trail/pkg/memory"
	"github.com/papercomputeco/trail/pkg/tokens"
)

const (
	// DemoteAfter is the age at which RECENT fragments move to HISTORICAL.
	DemoteAfter = 7 * 24 * time.Hour

	// ArchiveAfter is the age at which HISTORICAL fragments move to ARCHIVED.
	ArchiveAfter = 30 * 24 * time.Hour
)

// Result reports what a compaction run did.
type Result struct {
	Trigger  budget.Status   `json:"trigger"`
	Snapshot budget.Snapshot `json:"snapshot"`

	Deduped       int `json:"deduped"`
	Demoted       int `json:"demoted"`
	Evicted       int `json:"evicted"`
	Merged        int `json:"merged"`
	Archived      int `json:"archived"`
	ForceArchived int `json:"force_archived"`
	FreedTokens   int `json:"freed_tokens"`

	// NewlyArchived carries the fragments that moved into ARCHIVED during
	// this run so callers can feed the archive index.
	NewlyArchived []memory.Fragment `json:"-"`
}

// Config holds compactor dependencies.
type Config struct {
	// TotalTokens is the live budget. Defaults to budget.DefaultTotalTokens.
	TotalTokens int

	// Count is the injected token counter. Defaults to tokens.Estimate.
	Count tokens.Counter

	// Merge combines HISTORICAL fragments when the tier is over budget.
	// Defaults to LossyMerge.
	Merge MergeStrategy

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

// Compactor runs the compression passes. Safe for reuse across sessions; it
// holds no per-memory state.
type Compactor struct {
	total int
	count tokens.Counter
	merge MergeStrategy
	now   func() time.Time
}

// New creates a Compactor, filling unset config fields with defaults.
func New(c Config) *Compactor {
	if c.TotalTokens <= 0 {
		c.TotalTokens = budget.DefaultTotalTokens
	}
	if c.Count == nil {
		c.Count = tokens.Estimate
	}
	if c.Merge == nil {
		c.Merge = NewLossyMerge()
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	return &Compactor{
		total: c.TotalTokens,
		count: c.Count,
		merge: c.Merge,
		now:   c.Now,
	}
}

// Compact runs the passes in order against mem, mutating it in place.
// Each pass runs at most once. After every pass usage is re-assessed and the
// run stops early once the status falls below the band that triggered it.
//
// A second run with no intervening writes changes nothing: every pass settles
// to a fixed point, and the force pass consults the memory's force marker so
// it will not re-archive an already force-compacted memory.
func (c *Compactor) Compact(mem *memory.TieredMemory) Result {
	return c.run(mem, nil)
}

// CompactTier runs a compaction scoped to a single tier: dedupe and budget
// enforcement apply only to that tier, and the force path never runs.
func (c *Compactor) CompactTier(mem *memory.TieredMemory, tier memory.Tier) Result {
	return c.run(mem, &tier)
}

func (c *Compactor) run(mem *memory.TieredMemory, only *memory.Tier) Result {
	before := budget.Assess(mem, c.total, c.count)

	res := Result{
		Trigger:  before.Status,
		Snapshot: before,
	}

	passes := []func(*memory.TieredMemory, *memory.Tier, *Result){
		c.dedupe,
		c.demoteByAge,
		c.enforceTierBudgets,
	}

	for _, pass := range passes {
		pass(mem, only, &res)
		res.Snapshot = budget.Assess(mem, c.total, c.count)
		if res.Snapshot.Status < res.Trigger {
			break
		}
	}

	if only == nil && res.Trigger == budget.StatusForceCompress &&
		res.Snapshot.Status == budget.StatusForceCompress {
		c.forcePass(mem, &res)
		res.Snapshot = budget.Assess(mem, c.total, c.count)
	}

	res.FreedTokens = before.Used - res.Snapshot.Used
	res.Snapshot.ForceCompressed = res.ForceArchived > 0
	if res.Trigger >= budget.StatusAutoCompress && res.Snapshot.Status >= res.Trigger {
		res.Snapshot.StillOver = true
	}

	return res
}

// dedupe removes exact-text duplicates from KEY_EVIDENCE and RECENT,
// keeping the first occurrence. KEY_EVIDENCE is scanned first so a RECENT
// duplicate of promoted evidence is the one dropped.
func (c *Compactor) dedupe(mem *memory.TieredMemory, only *memory.Tier, res *Result) {
	seen := make(map[string]bool)

	keep := func(frags []memory.Fragment, active bool) []memory.Fragment {
		out := frags[:0]
		for _, f := range frags {
			if seen[f.Text] && active {
				res.Deduped++
				continue
			}
			seen[f.Text] = true
			out = append(out, f)
		}
		return out
	}

	keyActive := only == nil || *only == memory.TierKeyEvidence
	recentActive := only == nil || *only == memory.TierRecent

	if keyActive || recentActive {
		mem.KeyEvidence = keep(mem.KeyEvidence, keyActive)
		mem.Recent = keep(mem.Recent, recentActive)
	}
}

// demoteByAge moves RECENT fragments older than DemoteAfter into HISTORICAL
// and HISTORICAL fragments older than ArchiveAfter into ARCHIVED, preserving
// relative order.
func (c *Compactor) demoteByAge(mem *memory.TieredMemory, only *memory.Tier, res *Result) {
	now := c.now()

	if only == nil || *only == memory.TierRecent {
		var stay []memory.Fragment
		for _, f := range mem.Recent {
			if now.Sub(f.AddedAt) > DemoteAfter {
				mem.Historical = append(mem.Historical, f)
				res.Demoted++
			} else {
				stay = append(stay, f)
			}
		}
		mem.Recent = stay
	}

	if only == nil || *only == memory.TierHistorical {
		var stay []memory.Fragment
		for _, f := range mem.Historical {
			if now.Sub(f.AddedAt) > ArchiveAfter {
				mem.Archived = append(mem.Archived, f)
				res.NewlyArchived = append(res.NewlyArchived, f)
				res.Archived++
			} else {
				stay = append(stay, f)
			}
		}
		mem.Historical = stay
	}
}

// enforceTierBudgets brings KEY_EVIDENCE and HISTORICAL back under their
// targets. KEY_EVIDENCE evicts oldest-first into HISTORICAL; HISTORICAL
// merges its oldest fragments with the configured strategy.
func (c *Compactor) enforceTierBudgets(mem *memory.TieredMemory, only *memory.Tier, res *Result) {
	if only == nil || *only == memory.TierKeyEvidence {
		target := memory.TierKeyEvidence.TargetTokens()
		for len(mem.KeyEvidence) > 0 && mem.TierTokens(memory.TierKeyEvidence, c.count) > target {
			oldest := mem.KeyEvidence[0]
			mem.KeyEvidence = mem.KeyEvidence[1:]
			mem.Historical = append(mem.Historical, oldest)
			res.Evicted++
		}
	}

	if only == nil || *only == memory.TierHistorical {
		c.mergeHistorical(mem, res)
	}
}

// mergeHistorical merges the two oldest HISTORICAL fragments until the tier
// fits its target. Stops if a merge fails to strictly reduce the token count,
// which also guarantees termination.
func (c *Compactor) mergeHistorical(mem *memory.TieredMemory, res *Result) {
	target := memory.TierHistorical.TargetTokens()

	for len(mem.Historical) > 1 && mem.TierTokens(memory.TierHistorical, c.count) > target {
		pair := mem.Historical[:2]
		combined := c.count(pair[0].Text) + c.count(pair[1].Text)

		merged, err := c.merge.Merge(pair, c.count, c.now())
		if err != nil || c.count(merged.Text) >= combined {
			return
		}

		mem.Historical = append([]memory.Fragment{merged}, mem.Historical[2:]...)
		res.Merged++
	}
}

// forcePass archives the oldest half of RECENT. It runs once per batch of new
// data: the memory's force marker suppresses a repeat run until something is
// written again.
func (c *Compactor) forcePass(mem *memory.TieredMemory, res *Result) {
	if mem.ForceCompactedAt != nil {
		return
	}
	if len(mem.Recent) == 0 {
		return
	}

	half := (len(mem.Recent) + 1) / 2
	victims := mem.Recent[:half]
	mem.Recent = append([]memory.Fragment(nil), mem.Recent[half:]...)
	mem.Archived = append(mem.Archived, victims...)
	res.NewlyArchived = append(res.NewlyArchived, victims...)
	res.ForceArchived += len(victims)

	now := c.now()
	mem.ForceCompactedAt = &now
}
