// Package budget implements the token accountant: live usage over a tiered
// memory, percentage against the configured total, and the threshold status
// that drives compaction and alerts.
package budget

import (
	"fmt"

	"github.com/papercomputeco/trail/pkg/memory"
	"github.com/papercomputeco/trail/pkg/tokens"
)

// Threshold bounds, inclusive at the lower edge. There is no hysteresis: the
// status is a pure function of the current percentage.
const (
	ThresholdAutoCompress  = 0.70
	ThresholdWarnUser      = 0.85
	ThresholdForceCompress = 0.95
)

// DefaultTotalTokens is the default live budget, the sum of the live tier
// targets (500 + 1500 + 3000 + 1000).
const DefaultTotalTokens = 6000

// Status is the threshold band the current usage falls in.
type Status int

const (
	StatusNormal Status = iota
	StatusAutoCompress
	StatusWarnUser
	StatusForceCompress
)

func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusAutoCompress:
		return "auto_compress"
	case StatusWarnUser:
		return "warn_user"
	case StatusForceCompress:
		return "force_compress"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as its snake_case name.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a snake_case status name.
func (s *Status) UnmarshalJSON(data []byte) error {
	for _, candidate := range []Status{StatusNormal, StatusAutoCompress, StatusWarnUser, StatusForceCompress} {
		if string(data) == `"`+candidate.String()+`"` {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown budget status %s", data)
}

// StatusFor maps a usage fraction to its threshold band.
func StatusFor(fraction float64) Status {
	switch {
	case fraction >= ThresholdForceCompress:
		return StatusForceCompress
	case fraction >= ThresholdWarnUser:
		return StatusWarnUser
	case fraction >= ThresholdAutoCompress:
		return StatusAutoCompress
	default:
		return StatusNormal
	}
}

// Snapshot is a point-in-time view of budget usage.
type Snapshot struct {
	Used       int     `json:"used"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Status     Status  `json:"status"`

	// ForceCompressed marks a snapshot produced by a compaction that had to
	// take the force path. StillOver marks a compaction that could not bring
	// usage back under its triggering threshold.
	ForceCompressed bool `json:"force_compressed,omitempty"`
	StillOver       bool `json:"still_over,omitempty"`
}

// Assess computes the current snapshot for a memory against a total budget.
// Usage always reflects what is actually stored in the live tiers, even when
// a single tier has blown past its own target.
func Assess(mem *memory.TieredMemory, total int, count tokens.Counter) Snapshot {
	used := mem.LiveTokens(count)

	fraction := 0.0
	if total > 0 {
		fraction = float64(used) / float64(total)
	}

	return Snapshot{
		Used:       used,
		Total:      total,
		Percentage: fraction,
		Status:     StatusFor(fraction),
	}
}
