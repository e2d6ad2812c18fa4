package memory

// Tier identifies one of the five working-memory tiers.
type Tier int

const (
	TierHead Tier = iota
	TierKeyEvidence
	TierRecent
	TierHistorical
	TierArchived
)

const (
	headBudget        = 500
	keyEvidenceBudget = 1500
	recentBudget      = 3000
	historicalBudget  = 1000
)

// Tiers lists all tiers in priority order, hottest first.
var Tiers = []Tier{TierHead, TierKeyEvidence, TierRecent, TierHistorical, TierArchived}

func (t Tier) String() string {
	switch t {
	case TierHead:
		return "head"
	case TierKeyEvidence:
		return "key_evidence"
	case TierRecent:
		return "recent"
	case TierHistorical:
		return "historical"
	case TierArchived:
		return "archived"
	default:
		return "unknown"
	}
}

// ParseTier parses a tier name as used in CLI flags and API params.
func ParseTier(s string) (Tier, bool) {
	for _, t := range Tiers {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}

// TargetTokens returns the soft token budget for the tier. ARCHIVED has no
// budget because it never counts toward live usage.
func (t Tier) TargetTokens() int {
	switch t {
	case TierHead:
		return headBudget
	case TierKeyEvidence:
		return keyEvidenceBudget
	case TierRecent:
		return recentBudget
	case TierHistorical:
		return historicalBudget
	default:
		return 0
	}
}

// Live reports whether fragments in the tier count toward the live budget.
func (t Tier) Live() bool {
	return t != TierArchived
}

// AutoLoaded reports whether the tier is always included in full on resume.
func (t Tier) AutoLoaded() bool {
	return t == TierHead || t == TierKeyEvidence
}
