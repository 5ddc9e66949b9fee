package rules

import "github.com/dottenv/dating-bot/internal/domain/enums"

// TierThresholds carries the rating bands for tier classification.
// Thresholds are configuration, not policy baked into code.
type TierThresholds struct {
	High   int
	Medium int
}

func DefaultTierThresholds() TierThresholds {
	return TierThresholds{High: 700, Medium: 300}
}

// ClassifyTier maps a rating to its priority tier. Total over all ints.
func ClassifyTier(rating int, t TierThresholds) enums.Tier {
	switch {
	case rating >= t.High:
		return enums.TierHigh
	case rating >= t.Medium:
		return enums.TierMedium
	default:
		return enums.TierLow
	}
}

// SearchTiers returns the tier scan order for a searching user: tier is
// advisory priority, not a hard filter, so the user's own tier comes
// first and the remaining tiers follow in the fixed high-to-low order.
func SearchTiers(own enums.Tier) []enums.Tier {
	out := make([]enums.Tier, 0, len(enums.AllTiers))
	out = append(out, own)
	for _, tier := range enums.AllTiers {
		if tier != own {
			out = append(out, tier)
		}
	}
	return out
}
