package enums

type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// AllTiers is the fixed priority order used when a search widens
// beyond the user's own tier.
var AllTiers = []Tier{TierHigh, TierMedium, TierLow}
