// Package risk turns a classifier's churn probability into a named risk tier.
package risk

// Tier is the bucketed churn risk.
type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// Tier boundaries: [0, MediumThreshold) Low, [MediumThreshold, HighThreshold) Medium, the rest High.
const (
	MediumThreshold = 0.30
	HighThreshold   = 0.70
)

// TierFor buckets a churn probability.
func TierFor(p float64) Tier {
	switch {
	case p >= HighThreshold:
		return TierHigh
	case p >= MediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// Advice is the one-line retention guidance shown with the tier banner.
func (t Tier) Advice() string {
	switch t {
	case TierHigh:
		return "HIGH CHURN RISK! Immediate action required. Offer a long-term contract discount or dedicated support."
	case TierMedium:
		return "Customer is at risk. Consider offering a small discount or free service upgrade."
	default:
		return "Customer is safe. Keep engaging them with standard offers."
	}
}
