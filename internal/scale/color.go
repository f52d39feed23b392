package scale

// Tier is a probability color token.
type Tier int

const (
	TierNeutral Tier = iota
	TierLow
	TierMedium
	TierHigh
)

// Probability thresholds. Each is the inclusive lower bound of the next tier.
const (
	MediumThreshold = 0.4
	HighThreshold   = 0.7
)

// Hex returns the display color for the tier.
func (t Tier) Hex() string {
	switch t {
	case TierLow:
		return "#ef4444"
	case TierMedium:
		return "#3b82f6"
	case TierHigh:
		return "#10b981"
	default:
		return "#6b7280"
	}
}

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "neutral"
	}
}

// ColorForProbability maps a probability to a tier. A nil probability is
// neutral; zero is a real value and maps to low.
func ColorForProbability(p *float64) Tier {
	if p == nil {
		return TierNeutral
	}
	switch {
	case *p < MediumThreshold:
		return TierLow
	case *p < HighThreshold:
		return TierMedium
	default:
		return TierHigh
	}
}
