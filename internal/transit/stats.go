package transit

import "math"

// DepthFraction returns (Rp/Rs)^2.
func DepthFraction(p Params) float64 {
	k := p.PlanetRadius / p.StarRadius
	return k * k
}

// DepthPercent returns the transit depth as a percentage.
func DepthPercent(p Params) float64 {
	return DepthFraction(p) * 100
}

// DepthPPM returns the transit depth in parts per million.
func DepthPPM(p Params) float64 {
	return DepthFraction(p) * 1e6
}

// ImpactParameter returns a·cos(i)/Rs.
func ImpactParameter(p Params) float64 {
	return p.SemiMajorAxis * math.Cos(p.InclinationDeg*math.Pi/180) / p.StarRadius
}

// DurationHours approximates the transit duration. It returns NaN when the
// impact parameter exceeds 1 and the planet never crosses the disk.
func DurationHours(p Params) float64 {
	b := math.Abs(ImpactParameter(p))
	if b > 1 {
		return math.NaN()
	}
	aOverR := p.SemiMajorAxis / p.StarRadius
	if aOverR == 0 {
		return math.NaN()
	}
	return p.OrbitalPeriod * 24 * math.Sqrt(1-b*b) / (math.Pi * aOverR)
}

// SNR returns depth over combined noise. It is NaN when both noise terms are zero.
func SNR(p Params) float64 {
	sigma := math.Hypot(p.StellarNoise, p.InstrumentalNoise)
	if sigma == 0 {
		return math.NaN()
	}
	return DepthFraction(p) / sigma
}

// DidacticDepthPercent is the depth of a planet of radiusEarth around a Sun-like star.
func DidacticDepthPercent(radiusEarth float64) float64 {
	k := radiusEarth / EarthRadiiPerSolarRadius
	return k * k * 100
}

// Stats bundles the derived display statistics.
type Stats struct {
	DepthPercent    float64 `json:"depthPercent"`
	DurationHours   float64 `json:"durationHours"`
	SNR             float64 `json:"snr"`
	ImpactParameter float64 `json:"impactParameter"`
	SemiMajorAxis   float64 `json:"semiMajorAxis"`
}

// Summarize computes every statistic for p.
func Summarize(p Params) Stats {
	return Stats{
		DepthPercent:    DepthPercent(p),
		DurationHours:   DurationHours(p),
		SNR:             SNR(p),
		ImpactParameter: ImpactParameter(p),
		SemiMajorAxis:   p.SemiMajorAxis,
	}
}
