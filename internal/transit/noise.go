package transit

import (
	"math"
	"math/rand/v2"
)

// Noise holds the three additive noise components at one instant.
type Noise struct {
	Stellar      float64
	Instrumental float64
	Systematic   float64
}

// Sum returns the total noise offset.
func (n Noise) Sum() float64 {
	return n.Stellar + n.Instrumental + n.Systematic
}

// NoiseAt returns the noise terms at time t days. rng is only consulted when
// InstrumentalNoise is nonzero and may be nil otherwise.
func NoiseAt(t float64, p Params, rng *rand.Rand) Noise {
	n := Noise{
		Stellar:    p.StellarNoise * math.Sin(0.1*t) * 0.5,
		Systematic: 0.1 * p.InstrumentalNoise * math.Sin(0.01*t),
	}
	if p.InstrumentalNoise != 0 {
		n.Instrumental = p.InstrumentalNoise * (rng.Float64() - 0.5)
	}
	return n
}

// Sample is one point of a light curve.
type Sample struct {
	Time  float64 `json:"time"`
	Flux  float64 `json:"flux"`
	Phase float64 `json:"phase"`
}

// Observe returns a noisy observed sample at time t days.
func Observe(t float64, p Params, rng *rand.Rand) Sample {
	phase := PhaseAt(t, p.OrbitalPeriod)
	return Sample{
		Time:  t,
		Flux:  FluxAtPhase(phase, p) + NoiseAt(t, p, rng).Sum(),
		Phase: phase,
	}
}

// NewRand returns a deterministic generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
