package transit

import (
	"math"
	"math/rand/v2"
)

// CurvePoints is the default full-curve resolution.
const CurvePoints = 1000

// offsets yields n phase offsets evenly covering [-0.5, 0.5].
func offsets(n int) []float64 {
	if n < 2 {
		n = 2
	}
	out := make([]float64, n)
	for k := range out {
		out[k] = -0.5 + float64(k)/float64(n-1)
	}
	return out
}

// TheoreticalCurve returns n noise-free samples centred on the transit.
// Time is the offset from mid-transit in days.
func TheoreticalCurve(p Params, n int) []Sample {
	offs := offsets(n)
	out := make([]Sample, len(offs))
	for k, off := range offs {
		phase := math.Mod(0.5+off, 1)
		out[k] = Sample{Time: off * p.OrbitalPeriod, Flux: FluxAtPhase(phase, p), Phase: phase}
	}
	return out
}

// ObservedCurve returns TheoreticalCurve with noise applied at each sample time.
func ObservedCurve(p Params, n int, rng *rand.Rand) []Sample {
	out := TheoreticalCurve(p, n)
	for k := range out {
		out[k].Flux += NoiseAt(out[k].Time, p, rng).Sum()
	}
	return out
}

// MinFlux returns the lowest flux in samples, or 1 when empty.
func MinFlux(samples []Sample) float64 {
	if len(samples) == 0 {
		return 1
	}
	m := samples[0].Flux
	for _, s := range samples[1:] {
		if s.Flux < m {
			m = s.Flux
		}
	}
	return m
}
