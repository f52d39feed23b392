package transit

import "math"

// Position is the planet's sky-plane position for a phase. Z > 0 means the
// planet is between the star and the observer.
type Position struct {
	X, Y, Z    float64
	Separation float64 // projected distance from the stellar centre
}

// SkyPosition returns the planet position at phase. Phase 0.5 is mid-transit.
func SkyPosition(phase float64, p Params) Position {
	theta := phase*2*math.Pi - math.Pi/2
	inc := p.InclinationDeg * math.Pi / 180
	a := p.SemiMajorAxis

	x := a * math.Cos(theta)
	y := a * math.Sin(theta) * math.Cos(inc)
	z := a * math.Sin(theta) * math.Sin(inc)
	return Position{X: x, Y: y, Z: z, Separation: math.Hypot(x, y)}
}

// FluxAtPhase returns the relative stellar flux in [0,1] at phase.
// It is exactly 1 whenever the planet is behind the star or clear of its disk.
func FluxAtPhase(phase float64, p Params) float64 {
	pos := SkyPosition(phase, p)
	rs, rp, d := p.StarRadius, p.PlanetRadius, pos.Separation

	if pos.Z <= 0 || d >= rs+rp || rp == 0 {
		return 1.0
	}

	var loss float64
	if d < rs-rp {
		k := rp / rs
		loss = k * k * limbFactor(d/rs, p.LimbDarkening)
	} else {
		frac := overlapArea(rs, rp, d) / (math.Pi * rs * rs)
		loss = frac * limbFactor(math.Min(d/rs, 1), p.LimbDarkening)
	}
	return math.Max(0, 1-loss)
}

// limbFactor is the linear limb-darkening weight at normalised radius mu.
func limbFactor(mu, u float64) float64 {
	return 1 - u*(1-math.Sqrt(1-mu*mu))
}

// overlapArea returns the intersection area of two circles with radii r1, r2
// whose centres are d apart.
func overlapArea(r1, r2, d float64) float64 {
	if d >= r1+r2 {
		return 0
	}
	if d <= math.Abs(r1-r2) {
		m := math.Min(r1, r2)
		return math.Pi * m * m
	}
	a1 := r2 * r2 * math.Acos(clampUnit((d*d+r2*r2-r1*r1)/(2*d*r2)))
	a2 := r1 * r1 * math.Acos(clampUnit((d*d+r1*r1-r2*r2)/(2*d*r1)))
	k := (-d + r1 + r2) * (d + r1 - r2) * (d - r1 + r2) * (d + r1 + r2)
	return a1 + a2 - 0.5*math.Sqrt(math.Max(0, k))
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// PhaseAt returns the orbital phase in [0,1) at time t days.
func PhaseAt(t, periodDays float64) float64 {
	ph := math.Mod(t/periodDays, 1)
	if ph < 0 {
		ph++
	}
	if ph >= 1 {
		ph = 0
	}
	return ph
}
