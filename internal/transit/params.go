// Package transit models the light curve of a planet crossing its star.
//
// All lengths share one unit: with StarRadius 1 they are solar radii. The
// model is independent of scene scaling.
package transit

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParams is returned by NewParams for physically impossible inputs.
var ErrInvalidParams = errors.New("invalid transit parameters")

// Kepler approximation for a Sun-like star: a = (P/365.25)^(2/3) * 215 stellar radii.
const (
	DaysPerYear              = 365.25
	SolarRadiiPerAU          = 215.0
	EarthRadiiPerSolarRadius = 109.0
)

// Options are the user-adjustable inputs to NewParams.
type Options struct {
	StarRadius        float64
	PlanetRadius      float64
	OrbitalPeriod     float64 // days
	InclinationDeg    float64
	LimbDarkening     float64 // 0-1
	StellarNoise      float64
	InstrumentalNoise float64
}

// DefaultOptions returns a hot-Jupiter-like configuration that transits.
func DefaultOptions() Options {
	return Options{
		StarRadius:        1.0,
		PlanetRadius:      0.1,
		OrbitalPeriod:     3.5,
		InclinationDeg:    89.5,
		LimbDarkening:     0.6,
		StellarNoise:      0.0005,
		InstrumentalNoise: 0.001,
	}
}

// Params is a validated parameter set with the derived semi-major axis.
// Build it with NewParams; change the period through WithPeriod so the
// semi-major axis stays in step.
type Params struct {
	StarRadius        float64
	PlanetRadius      float64
	OrbitalPeriod     float64
	SemiMajorAxis     float64
	InclinationDeg    float64
	LimbDarkening     float64
	StellarNoise      float64
	InstrumentalNoise float64
}

// SemiMajorAxisFor returns the Kepler approximation of a for a period in days.
func SemiMajorAxisFor(periodDays float64) float64 {
	return math.Pow(periodDays/DaysPerYear, 2.0/3.0) * SolarRadiiPerAU
}

// NewParams validates o and derives the semi-major axis.
func NewParams(o Options) (Params, error) {
	if err := o.validate(); err != nil {
		return Params{}, err
	}
	return Params{
		StarRadius:        o.StarRadius,
		PlanetRadius:      o.PlanetRadius,
		OrbitalPeriod:     o.OrbitalPeriod,
		SemiMajorAxis:     SemiMajorAxisFor(o.OrbitalPeriod),
		InclinationDeg:    o.InclinationDeg,
		LimbDarkening:     o.LimbDarkening,
		StellarNoise:      o.StellarNoise,
		InstrumentalNoise: o.InstrumentalNoise,
	}, nil
}

// MustParams is NewParams for known-good literals.
func MustParams(o Options) Params {
	p, err := NewParams(o)
	if err != nil {
		panic(err)
	}
	return p
}

// Options returns the inputs p was built from.
func (p Params) Options() Options {
	return Options{
		StarRadius:        p.StarRadius,
		PlanetRadius:      p.PlanetRadius,
		OrbitalPeriod:     p.OrbitalPeriod,
		InclinationDeg:    p.InclinationDeg,
		LimbDarkening:     p.LimbDarkening,
		StellarNoise:      p.StellarNoise,
		InstrumentalNoise: p.InstrumentalNoise,
	}
}

// WithPeriod returns a copy with a new period and re-derived semi-major axis.
func (p Params) WithPeriod(periodDays float64) (Params, error) {
	o := p.Options()
	o.OrbitalPeriod = periodDays
	return NewParams(o)
}

func (o Options) validate() error {
	checks := []struct {
		name string
		ok   bool
		v    float64
	}{
		{"star radius must be > 0", o.StarRadius > 0, o.StarRadius},
		{"planet radius must be >= 0", o.PlanetRadius >= 0, o.PlanetRadius},
		{"orbital period must be > 0", o.OrbitalPeriod > 0, o.OrbitalPeriod},
		{"inclination must be finite", !math.IsInf(o.InclinationDeg, 0) && !math.IsNaN(o.InclinationDeg), o.InclinationDeg},
		{"limb darkening must be in [0,1]", o.LimbDarkening >= 0 && o.LimbDarkening <= 1, o.LimbDarkening},
		{"stellar noise must be >= 0", o.StellarNoise >= 0, o.StellarNoise},
		{"instrumental noise must be >= 0", o.InstrumentalNoise >= 0, o.InstrumentalNoise},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%w: %s, got %v", ErrInvalidParams, c.name, c.v)
		}
	}
	return nil
}
