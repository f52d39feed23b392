// Package scale maps physical planet parameters to scene units.
//
// The constants here are presentation knobs. Nothing in the transit model
// depends on them, so retuning the scene never changes the physics.
package scale

import "math"

// Default presentation constants.
const (
	RadiusScale      = 0.2
	MinVisibleRadius = 0.1
	DistanceScale    = 1.5
	MinOrbitRadius   = 3.0
	PeriodScale      = 1.0
	StarRadius       = 1.0
)

// Scaler holds a tunable set of scale constants.
type Scaler struct {
	RadiusScale      float64
	MinVisibleRadius float64
	DistanceScale    float64
	MinOrbitRadius   float64
	PeriodScale      float64
}

// Default returns a Scaler with the package defaults.
func Default() Scaler {
	return Scaler{
		RadiusScale:      RadiusScale,
		MinVisibleRadius: MinVisibleRadius,
		DistanceScale:    DistanceScale,
		MinOrbitRadius:   MinOrbitRadius,
		PeriodScale:      PeriodScale,
	}
}

// Radius converts Earth radii to a scene radius, never below MinVisibleRadius.
func (s Scaler) Radius(radiusEarth float64) float64 {
	return math.Max(s.MinVisibleRadius, radiusEarth*s.RadiusScale)
}

// Distance converts a distance to a scene orbit radius, never below MinOrbitRadius.
func (s Scaler) Distance(distance float64) float64 {
	return math.Max(s.MinOrbitRadius, distance*s.DistanceScale)
}

// Period converts an orbital period in days to an angular velocity in rad per
// scene second. A zero period yields +Inf; callers keep periods positive.
func (s Scaler) Period(periodDays float64) float64 {
	return 2 * math.Pi / (periodDays * s.PeriodScale)
}

// ScaleRadius applies the default radius scaling.
func ScaleRadius(radiusEarth float64) float64 {
	return Default().Radius(radiusEarth)
}

// ScaleDistance applies the default distance scaling.
func ScaleDistance(distance float64) float64 {
	return Default().Distance(distance)
}

// ScalePeriod applies the default period scaling.
func ScalePeriod(periodDays float64) float64 {
	return Default().Period(periodDays)
}
