// Package orbit places planets on their scene orbits.
//
// The elliptical variant stretches x and compresses z by (1 ± e·cos angle).
// It is a visual perturbation, not a Keplerian ellipse: angular speed stays
// uniform and the star is not at a focus.
package orbit

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/litescript/ls-transit/internal/scale"
)

// EllipticalEccentricity is the perturbation used in realistic scene mode.
const EllipticalEccentricity = 0.1

// PathSegments is the number of segments in a drawn orbit ring.
const PathSegments = 64

// PositionOnOrbit returns the scene position for a planet at the given angle
// and distance using the default scale. Eccentricity 0 gives a circle.
func PositionOnOrbit(angle, distance, eccentricity float64) r3.Vector {
	return Position(angle, scale.ScaleDistance(distance), eccentricity)
}

// Position returns the position on an orbit of an already-scaled radius.
func Position(angle, radius, eccentricity float64) r3.Vector {
	c, s := math.Cos(angle), math.Sin(angle)
	v := r3.Vector{X: c * radius, Y: 0, Z: s * radius}
	if eccentricity != 0 {
		v.X *= 1 + eccentricity*c
		v.Z *= 1 - eccentricity*c
	}
	return v
}

// Angle returns the orbital angle after elapsed scene seconds for a period in days.
func Angle(elapsed, periodDays float64, s scale.Scaler) float64 {
	return elapsed * s.Period(periodDays)
}

// Path returns segments+1 points from angle 0 to 2π inclusive, closing the ring.
func Path(radius, eccentricity float64, segments int) []r3.Vector {
	if segments < 3 {
		segments = 3
	}
	pts := make([]r3.Vector, segments+1)
	for i := 0; i <= segments; i++ {
		a := float64(i) / float64(segments) * 2 * math.Pi
		pts[i] = Position(a, radius, eccentricity)
	}
	return pts
}
