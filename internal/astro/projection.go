// Package astro projects scene-space positions onto a flat top-down view.
//
// Scene orbits lie in the XZ plane with the star at the origin. The
// projection looks down the Y axis: screen X follows scene X and screen Y
// follows scene Z.
package astro

import (
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
)

// ProjectedPoint represents a 2D projected position with metadata.
type ProjectedPoint struct {
	X float64 // Screen X, normalized so Extent maps to 1 before zoom
	Y float64 // Screen Y, same normalization
	R float64 // Radial distance in the orbital plane, scene units
	H float64 // Height above the orbital plane, scene units
}

// ScaleMode defines how radial distances are mapped to screen space.
type ScaleMode int

const (
	// ScaleLinear keeps true proportions.
	ScaleLinear ScaleMode = iota

	// ScaleLog uses log10(r + 1), spreading crowded inner orbits.
	ScaleLog

	// ScaleSqrt sits between the two.
	ScaleSqrt
)

func (m ScaleMode) String() string {
	switch m {
	case ScaleLinear:
		return "Linear"
	case ScaleLog:
		return "Log"
	case ScaleSqrt:
		return "Sqrt"
	default:
		return "Unknown"
	}
}

// ProjectionConfig configures the top-down projection.
type ProjectionConfig struct {
	Scale  float64   // Zoom factor
	Mode   ScaleMode // Radial scaling
	Extent float64   // Radius in scene units that maps to 1 at zoom 1
}

// DefaultProjectionConfig fits a radius of 10 scene units.
func DefaultProjectionConfig() ProjectionConfig {
	return ProjectionConfig{
		Scale:  1.0,
		Mode:   ScaleLinear,
		Extent: 10,
	}
}

// ProjectTopDown projects a scene position to normalized screen coordinates.
func ProjectTopDown(v r3.Vector, cfg ProjectionConfig) ProjectedPoint {
	r := math.Hypot(v.X, v.Z)
	p := ProjectedPoint{R: r, H: v.Y}
	if r == 0 {
		return p
	}

	d := ScaleRadius(r, cfg) * cfg.Scale
	p.X = d * v.X / r
	p.Y = d * v.Z / r
	return p
}

// ScaleRadius maps a scene radius to normalized display units before zoom.
func ScaleRadius(r float64, cfg ProjectionConfig) float64 {
	extent := cfg.Extent
	if extent <= 0 {
		extent = 1
	}
	if r <= 0 {
		return 0
	}

	switch cfg.Mode {
	case ScaleLog:
		return math.Log10(r+1) / math.Log10(extent+1)
	case ScaleSqrt:
		return math.Sqrt(r / extent)
	default:
		return r / extent
	}
}

// FitExtent returns a projection extent that leaves margin around the
// largest of radii. It never returns less than floor.
func FitExtent(radii []float64, floor float64) float64 {
	extent := floor
	for _, r := range radii {
		if r*1.1 > extent {
			extent = r * 1.1
		}
	}
	return extent
}

// FormatPeriod renders an orbital period in days, switching to years past one year.
func FormatPeriod(days float64) string {
	switch {
	case math.IsNaN(days) || days <= 0:
		return "n/a"
	case days < 1:
		return trimFloat(days*24, 1) + " h"
	case days < 365.25:
		return trimFloat(days, 2) + " d"
	default:
		return trimFloat(days/365.25, 2) + " yr"
	}
}

// trimFloat formats f with at most decimals fractional digits.
func trimFloat(f float64, decimals int) string {
	s := strconv.FormatFloat(f, 'f', decimals, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}
