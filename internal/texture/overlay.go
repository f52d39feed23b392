package texture

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-transit/internal/planet"
)

// CloudCover is the fraction of the cloud channel left transparent.
const CloudCover = 0.55

// Clouds returns a width*height alpha mask for a cloud layer. seed shifts the
// pattern so different planets get different skies.
func Clouds(width, height int, seed float64) []uint8 {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	out := make([]uint8, width*height)
	for y := 0; y < height; y++ {
		v := (float64(y) + 0.5) / float64(height)
		for x := 0; x < width; x++ {
			u := float64(x) / float64(width)
			c := unit(fbm(u*1.3, v*1.1, 4, 20+seed))
			a := smoothstep(CloudCover, CloudCover+0.2, c)
			out[y*width+x] = uint8(a*230 + 0.5)
		}
	}
	return out
}

// RingSystem describes a flat ring in units of planet radius.
type RingSystem struct {
	Inner float64
	Outer float64
	Bands []colorful.Color
}

// Rings returns a ring system for radius when it exceeds the ring threshold.
func Rings(radius float64, base colorful.Color) (RingSystem, bool) {
	if !planet.HasRings(radius) {
		return RingSystem{}, false
	}
	light := base.BlendLab(hex("#f0e6d2"), 0.6)
	dark := base.BlendLab(hex("#3d3325"), 0.4)
	return RingSystem{
		Inner: 1.4,
		Outer: 2.3,
		Bands: []colorful.Color{light, dark, light.BlendLab(dark, 0.5), light},
	}, true
}

// BandAt returns the ring colour at distance r (planet radii), and false
// outside the ring.
func (rs RingSystem) BandAt(r float64) (colorful.Color, bool) {
	if r < rs.Inner || r > rs.Outer || len(rs.Bands) == 0 {
		return colorful.Color{}, false
	}
	i := int((r - rs.Inner) / (rs.Outer - rs.Inner) * float64(len(rs.Bands)))
	if i >= len(rs.Bands) {
		i = len(rs.Bands) - 1
	}
	return rs.Bands[i], true
}
