// Package texture synthesizes planet surface textures.
//
// Synthesis returns flat pixel buffers; uploading them to a renderer or
// encoding them to an image is the caller's business. Elevation and banding
// follow fixed per-archetype rules. Decorative detail (craters, storms) comes
// from a PCG source seeded by archetype and base colour, so a given
// (type, colour, size) always yields the same pixels.
package texture

import (
	"hash/fnv"
	"math"
	"math/rand/v2"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-transit/internal/planet"
)

// Default texture dimensions (equirectangular, 2:1).
const (
	DefaultWidth  = 256
	DefaultHeight = 128
)

// Options control synthesis.
type Options struct {
	Width  int
	Height int
	// Radius in Earth radii. Only gas giants use it, to gate rings.
	Radius float64
	// Storms enables storm splats on gas giants.
	Storms bool
}

// DefaultOptions returns default dimensions with storms on.
func DefaultOptions() Options {
	return Options{Width: DefaultWidth, Height: DefaultHeight, Storms: true}
}

func (o Options) normalized() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	return o
}

// Surface is a synthesized texture. Color holds Width*Height*3 RGB bytes in
// row-major order; Elevation holds the matching height samples in [0,1].
type Surface struct {
	Type      planet.Type
	Width     int
	Height    int
	Color     []uint8
	Elevation []float64
	Rings     *RingSystem
}

// Pixel returns the colour at (x, y).
func (s *Surface) Pixel(x, y int) colorful.Color {
	i := (y*s.Width + x) * 3
	return colorful.Color{
		R: float64(s.Color[i]) / 255,
		G: float64(s.Color[i+1]) / 255,
		B: float64(s.Color[i+2]) / 255,
	}
}

// HeightAt returns the elevation at (x, y), wrapping x and clamping y.
func (s *Surface) HeightAt(x, y int) float64 {
	x = ((x % s.Width) + s.Width) % s.Width
	if y < 0 {
		y = 0
	}
	if y >= s.Height {
		y = s.Height - 1
	}
	return s.Elevation[y*s.Width+x]
}

func (s *Surface) set(x, y int, c colorful.Color) {
	r, g, b := c.Clamped().RGB255()
	i := (y*s.Width + x) * 3
	s.Color[i], s.Color[i+1], s.Color[i+2] = r, g, b
}

// Synthesize builds the surface for an archetype tinted by base.
func Synthesize(t planet.Type, base colorful.Color, opts Options) *Surface {
	opts = opts.normalized()
	s := &Surface{
		Type:      t,
		Width:     opts.Width,
		Height:    opts.Height,
		Color:     make([]uint8, opts.Width*opts.Height*3),
		Elevation: make([]float64, opts.Width*opts.Height),
	}
	h := HeightFunc(t)
	for y := 0; y < s.Height; y++ {
		v := (float64(y) + 0.5) / float64(s.Height)
		for x := 0; x < s.Width; x++ {
			u := float64(x) / float64(s.Width)
			s.Elevation[y*s.Width+x] = h(u, v)
		}
	}

	rng := detailRand(t, base)
	switch t {
	case planet.TypeRocky:
		paintTerrain(s, rockyRamp(base), rockyPolar)
		addCraters(s, rng, 6)
	case planet.TypeSuperEarth:
		paintTerrain(s, superEarthRamp(base), superPolar)
		addCraters(s, rng, 3)
	case planet.TypeGas:
		paintBands(s, gasBands(base))
		if opts.Storms {
			addStorms(s, rng, 1+rng.IntN(3))
		}
		if r, ok := Rings(opts.Radius, base); ok {
			s.Rings = &r
		}
	case planet.TypeIce:
		paintIce(s, iceRamp(base))
	}
	return s
}

// Gas band frequency in radians per unit of v.
const bandFrequency = 9 * math.Pi

// HeightFunc returns the elevation function for an archetype over u,v in [0,1].
// Color synthesis and normal maps both sample it.
func HeightFunc(t planet.Type) func(u, v float64) float64 {
	switch t {
	case planet.TypeRocky:
		return func(u, v float64) float64 { return unit(fbm(u, v, 5, 0)) }
	case planet.TypeSuperEarth:
		return func(u, v float64) float64 { return unit(1.2 * fbm(u*0.75, v, 4, 2.1)) }
	case planet.TypeGas:
		return func(u, v float64) float64 {
			turb := 0.35 * fbm(u, v, 3, 4.2)
			return unit(math.Sin(v*bandFrequency + turb))
		}
	case planet.TypeIce:
		return func(u, v float64) float64 {
			h := unit(0.8 * fbm(u, v, 4, 6.3))
			if isCrack(u, v) {
				h *= 0.85
			}
			return h
		}
	default:
		return func(u, v float64) float64 { return 0.5 }
	}
}

// crackWidth is the threshold on the secondary ice channel below which a crack is drawn.
const crackWidth = 0.045

func isCrack(u, v float64) bool {
	return math.Abs(fbm(u*1.5, v*1.5, 3, 11.7)) < crackWidth
}

func paintTerrain(s *Surface, stops []stop, polar float64) {
	for y := 0; y < s.Height; y++ {
		lat := latitude((float64(y) + 0.5) / float64(s.Height))
		polarBlend := smoothstep(polar, polar+0.08, lat)
		for x := 0; x < s.Width; x++ {
			c := ramp(stops, s.Elevation[y*s.Width+x])
			if polarBlend > 0 {
				c = c.BlendLab(polarCap, polarBlend)
			}
			s.set(x, y, c)
		}
	}
}

func paintBands(s *Surface, bands []colorful.Color) {
	n := float64(len(bands))
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			e := s.Elevation[y*s.Width+x]
			pos := e * (n - 1)
			i := int(pos)
			if i >= len(bands)-1 {
				s.set(x, y, bands[len(bands)-1])
				continue
			}
			s.set(x, y, bands[i].BlendLab(bands[i+1], pos-float64(i)))
		}
	}
}

func paintIce(s *Surface, stops []stop) {
	for y := 0; y < s.Height; y++ {
		v := (float64(y) + 0.5) / float64(s.Height)
		for x := 0; x < s.Width; x++ {
			u := float64(x) / float64(s.Width)
			if isCrack(u, v) {
				s.set(x, y, iceCrack)
				continue
			}
			s.set(x, y, ramp(stops, s.Elevation[y*s.Width+x]))
		}
	}
}

// addCraters darkens small discs. Elevation is left alone so the normal map
// keeps following the painted terrain ramp.
func addCraters(s *Surface, rng *rand.Rand, n int) {
	for i := 0; i < n; i++ {
		cx := rng.IntN(s.Width)
		cy := s.Height/6 + rng.IntN(max(1, s.Height*2/3))
		r := 1 + rng.IntN(max(2, s.Height/24))
		splat(s, cx, cy, r, func(c colorful.Color, w float64) colorful.Color {
			return c.BlendLab(colorful.Color{}, 0.25*w)
		})
	}
}

// addStorms paints radial-gradient ovals.
func addStorms(s *Surface, rng *rand.Rand, n int) {
	for i := 0; i < n; i++ {
		cx := rng.IntN(s.Width)
		cy := s.Height/4 + rng.IntN(max(1, s.Height/2))
		r := max(2, s.Height/16+rng.IntN(max(1, s.Height/16)))
		splat(s, cx, cy, r, func(c colorful.Color, w float64) colorful.Color {
			return c.BlendLab(stormCore, 0.8*w)
		})
	}
}

// splat applies f with a weight falling from 1 at the centre to 0 at radius r.
// Ovals are twice as wide as tall to match the 2:1 projection.
func splat(s *Surface, cx, cy, r int, f func(colorful.Color, float64) colorful.Color) {
	for dy := -r; dy <= r; dy++ {
		y := cy + dy
		if y < 0 || y >= s.Height {
			continue
		}
		for dx := -2 * r; dx <= 2*r; dx++ {
			d := math.Hypot(float64(dx)/2, float64(dy)) / float64(r)
			if d > 1 {
				continue
			}
			x := ((cx+dx)%s.Width + s.Width) % s.Width
			s.set(x, y, f(s.Pixel(x, y), 1-d))
		}
	}
}

func detailRand(t planet.Type, base colorful.Color) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(base.Hex()))
	return rand.New(rand.NewPCG(uint64(t)+1, h.Sum64()))
}
