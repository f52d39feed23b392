package texture

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-transit/internal/planet"
)

// stop is one entry of an elevation ramp.
type stop struct {
	at    float64
	color colorful.Color
}

// ramp returns the colour for x by blending between neighbouring stops.
func ramp(stops []stop, x float64) colorful.Color {
	if x <= stops[0].at {
		return stops[0].color
	}
	for i := 1; i < len(stops); i++ {
		if x <= stops[i].at {
			lo, hi := stops[i-1], stops[i]
			t := (x - lo.at) / (hi.at - lo.at)
			return lo.color.BlendLab(hi.color, t).Clamped()
		}
	}
	return stops[len(stops)-1].color
}

func hex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultBaseColor returns the stock tint for each archetype.
func DefaultBaseColor(t planet.Type) colorful.Color {
	switch t {
	case planet.TypeRocky:
		return hex("#4a7c3a")
	case planet.TypeSuperEarth:
		return hex("#b5651d")
	case planet.TypeGas:
		return hex("#d8a066")
	case planet.TypeIce:
		return hex("#a8d8ff")
	default:
		return hex("#888888")
	}
}

// ParseColor parses a #rrggbb string, falling back to the archetype default.
func ParseColor(s string, t planet.Type) colorful.Color {
	if c, err := colorful.Hex(s); err == nil {
		return c
	}
	return DefaultBaseColor(t)
}

// Elevation thresholds for the rocky ramp.
const (
	rockyOcean = 0.45
	rockyCoast = 0.50
	rockySand  = 0.53
	rockyLand  = 0.70
	rockyPeak  = 0.85
	// Latitude above which rocky surfaces whiten toward ice caps.
	rockyPolar = 0.80
)

func rockyRamp(base colorful.Color) []stop {
	return []stop{
		{0.0, hex("#0b2545")},
		{rockyOcean, hex("#1f4e79")},
		{rockyCoast, hex("#3f88c5")},
		{rockySand, hex("#d9c58b")},
		{rockyLand, base},
		{rockyPeak, hex("#6b5a45")},
		{1.0, hex("#e8e8e8")},
	}
}

// Super-earth ramp: lakes, deserts, mesas, highlands.
const (
	superLake   = 0.35
	superDesert = 0.55
	superMesa   = 0.75
	superPolar  = 0.85
)

func superEarthRamp(base colorful.Color) []stop {
	return []stop{
		{0.0, hex("#1b3a4b")},
		{superLake, hex("#3c6e71")},
		{superLake + 0.03, hex("#e0c48c")},
		{superDesert, base.BlendLab(hex("#e0c48c"), 0.4)},
		{superMesa, base},
		{1.0, hex("#5c3d2e")},
	}
}

// gasBands derives at least three band colours from base.
func gasBands(base colorful.Color) []colorful.Color {
	h, c, l := base.Hcl()
	return []colorful.Color{
		colorful.Hcl(h, c*0.6, clamp01(l+0.2)).Clamped(),
		base,
		colorful.Hcl(h+15, c*1.1, l*0.75).Clamped(),
		colorful.Hcl(h-10, c*0.8, clamp01(l+0.08)).Clamped(),
		colorful.Hcl(h+5, c*0.9, l*0.6).Clamped(),
	}
}

func iceRamp(base colorful.Color) []stop {
	white := hex("#f4fbff")
	return []stop{
		{0.0, base.BlendLab(hex("#5a8fc2"), 0.5)},
		{0.4, base},
		{0.75, base.BlendLab(white, 0.6)},
		{1.0, white},
	}
}

var (
	iceCrack  = hex("#2b5d8a")
	polarCap  = hex("#f2f6f8")
	stormCore = hex("#b0413e")
)
