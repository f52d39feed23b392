package texture

import "github.com/golang/geo/r3"

// DefaultNormalStrength scales height gradients before normalisation.
const DefaultNormalStrength = 4.0

// NormalMap derives an RGB tangent-space normal map from the surface's
// elevation field by central differences: height(x-1)-height(x+1) and
// likewise in y. Each component is remapped from [-1,1] to [0,255].
func NormalMap(s *Surface, strength float64) []uint8 {
	if strength <= 0 {
		strength = DefaultNormalStrength
	}
	out := make([]uint8, s.Width*s.Height*3)
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			n := NormalAt(s, x, y, strength)
			i := (y*s.Width + x) * 3
			out[i] = toByte(n.X)
			out[i+1] = toByte(n.Y)
			out[i+2] = toByte(n.Z)
		}
	}
	return out
}

// NormalAt returns the unit surface normal at (x, y).
func NormalAt(s *Surface, x, y int, strength float64) r3.Vector {
	dx := s.HeightAt(x-1, y) - s.HeightAt(x+1, y)
	dy := s.HeightAt(x, y-1) - s.HeightAt(x, y+1)
	return r3.Vector{X: dx * strength, Y: dy * strength, Z: 1}.Normalize()
}

func toByte(c float64) uint8 {
	return uint8(clamp01((c+1)/2)*255 + 0.5)
}
