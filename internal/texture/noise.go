package texture

import "math"

// fbm is a sum of sine products at doubling frequency and halving amplitude,
// normalised to [-1,1]. u wraps with period 1 so textures tile around the
// sphere; v runs pole to pole.
func fbm(u, v float64, octaves int, offset float64) float64 {
	var sum, norm float64
	amp := 1.0
	freq := 1.0
	for i := 0; i < octaves; i++ {
		fi := float64(i)
		a := math.Sin(2*math.Pi*u*freq*2 + offset + fi*1.7)
		b := math.Sin(math.Pi*v*freq*3 + offset*0.5 + fi*2.3)
		c := math.Cos(2*math.Pi*(u+v*0.5)*freq + offset*1.3 + fi)
		sum += amp * (a*b*0.7 + c*0.3)
		norm += amp
		amp *= 0.5
		freq *= 2
	}
	return sum / norm
}

// unit maps [-1,1] to [0,1].
func unit(x float64) float64 {
	return clamp01((x + 1) / 2)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// smoothstep is the cubic Hermite ramp between e0 and e1.
func smoothstep(e0, e1, x float64) float64 {
	t := clamp01((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}

// latitude returns |lat| in [0,1] for v in [0,1]: 0 at the equator, 1 at the poles.
func latitude(v float64) float64 {
	return math.Abs(v-0.5) * 2
}
