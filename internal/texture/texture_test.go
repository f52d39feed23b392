package texture

import (
	"bytes"
	"image/png"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/litescript/ls-transit/internal/planet"
)

func small() Options {
	return Options{Width: 64, Height: 32, Storms: true}
}

func TestSynthesizeDimensions(t *testing.T) {
	for _, typ := range planet.Types {
		t.Run(typ.String(), func(t *testing.T) {
			s := Synthesize(typ, DefaultBaseColor(typ), small())
			if len(s.Color) != 64*32*3 {
				t.Errorf("len(Color) = %d", len(s.Color))
			}
			if len(s.Elevation) != 64*32 {
				t.Errorf("len(Elevation) = %d", len(s.Elevation))
			}
			for i, e := range s.Elevation {
				if e < 0 || e > 1 || math.IsNaN(e) {
					t.Fatalf("elevation[%d] = %v out of range", i, e)
				}
			}
		})
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	for _, typ := range planet.Types {
		a := Synthesize(typ, DefaultBaseColor(typ), small())
		b := Synthesize(typ, DefaultBaseColor(typ), small())
		if !bytes.Equal(a.Color, b.Color) {
			t.Errorf("%v: colour field differs between runs", typ)
		}
	}
}

func TestSynthesizeTinySizes(t *testing.T) {
	sizes := []struct{ w, h int }{{1, 1}, {4, 1}, {1, 4}, {2, 2}, {3, 5}}
	for _, typ := range planet.Types {
		for _, sz := range sizes {
			opts := Options{Width: sz.w, Height: sz.h, Radius: 12, Storms: true}
			s := Synthesize(typ, DefaultBaseColor(typ), opts)
			if s.Width != sz.w || s.Height != sz.h || len(s.Color) != sz.w*sz.h*3 {
				t.Errorf("%v %dx%d: got %dx%d with %d bytes", typ, sz.w, sz.h, s.Width, s.Height, len(s.Color))
			}
			if n := NormalMap(s, DefaultNormalStrength); len(n) != sz.w*sz.h*3 {
				t.Errorf("%v %dx%d: normal map len %d", typ, sz.w, sz.h, len(n))
			}
		}
	}
}

func TestArchetypesDiffer(t *testing.T) {
	base := DefaultBaseColor(planet.TypeRocky)
	rocky := Synthesize(planet.TypeRocky, base, small())
	gas := Synthesize(planet.TypeGas, base, small())
	if bytes.Equal(rocky.Color, gas.Color) {
		t.Error("rocky and gas surfaces should not be identical")
	}
}

func TestDefaultSize(t *testing.T) {
	s := Synthesize(planet.TypeIce, DefaultBaseColor(planet.TypeIce), Options{})
	if s.Width != DefaultWidth || s.Height != DefaultHeight {
		t.Errorf("size = %dx%d, want %dx%d", s.Width, s.Height, DefaultWidth, DefaultHeight)
	}
}

func TestRockyPolarCaps(t *testing.T) {
	s := Synthesize(planet.TypeRocky, DefaultBaseColor(planet.TypeRocky), small())
	// Top row sits above the polar latitude and should be near white.
	var sum float64
	for x := 0; x < s.Width; x++ {
		_, _, l := s.Pixel(x, 0).Hcl()
		sum += l
	}
	if mean := sum / float64(s.Width); mean < 0.85 {
		t.Errorf("polar row mean lightness = %v, want > 0.85", mean)
	}
}

func TestGasBandsFollowLatitude(t *testing.T) {
	s := Synthesize(planet.TypeGas, DefaultBaseColor(planet.TypeGas), Options{Width: 64, Height: 64})
	// Bands are horizontal: variation down a column beats variation along a row.
	var rowVar, colVar float64
	for i := 1; i < 64; i++ {
		rowVar += math.Abs(s.HeightAt(i, 20) - s.HeightAt(i-1, 20))
		colVar += math.Abs(s.HeightAt(20, i) - s.HeightAt(20, i-1))
	}
	if colVar <= rowVar {
		t.Errorf("column variation %v should exceed row variation %v", colVar, rowVar)
	}
	if len(gasBands(DefaultBaseColor(planet.TypeGas))) < 3 {
		t.Error("gas palette needs at least three bands")
	}
}

func TestGasRingsGated(t *testing.T) {
	base := DefaultBaseColor(planet.TypeGas)
	o := small()
	o.Radius = 3
	if s := Synthesize(planet.TypeGas, base, o); s.Rings != nil {
		t.Error("radius 3 should not get rings")
	}
	o.Radius = 11
	s := Synthesize(planet.TypeGas, base, o)
	if s.Rings == nil {
		t.Fatal("radius 11 should get rings")
	}
	if _, ok := s.Rings.BandAt(1.0); ok {
		t.Error("BandAt inside the planet should be empty")
	}
	if _, ok := s.Rings.BandAt((s.Rings.Inner + s.Rings.Outer) / 2); !ok {
		t.Error("BandAt mid-ring should hit a band")
	}
	if rs := Synthesize(planet.TypeRocky, base, o); rs.Rings != nil {
		t.Error("only gas giants carry rings")
	}
}

func TestIceHasCracks(t *testing.T) {
	s := Synthesize(planet.TypeIce, DefaultBaseColor(planet.TypeIce), Options{Width: 128, Height: 64})
	r, g, b := iceCrack.RGB255()
	var cracks int
	for i := 0; i < len(s.Color); i += 3 {
		if s.Color[i] == r && s.Color[i+1] == g && s.Color[i+2] == b {
			cracks++
		}
	}
	if cracks == 0 {
		t.Error("ice surface has no cracks")
	}
	if cracks > len(s.Elevation)/2 {
		t.Errorf("ice surface is mostly cracks: %d of %d", cracks, len(s.Elevation))
	}
}

func TestNormalMapUsesElevation(t *testing.T) {
	s := &Surface{Width: 4, Height: 3, Elevation: make([]float64, 12), Color: make([]uint8, 36)}
	flat := NormalMap(s, 1)
	for i := 0; i < len(flat); i += 3 {
		if flat[i] != 128 || flat[i+1] != 128 || flat[i+2] != 255 {
			t.Fatalf("flat surface normal = %v, want (128,128,255)", flat[i:i+3])
		}
	}

	// Raise one column: its left neighbour sees height(x+1) > height(x-1),
	// so the normal tilts toward -x.
	for y := 0; y < 3; y++ {
		s.Elevation[y*4+2] = 1
	}
	n := NormalAt(s, 1, 1, 1)
	if n.X >= 0 {
		t.Errorf("normal left of ridge = %v, want negative X", n)
	}
	if math.Abs(n.Norm()-1) > 1e-12 {
		t.Errorf("normal not unit length: %v", n.Norm())
	}
}

func TestNormalMapMatchesSynthesis(t *testing.T) {
	s := Synthesize(planet.TypeRocky, DefaultBaseColor(planet.TypeRocky), small())
	nm := NormalMap(s, DefaultNormalStrength)
	if len(nm) != len(s.Color) {
		t.Fatalf("normal map len = %d, want %d", len(nm), len(s.Color))
	}
	x, y := 10, 12
	want := NormalAt(s, x, y, DefaultNormalStrength)
	i := (y*s.Width + x) * 3
	if nm[i] != toByte(want.X) || nm[i+2] != toByte(want.Z) {
		t.Error("NormalMap disagrees with NormalAt")
	}
}

func TestClouds(t *testing.T) {
	a := Clouds(32, 16, 1)
	if len(a) != 32*16 {
		t.Fatalf("len = %d", len(a))
	}
	b := Clouds(32, 16, 1)
	if !bytes.Equal(a, b) {
		t.Error("Clouds not deterministic")
	}
	var clear int
	for _, v := range a {
		if v == 0 {
			clear++
		}
	}
	if clear == 0 || clear == len(a) {
		t.Errorf("cloud mask should be partial, %d of %d clear", clear, len(a))
	}
}

type countingObserver struct {
	mu                 sync.Mutex
	hits, misses, runs int
}

func (o *countingObserver) TextureCacheHit() {
	o.mu.Lock()
	o.hits++
	o.mu.Unlock()
}

func (o *countingObserver) TextureCacheMiss() {
	o.mu.Lock()
	o.misses++
	o.mu.Unlock()
}

func (o *countingObserver) TextureSynthesized(time.Duration) {
	o.mu.Lock()
	o.runs++
	o.mu.Unlock()
}

func TestCacheMemoizes(t *testing.T) {
	obs := &countingObserver{}
	c := NewCache(obs)
	base := DefaultBaseColor(planet.TypeGas)

	a := c.Get(planet.TypeGas, base, small())
	b := c.Get(planet.TypeGas, base, small())
	if a != b {
		t.Error("second Get should return the cached surface")
	}
	if obs.hits != 1 || obs.misses != 1 || obs.runs != 1 {
		t.Errorf("hits=%d misses=%d runs=%d, want 1/1/1", obs.hits, obs.misses, obs.runs)
	}

	c.Get(planet.TypeGas, DefaultBaseColor(planet.TypeIce), small())
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2 (different colour key)", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Error("Clear left entries behind")
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := NewCache(nil)
	base := DefaultBaseColor(planet.TypeIce)
	var wg sync.WaitGroup
	results := make([]*Surface, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Get(planet.TypeIce, base, small())
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent Gets returned different surfaces")
		}
	}
}

func TestEncodePNG(t *testing.T) {
	s := Synthesize(planet.TypeSuperEarth, DefaultBaseColor(planet.TypeSuperEarth), small())
	var buf bytes.Buffer
	if err := EncodePNG(&buf, s.Image()); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Errorf("bounds = %v", b)
	}
}

func TestParseColor(t *testing.T) {
	if got := ParseColor("#ff0000", planet.TypeIce).Hex(); got != "#ff0000" {
		t.Errorf("ParseColor = %s", got)
	}
	if got := ParseColor("nope", planet.TypeIce); got != DefaultBaseColor(planet.TypeIce) {
		t.Errorf("fallback = %v", got)
	}
}
