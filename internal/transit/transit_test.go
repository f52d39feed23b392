package transit

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

func edgeOn(t *testing.T) Params {
	t.Helper()
	o := DefaultOptions()
	o.InclinationDeg = 90
	p, err := NewParams(o)
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}
	return p
}

func TestNewParamsValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		valid  bool
	}{
		{"defaults", func(*Options) {}, true},
		{"zero planet radius", func(o *Options) { o.PlanetRadius = 0 }, true},
		{"zero star radius", func(o *Options) { o.StarRadius = 0 }, false},
		{"negative planet radius", func(o *Options) { o.PlanetRadius = -0.1 }, false},
		{"zero period", func(o *Options) { o.OrbitalPeriod = 0 }, false},
		{"limb darkening above 1", func(o *Options) { o.LimbDarkening = 1.5 }, false},
		{"negative stellar noise", func(o *Options) { o.StellarNoise = -1 }, false},
		{"negative instrumental noise", func(o *Options) { o.InstrumentalNoise = -1 }, false},
		{"NaN inclination", func(o *Options) { o.InclinationDeg = math.NaN() }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			_, err := NewParams(o)
			if tt.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidParams) {
				t.Errorf("err = %v, want ErrInvalidParams", err)
			}
		})
	}
}

func TestSemiMajorAxis(t *testing.T) {
	if got := SemiMajorAxisFor(DaysPerYear); math.Abs(got-215) > 1e-9 {
		t.Errorf("SemiMajorAxisFor(1 yr) = %v, want 215", got)
	}
	p := edgeOn(t)
	q, err := p.WithPeriod(DaysPerYear)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(q.SemiMajorAxis-215) > 1e-9 {
		t.Errorf("WithPeriod did not re-derive a: %v", q.SemiMajorAxis)
	}
	if p.SemiMajorAxis == q.SemiMajorAxis {
		t.Error("WithPeriod mutated or ignored the period")
	}
	if _, err := p.WithPeriod(0); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("WithPeriod(0) err = %v", err)
	}
}

func TestFluxAtTransitCentre(t *testing.T) {
	p := edgeOn(t)
	got := FluxAtPhase(0.5, p)
	want := 1 - math.Pow(p.PlanetRadius/p.StarRadius, 2)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("FluxAtPhase(0.5) = %v, want %v", got, want)
	}
}

func TestFluxOutsideTransitWindow(t *testing.T) {
	o := DefaultOptions() // near edge-on, ~2.7 h of a 3.5 d orbit
	p := MustParams(o)
	for k := 0; k < 2000; k++ {
		phase := float64(k) / 2000
		pos := SkyPosition(phase, p)
		f := FluxAtPhase(phase, p)
		if pos.Z <= 0 && f != 1.0 {
			t.Fatalf("phase %v behind star: flux = %v, want 1", phase, f)
		}
		if (phase < 0.45 || phase > 0.55) && f != 1.0 {
			t.Fatalf("phase %v outside window: flux = %v, want 1", phase, f)
		}
	}
	if FluxAtPhase(0.5, p) >= 1 {
		t.Error("expected a dip at mid-transit")
	}
}

func TestFluxSymmetricAndBounded(t *testing.T) {
	p := MustParams(DefaultOptions())
	for d := 0.0; d < 0.05; d += 0.001 {
		a, b := FluxAtPhase(0.5-d, p), FluxAtPhase(0.5+d, p)
		if math.Abs(a-b) > 1e-12 {
			t.Fatalf("asymmetric at ±%v: %v vs %v", d, a, b)
		}
		if a < 0 || a > 1 {
			t.Fatalf("flux out of range at %v: %v", d, a)
		}
	}
}

func TestFluxFaceOnNeverTransits(t *testing.T) {
	o := DefaultOptions()
	o.InclinationDeg = 0
	p := MustParams(o)
	for _, ph := range []float64{0, 0.25, 0.5, 0.75} {
		if f := FluxAtPhase(ph, p); f != 1 {
			t.Errorf("face-on FluxAtPhase(%v) = %v, want 1", ph, f)
		}
	}
}

func TestFluxGiantPlanetClamped(t *testing.T) {
	o := DefaultOptions()
	o.InclinationDeg = 90
	o.PlanetRadius = 3
	o.LimbDarkening = 0
	p := MustParams(o)
	if f := FluxAtPhase(0.5, p); f != 0 {
		t.Errorf("fully occulted star flux = %v, want 0", f)
	}
}

func TestLimbDarkeningReducesLossOffCentre(t *testing.T) {
	// With limb darkening the loss near the limb is smaller than without.
	o := DefaultOptions()
	o.InclinationDeg = 90
	o.LimbDarkening = 0
	flat := MustParams(o)
	o.LimbDarkening = 1
	dark := MustParams(o)
	phase := 0.5 + 0.012 // inside transit, off centre
	if FluxAtPhase(phase, dark) <= FluxAtPhase(phase, flat) {
		t.Errorf("limb-darkened flux %v should exceed flat %v off centre",
			FluxAtPhase(phase, dark), FluxAtPhase(phase, flat))
	}
}

func TestOverlapArea(t *testing.T) {
	tests := []struct {
		name      string
		r1, r2, d float64
		want      float64
	}{
		{"disjoint", 1, 0.1, 2, 0},
		{"touching", 1, 0.1, 1.1, 0},
		{"contained", 1, 0.1, 0.5, math.Pi * 0.01},
		{"concentric larger second", 1, 2, 0, math.Pi},
		{"equal lens", 1, 1, 1, 2*math.Pi/3 - math.Sqrt(3)/2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overlapArea(tt.r1, tt.r2, tt.d); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("overlapArea = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDepthPercent(t *testing.T) {
	p := MustParams(Options{StarRadius: 1, PlanetRadius: 0.1, OrbitalPeriod: 10, InclinationDeg: 90})
	if got := DepthPercent(p); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("DepthPercent = %v, want 1.0", got)
	}
	if got := DepthPPM(p); math.Abs(got-10000) > 1e-6 {
		t.Errorf("DepthPPM = %v, want 10000", got)
	}
}

func TestDurationHours(t *testing.T) {
	o := Options{StarRadius: 1, PlanetRadius: 0.01, OrbitalPeriod: DaysPerYear, InclinationDeg: 90}
	p := MustParams(o)
	want := DaysPerYear * 24 / (math.Pi * 215)
	if got := DurationHours(p); math.Abs(got-want) > 1e-6 {
		t.Errorf("DurationHours = %v, want %v", got, want)
	}

	o.InclinationDeg = 0
	if got := DurationHours(MustParams(o)); !math.IsNaN(got) {
		t.Errorf("face-on DurationHours = %v, want NaN", got)
	}
}

func TestSNR(t *testing.T) {
	o := Options{StarRadius: 1, PlanetRadius: 0.1, OrbitalPeriod: 3, InclinationDeg: 90}
	if got := SNR(MustParams(o)); !math.IsNaN(got) {
		t.Errorf("noise-free SNR = %v, want NaN", got)
	}
	o.StellarNoise, o.InstrumentalNoise = 0.003, 0.004
	if got := SNR(MustParams(o)); math.Abs(got-2) > 1e-9 {
		t.Errorf("SNR = %v, want 2", got)
	}
}

func TestDidacticDepthPercent(t *testing.T) {
	if got := DidacticDepthPercent(EarthRadiiPerSolarRadius); math.Abs(got-100) > 1e-9 {
		t.Errorf("sun-sized planet depth = %v, want 100", got)
	}
	if got, want := DidacticDepthPercent(1), 100.0/(109*109); math.Abs(got-want) > 1e-12 {
		t.Errorf("earth depth = %v, want %v", got, want)
	}
}

func TestNoiseIsolation(t *testing.T) {
	o := DefaultOptions()
	o.StellarNoise, o.InstrumentalNoise = 0, 0
	p := MustParams(o)
	for _, tm := range []float64{0, 1.75, 3.5, 100} {
		// nil rng: a draw would panic
		a, b := Observe(tm, p, nil), Observe(tm, p, nil)
		if a != b {
			t.Fatalf("Observe(%v) not repeatable: %v vs %v", tm, a, b)
		}
		if a.Flux != FluxAtPhase(a.Phase, p) {
			t.Fatalf("noise leaked at t=%v", tm)
		}
	}
}

func TestNoiseTermsSeparate(t *testing.T) {
	o := DefaultOptions()
	o.StellarNoise, o.InstrumentalNoise = 0.01, 0
	p := MustParams(o)
	n := NoiseAt(10, p, nil)
	if want := 0.01 * math.Sin(1) * 0.5; math.Abs(n.Stellar-want) > 1e-15 {
		t.Errorf("Stellar = %v, want %v", n.Stellar, want)
	}
	if n.Instrumental != 0 || n.Systematic != 0 {
		t.Errorf("instrumental terms should be zero: %+v", n)
	}

	o.StellarNoise, o.InstrumentalNoise = 0, 0.02
	p = MustParams(o)
	rng := NewRand(7)
	var sum float64
	const draws = 20000
	for i := 0; i < draws; i++ {
		n := NoiseAt(float64(i), p, rng)
		if n.Stellar != 0 {
			t.Fatal("stellar term should be zero")
		}
		if math.Abs(n.Instrumental) > 0.01 {
			t.Fatalf("instrumental term %v exceeds half amplitude", n.Instrumental)
		}
		if math.Abs(n.Systematic) > 0.002+1e-15 {
			t.Fatalf("systematic term %v exceeds 0.1·σ", n.Systematic)
		}
		sum += n.Instrumental
	}
	if mean := sum / draws; math.Abs(mean) > 0.0005 {
		t.Errorf("instrumental mean = %v, want ~0", mean)
	}
}

func TestPhaseAt(t *testing.T) {
	tests := []struct{ t, p, want float64 }{
		{0, 1, 0},
		{2.5, 1, 0.5},
		{-0.25, 1, 0.75},
		{7, 3.5, 0},
		{8.75, 3.5, 0.5},
	}
	for _, tt := range tests {
		if got := PhaseAt(tt.t, tt.p); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("PhaseAt(%v, %v) = %v, want %v", tt.t, tt.p, got, tt.want)
		}
	}
}

func TestCurves(t *testing.T) {
	p := MustParams(DefaultOptions())
	curve := TheoreticalCurve(p, CurvePoints)
	if len(curve) != CurvePoints {
		t.Fatalf("len = %d, want %d", len(curve), CurvePoints)
	}
	if math.Abs(curve[0].Time+p.OrbitalPeriod/2) > 1e-12 || math.Abs(curve[len(curve)-1].Time-p.OrbitalPeriod/2) > 1e-12 {
		t.Errorf("curve spans %v..%v, want ±P/2", curve[0].Time, curve[len(curve)-1].Time)
	}
	for i := 1; i < len(curve); i++ {
		if curve[i].Time <= curve[i-1].Time {
			t.Fatalf("curve not ordered at %d", i)
		}
		if curve[i].Flux > 1 {
			t.Fatalf("theoretical flux above 1 at %d", i)
		}
	}
	if MinFlux(curve) > 1-0.5*DepthFraction(p) {
		t.Errorf("curve minimum %v shows no transit", MinFlux(curve))
	}

	again := TheoreticalCurve(p, CurvePoints)
	for i := range curve {
		if curve[i] != again[i] {
			t.Fatalf("TheoreticalCurve not deterministic at %d", i)
		}
	}

	a := ObservedCurve(p, 200, NewRand(3))
	b := ObservedCurve(p, 200, NewRand(3))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("ObservedCurve with same seed differs at %d", i)
		}
	}
}

func TestSamplerRingBuffer(t *testing.T) {
	p := MustParams(DefaultOptions())
	s := NewSampler(p, 5, NewRand(1))
	const dt = 0.1
	for i := 0; i < 7; i++ {
		if _, ok := s.Tick(dt); !ok {
			t.Fatal("running sampler should record")
		}
	}
	if s.Len() != 5 {
		t.Fatalf("Len = %d, want 5", s.Len())
	}
	got := s.Samples()
	for i := 1; i < len(got); i++ {
		if got[i].Time <= got[i-1].Time {
			t.Fatalf("samples not chronological: %v", got)
		}
	}
	if math.Abs(got[len(got)-1].Time-0.7) > 1e-9 || math.Abs(got[0].Time-0.3) > 1e-9 {
		t.Errorf("window = %v..%v, want 0.3..0.7", got[0].Time, got[len(got)-1].Time)
	}

	s.Pause()
	if _, ok := s.Tick(dt); ok || s.Len() != 5 {
		t.Error("paused sampler should not record")
	}
	s.Toggle()
	if !s.Running() {
		t.Error("Toggle should resume")
	}
	s.Reset()
	if s.Len() != 0 || s.Time() != 0 {
		t.Errorf("after Reset: len=%d t=%v", s.Len(), s.Time())
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	samples := []Sample{{Time: 0.5, Flux: 0.99, Phase: 0.25}, {Time: 1, Flux: 1, Phase: 0.5}}
	if err := WriteCSV(&buf, samples); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "Time,Flux,Phase" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "0.5000,0.990000,0.2500" {
		t.Errorf("row = %q", lines[1])
	}
}
