package transit

import "math/rand/v2"

// DefaultWindow is the default number of samples kept by a Sampler.
const DefaultWindow = 500

// Sampler produces observed samples on each tick and keeps the most recent
// ones in a ring buffer. It has a single owner and is not safe for
// concurrent use.
type Sampler struct {
	params  Params
	rng     *rand.Rand
	t       float64
	running bool

	// ring buffer
	buf     []Sample
	size    int
	writeAt int
}

// NewSampler creates a running sampler with room for window samples.
func NewSampler(p Params, window int, rng *rand.Rand) *Sampler {
	if window <= 0 {
		window = DefaultWindow
	}
	if rng == nil {
		rng = NewRand(1)
	}
	return &Sampler{
		params:  p,
		rng:     rng,
		running: true,
		buf:     make([]Sample, 0, window),
		size:    window,
	}
}

// Tick advances simulated time by dtDays and records one sample. A paused
// sampler does nothing and reports false.
func (s *Sampler) Tick(dtDays float64) (Sample, bool) {
	if !s.running {
		return Sample{}, false
	}
	s.t += dtDays
	smp := Observe(s.t, s.params, s.rng)
	s.push(smp)
	return smp, true
}

func (s *Sampler) push(smp Sample) {
	if len(s.buf) < s.size {
		s.buf = append(s.buf, smp)
		return
	}
	s.buf[s.writeAt] = smp
	s.writeAt = (s.writeAt + 1) % s.size
}

// Samples returns the window in chronological order.
func (s *Sampler) Samples() []Sample {
	out := make([]Sample, 0, len(s.buf))
	if len(s.buf) < s.size {
		return append(out, s.buf...)
	}
	out = append(out, s.buf[s.writeAt:]...)
	return append(out, s.buf[:s.writeAt]...)
}

// Len returns the number of buffered samples.
func (s *Sampler) Len() int { return len(s.buf) }

// Window returns the buffer capacity.
func (s *Sampler) Window() int { return s.size }

// Time returns the simulated time in days.
func (s *Sampler) Time() float64 { return s.t }

// Running reports whether ticks produce samples.
func (s *Sampler) Running() bool { return s.running }

// Play resumes sampling.
func (s *Sampler) Play() { s.running = true }

// Pause stops sampling; buffered samples are kept.
func (s *Sampler) Pause() { s.running = false }

// Toggle flips between playing and paused.
func (s *Sampler) Toggle() { s.running = !s.running }

// Reset clears the buffer and rewinds time to zero.
func (s *Sampler) Reset() {
	s.buf = s.buf[:0]
	s.writeAt = 0
	s.t = 0
}

// Params returns the current parameters.
func (s *Sampler) Params() Params { return s.params }

// SetParams replaces the parameters. Buffered samples are kept so the trace
// shows the change.
func (s *Sampler) SetParams(p Params) { s.params = p }
