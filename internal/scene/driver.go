// Package scene turns session planets into per-frame transforms.
//
// A scheduler calls Driver.Advance once per tick. The driver reads the
// session, evaluates the orbit and rotation rules, and returns a Frame for
// whatever renderer is listening. It has a single owner and is not safe for
// concurrent use.
package scene

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/litescript/ls-transit/internal/logging"
	"github.com/litescript/ls-transit/internal/orbit"
	"github.com/litescript/ls-transit/internal/planet"
	"github.com/litescript/ls-transit/internal/scale"
	"github.com/litescript/ls-transit/internal/state"
)

// Mode selects circular or perturbed orbits.
type Mode int

const (
	ModeSimplified Mode = iota
	ModeRealistic
)

func (m Mode) String() string {
	if m == ModeRealistic {
		return "realistic"
	}
	return "simplified"
}

// ParseMode parses a mode name, defaulting to simplified.
func ParseMode(s string) Mode {
	if s == "realistic" {
		return ModeRealistic
	}
	return ModeSimplified
}

// Rotation rates in radians per second.
const (
	SpinRate       = 0.6
	AtmosphereRate = 0.3
)

// Config holds driver settings.
type Config struct {
	// TimeScale multiplies dt before it reaches the orbits.
	TimeScale float64
	Mode      Mode
	Scaler    scale.Scaler
}

// DefaultConfig returns the stock driver settings.
func DefaultConfig() Config {
	return Config{
		TimeScale: 1,
		Mode:      ModeSimplified,
		Scaler:    scale.Default(),
	}
}

// Body is one planet's transform and display attributes for a frame.
type Body struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Type           string      `json:"type"`
	Color          string      `json:"color"`
	Exoplanet      bool        `json:"isExoplanet"`
	Zone           string      `json:"zone"`
	Position       r3.Vector   `json:"position"`
	Radius         float64     `json:"radius"`
	OrbitRadius    float64     `json:"orbitRadius"`
	Angle          float64     `json:"angle"`
	Spin           float64     `json:"spin"`
	AtmosphereSpin float64     `json:"atmosphereSpin"`
	Wobble         float64     `json:"wobble"`
	Atmosphere     bool        `json:"atmosphere"`
	Rings          bool        `json:"rings"`
	Selected       bool        `json:"selected"`
	Hovered        bool        `json:"hovered"`
	planetType     planet.Type
}

// PlanetType returns the archetype behind Type.
func (b Body) PlanetType() planet.Type { return b.planetType }

// Frame is the output of one Advance call.
type Frame struct {
	Seq        uint64  `json:"seq"`
	Elapsed    float64 `json:"elapsed"`
	Clock      float64 `json:"clock"`
	Paused     bool    `json:"paused"`
	Mode       string  `json:"mode"`
	StarRadius float64 `json:"starRadius"`
	StarScale  float64 `json:"starScale"`
	Bodies     []Body  `json:"bodies"`
}

// FrameObserver is notified after each frame.
type FrameObserver interface {
	FrameRendered()
}

// Driver advances simulated time and assembles frames.
type Driver struct {
	session *state.Session
	cfg     Config
	log     *logging.Logger
	obs     FrameObserver

	elapsed float64 // orbital time, frozen while paused
	clock   float64 // wall time, drives spin and pulse
	paused  bool
	seq     uint64
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the driver's logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Driver) {
		d.log = l
	}
}

// WithObserver sets a frame observer.
func WithObserver(o FrameObserver) Option {
	return func(d *Driver) {
		d.obs = o
	}
}

// NewDriver creates a driver reading planets from session.
func NewDriver(session *state.Session, cfg Config, opts ...Option) *Driver {
	if cfg.TimeScale <= 0 {
		cfg.TimeScale = 1
	}
	if cfg.Scaler == (scale.Scaler{}) {
		cfg.Scaler = scale.Default()
	}
	d := &Driver{
		session: session,
		cfg:     cfg,
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Advance moves time forward by dt seconds and returns the resulting frame.
// Negative dt is treated as zero.
func (d *Driver) Advance(dt float64) Frame {
	if dt < 0 {
		dt = 0
	}
	d.clock += dt
	if !d.paused {
		d.elapsed += dt * d.cfg.TimeScale
	}
	d.seq++

	f := d.Frame()
	if d.obs != nil {
		d.obs.FrameRendered()
	}
	return f
}

// Frame assembles a frame for the current time without advancing it.
func (d *Driver) Frame() Frame {
	snap := d.session.Snapshot()
	ecc := 0.0
	if d.cfg.Mode == ModeRealistic {
		ecc = orbit.EllipticalEccentricity
	}

	bodies := make([]Body, 0, len(snap.Planets))
	for _, p := range snap.Planets {
		bodies = append(bodies, d.body(p, ecc, snap))
	}

	return Frame{
		Seq:        d.seq,
		Elapsed:    d.elapsed,
		Clock:      d.clock,
		Paused:     d.paused,
		Mode:       d.cfg.Mode.String(),
		StarRadius: scale.StarRadius,
		StarScale:  StarPulse(d.clock),
		Bodies:     bodies,
	}
}

func (d *Driver) body(p planet.Data, ecc float64, snap state.Snapshot) Body {
	f := p.Features
	typ := f.Type()
	orbitR := d.cfg.Scaler.Distance(f.Distance)
	angle := orbit.Angle(d.elapsed, f.Period, d.cfg.Scaler)
	if math.IsInf(angle, 0) || math.IsNaN(angle) {
		d.log.Warn("planet %s has unusable period %v", p.ID, f.Period)
		angle = 0
	}

	return Body{
		ID:             p.ID,
		Name:           p.DisplayName(),
		Type:           typ.String(),
		Color:          scale.ColorForProbability(p.Probability).Hex(),
		Exoplanet:      p.IsExoplanet(),
		Zone:           planet.HabitableZone(f.Distance).String(),
		Position:       orbit.Position(angle, orbitR, ecc),
		Radius:         d.cfg.Scaler.Radius(f.Radius),
		OrbitRadius:    orbitR,
		Angle:          math.Mod(angle, 2*math.Pi),
		Spin:           math.Mod(d.clock*SpinRate, 2*math.Pi),
		AtmosphereSpin: math.Mod(d.clock*AtmosphereRate, 2*math.Pi),
		Wobble:         Wobble(d.clock),
		Atmosphere:     planet.HasAtmosphere(f.Radius),
		Rings:          planet.HasRings(f.Radius),
		Selected:       p.ID == snap.Selected,
		Hovered:        p.ID == snap.Hovered,
		planetType:     typ,
	}
}

// StarPulse returns the star's scale factor at clock time t.
func StarPulse(t float64) float64 {
	return 1 + 0.05*math.Sin(0.5*t)
}

// Wobble returns the vertical bob of a showcased planet at clock time t.
func Wobble(t float64) float64 {
	return 0.1 * math.Sin(0.5*t)
}

// Pause freezes orbital motion.
func (d *Driver) Pause() { d.paused = true }

// Play resumes orbital motion.
func (d *Driver) Play() { d.paused = false }

// TogglePause flips pause and returns the new state.
func (d *Driver) TogglePause() bool {
	d.paused = !d.paused
	d.log.Debug("paused=%v", d.paused)
	return d.paused
}

// Paused reports whether orbits are frozen.
func (d *Driver) Paused() bool { return d.paused }

// ResetOrbits puts every planet back at angle zero.
func (d *Driver) ResetOrbits() {
	d.elapsed = 0
	d.log.Debug("orbits reset")
}

// Mode returns the current orbit mode.
func (d *Driver) Mode() Mode { return d.cfg.Mode }

// SetMode switches between simplified and realistic orbits.
func (d *Driver) SetMode(m Mode) { d.cfg.Mode = m }

// ToggleMode flips the orbit mode and returns the new one.
func (d *Driver) ToggleMode() Mode {
	if d.cfg.Mode == ModeRealistic {
		d.cfg.Mode = ModeSimplified
	} else {
		d.cfg.Mode = ModeRealistic
	}
	return d.cfg.Mode
}

// Elapsed returns the orbital time in seconds.
func (d *Driver) Elapsed() float64 { return d.elapsed }

// Scaler returns the scale constants in use.
func (d *Driver) Scaler() scale.Scaler { return d.cfg.Scaler }

// Session returns the session the driver reads.
func (d *Driver) Session() *state.Session { return d.session }
