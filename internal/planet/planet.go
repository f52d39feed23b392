// Package planet defines exoplanet candidate records and their archetype classification.
package planet

import (
	"errors"
	"fmt"
)

// ErrInvalidFeatures is returned when a candidate's required features are not strictly positive.
var ErrInvalidFeatures = errors.New("invalid planet features")

// Features holds the measured or entered properties of a candidate.
// Optional fields are nil when unknown; nil never means zero.
type Features struct {
	Radius   float64  `json:"radius"`             // Earth radii
	Period   float64  `json:"period"`             // days
	Distance float64  `json:"distance"`           // relative AU-like units
	Depth    *float64 `json:"depth,omitempty"`    // ppm
	Duration *float64 `json:"duration,omitempty"` // hours
	SNR      *float64 `json:"snr,omitempty"`
}

// Validate checks that radius, period and distance are strictly positive.
func (f Features) Validate() error {
	if !(f.Radius > 0) {
		return fmt.Errorf("%w: radius must be > 0, got %v", ErrInvalidFeatures, f.Radius)
	}
	if !(f.Period > 0) {
		return fmt.Errorf("%w: period must be > 0, got %v", ErrInvalidFeatures, f.Period)
	}
	if !(f.Distance > 0) {
		return fmt.Errorf("%w: distance must be > 0, got %v", ErrInvalidFeatures, f.Distance)
	}
	return nil
}

// Type returns the archetype derived from radius and distance.
func (f Features) Type() Type {
	return Classify(f.Radius, f.Distance)
}

// Data is a single candidate as shown in the scene.
type Data struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Probability *float64 `json:"probability,omitempty"` // 0-1
	Exoplanet   *bool    `json:"isExoplanet,omitempty"`
	Features    Features `json:"features"`
}

// IsExoplanet reports whether the candidate is considered a confirmed planet.
// An explicit flag wins; otherwise probability > 0.5 decides, and a missing
// probability counts as not confirmed.
func (d Data) IsExoplanet() bool {
	if d.Exoplanet != nil {
		return *d.Exoplanet
	}
	return d.Probability != nil && *d.Probability > 0.5
}

// DisplayName returns the name, falling back to the ID.
func (d Data) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// Type returns the candidate's archetype. It is always re-derived from the
// features and never stored.
func (d Data) Type() Type {
	return d.Features.Type()
}

// StatusLabel returns the professional-mode verdict label.
func (d Data) StatusLabel() string {
	if d.IsExoplanet() {
		return "Confirmed exoplanet"
	}
	return "False positive"
}

// Clone returns a deep copy so callers can't mutate shared optional fields.
func (d Data) Clone() Data {
	c := d
	c.Probability = cloneFloat(d.Probability)
	c.Exoplanet = cloneBool(d.Exoplanet)
	c.Features.Depth = cloneFloat(d.Features.Depth)
	c.Features.Duration = cloneFloat(d.Features.Duration)
	c.Features.SNR = cloneFloat(d.Features.SNR)
	return c
}

// Float64 returns a pointer to v, for populating optional fields.
func Float64(v float64) *float64 {
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneBool(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
