package planet

// Habitable-zone bounds in distance units.
const (
	HabitableInner = 0.95
	HabitableOuter = 1.37
)

// Zone describes where a distance falls relative to the habitable zone.
type Zone int

const (
	ZoneTooHot Zone = iota
	ZoneHabitable
	ZoneTooCold
)

func (z Zone) String() string {
	switch z {
	case ZoneTooHot:
		return "too hot"
	case ZoneHabitable:
		return "habitable"
	case ZoneTooCold:
		return "too cold"
	default:
		return "unknown"
	}
}

// HabitableZone classifies a distance. Both bounds are inclusive.
func HabitableZone(distance float64) Zone {
	switch {
	case distance < HabitableInner:
		return ZoneTooHot
	case distance > HabitableOuter:
		return ZoneTooCold
	default:
		return ZoneHabitable
	}
}

// Professional display thresholds in Earth radii.
const (
	AtmosphereThreshold = 2.0
	RingThreshold       = 4.0
)

// DisplayRadius returns the clamped radius used for the professional preview.
func DisplayRadius(radius float64) float64 {
	r := radius * 0.3
	if r < 0.5 {
		return 0.5
	}
	if r > 2 {
		return 2
	}
	return r
}

// HasAtmosphere reports whether a planet of this radius gets an atmosphere shell.
func HasAtmosphere(radius float64) bool {
	return radius > AtmosphereThreshold
}

// HasRings reports whether a planet of this radius gets a ring system.
func HasRings(radius float64) bool {
	return radius > RingThreshold
}
