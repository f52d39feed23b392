package planet

import "fmt"

// Type is a planet archetype used to pick a surface style.
type Type int

const (
	TypeRocky Type = iota
	TypeSuperEarth
	TypeGas
	TypeIce
)

// Classification thresholds in Earth radii / distance units.
const (
	RockyMaxRadius      = 1.25
	SuperEarthMaxRadius = 2.0
	IceMinDistance      = 5.0
	IceMaxRadius        = 4.0
)

// String returns the archetype tag.
func (t Type) String() string {
	switch t {
	case TypeRocky:
		return "rocky"
	case TypeSuperEarth:
		return "super-earth"
	case TypeGas:
		return "gas"
	case TypeIce:
		return "ice"
	default:
		return "unknown"
	}
}

// Label returns a human-readable archetype name.
func (t Type) Label() string {
	switch t {
	case TypeRocky:
		return "Rocky planet"
	case TypeSuperEarth:
		return "Super-Earth"
	case TypeGas:
		return "Gas giant"
	case TypeIce:
		return "Ice world"
	default:
		return "Unknown"
	}
}

// Types lists every archetype in declaration order.
var Types = []Type{TypeRocky, TypeSuperEarth, TypeGas, TypeIce}

// ParseType parses an archetype tag.
func ParseType(s string) (Type, error) {
	switch s {
	case "rocky":
		return TypeRocky, nil
	case "super-earth", "superearth":
		return TypeSuperEarth, nil
	case "gas":
		return TypeGas, nil
	case "ice":
		return TypeIce, nil
	default:
		return 0, fmt.Errorf("unknown planet type %q", s)
	}
}

// Classify maps radius (Earth radii) and distance to an archetype.
// Branch order matters: the ice branch only sees radius >= 2, so it catches
// every distant planet and every close one below 4 Earth radii.
func Classify(radius, distance float64) Type {
	if radius < RockyMaxRadius {
		return TypeRocky
	}
	if radius < SuperEarthMaxRadius {
		return TypeSuperEarth
	}
	if distance > IceMinDistance || radius < IceMaxRadius {
		return TypeIce
	}
	return TypeGas
}
