package planet

import (
	"fmt"

	"github.com/google/uuid"
)

// DidacticPlanets returns the built-in teaching set. Each call returns fresh copies.
func DidacticPlanets() []Data {
	return []Data{
		{
			ID:          "kepler-22b",
			Name:        "Kepler-22b",
			Probability: Float64(0.82),
			Features: Features{
				Radius: 2.4, Period: 289.9, Distance: 8.5,
				Depth: Float64(250), Duration: Float64(5.2), SNR: Float64(12.5),
			},
		},
		{
			ID:          "hd-209458b",
			Name:        "HD 209458b",
			Probability: Float64(0.95),
			Features: Features{
				Radius: 1.38, Period: 3.5, Distance: 3.2,
				Depth: Float64(1500), Duration: Float64(3.0), SNR: Float64(18.2),
			},
		},
		{
			ID:          "trappist-1e",
			Name:        "TRAPPIST-1e",
			Probability: Float64(0.65),
			Features: Features{
				Radius: 0.92, Period: 6.1, Distance: 4.5,
				Depth: Float64(80), Duration: Float64(1.8), SNR: Float64(8.7),
			},
		},
	}
}

// NewDidacticPlanet returns the default candidate created by an add action.
// n is the 1-based position used in the generated name.
func NewDidacticPlanet(n int) Data {
	return Data{
		ID:          NewID(),
		Name:        fmt.Sprintf("Planet %d", n),
		Probability: Float64(0.5),
		Features: Features{
			Radius: 1, Period: 365, Distance: 5,
			Depth: Float64(100), Duration: Float64(3), SNR: Float64(5),
		},
	}
}

// EarthAnalog returns the slider defaults: one Earth radius at one distance unit.
func EarthAnalog() Features {
	return Features{Radius: 1, Period: 365, Distance: 1}
}

// NewID returns a fresh unique planet ID.
func NewID() string {
	return uuid.New().String()
}
