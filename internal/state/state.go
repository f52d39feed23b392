// Package state holds the session's planet collection with thread-safe access.
package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/litescript/ls-transit/internal/planet"
)

// ErrNotFound is returned when a planet ID is not in the session.
var ErrNotFound = errors.New("planet not found")

// EventType represents the type of state change event.
type EventType string

const (
	EventAdded    EventType = "ADDED"
	EventUpdated  EventType = "UPDATED"
	EventRemoved  EventType = "REMOVED"
	EventReplaced EventType = "REPLACED"
	EventSelected EventType = "SELECTED"
	EventAnalysis EventType = "ANALYSIS"
)

// Event represents a change to the session.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	PlanetID  string    `json:"planet_id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Observer is told the planet count after every change.
type Observer interface {
	SessionPlanets(n int)
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name        *string
	Probability *float64
	Exoplanet   *bool
	Radius      *float64
	Period      *float64
	Distance    *float64
	Depth       *float64
	Duration    *float64
	SNR         *float64
}

// Session owns the ordered planet list plus selection and hover. Insertion
// order is display order. There is no persistence.
type Session struct {
	mu sync.RWMutex

	planets  []planet.Data
	selected string
	hovered  string

	// Last analysis call
	lastAnalysis time.Time
	lastError    error
	analysisDur  time.Duration

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	observer Observer
}

// Config holds configuration for the session.
type Config struct {
	MaxEvents int
	// Didactic seeds the session with the built-in teaching planets.
	Didactic bool
	Observer Observer
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxEvents: 50,
		Didactic:  true,
	}
}

// NewSession creates a new session.
func NewSession(cfg Config) *Session {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	s := &Session{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
		observer:  cfg.Observer,
	}
	if cfg.Didactic {
		s.planets = planet.DidacticPlanets()
	}
	s.notify()
	return s
}

// SetPlanets replaces the whole collection. An empty list is valid.
// Selection and hover survive only if their planet is still present.
func (s *Session) SetPlanets(planets []planet.Data) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.planets = make([]planet.Data, 0, len(planets))
	for _, p := range planets {
		s.planets = append(s.planets, p.Clone())
	}
	if s.indexOf(s.selected) < 0 {
		s.selected = ""
	}
	if s.indexOf(s.hovered) < 0 {
		s.hovered = ""
	}
	s.addEvent(Event{Type: EventReplaced, Detail: fmt.Sprintf("%d planets", len(planets))})
	s.notify()
}

// ResetDidactic restores the built-in teaching planets.
func (s *Session) ResetDidactic() {
	s.SetPlanets(planet.DidacticPlanets())
}

// Add appends a planet. Features must be valid and the ID unique; an empty
// ID is replaced with a fresh one. It returns the stored ID.
func (s *Session) Add(p planet.Data) (string, error) {
	if err := p.Features.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = planet.NewID()
	}
	if s.indexOf(p.ID) >= 0 {
		return "", fmt.Errorf("planet %q already exists", p.ID)
	}
	s.planets = append(s.planets, p.Clone())
	s.addEvent(Event{Type: EventAdded, PlanetID: p.ID, Name: p.DisplayName()})
	s.notify()
	return p.ID, nil
}

// AddDefault appends a new planet with the stock add-action values.
func (s *Session) AddDefault() planet.Data {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := planet.NewDidacticPlanet(len(s.planets) + 1)
	s.planets = append(s.planets, p)
	s.addEvent(Event{Type: EventAdded, PlanetID: p.ID, Name: p.Name})
	s.notify()
	return p.Clone()
}

// Update applies a partial update in place. The result must still have
// valid features; otherwise nothing changes.
func (s *Session) Update(id string, patch Patch) (planet.Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return planet.Data{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	p := s.planets[i].Clone()
	patch.apply(&p)
	if err := p.Features.Validate(); err != nil {
		return planet.Data{}, err
	}
	s.planets[i] = p
	s.addEvent(Event{Type: EventUpdated, PlanetID: id, Name: p.DisplayName()})
	return p.Clone(), nil
}

func (pt Patch) apply(p *planet.Data) {
	if pt.Name != nil {
		p.Name = *pt.Name
	}
	if pt.Probability != nil {
		p.Probability = planet.Float64(*pt.Probability)
	}
	if pt.Exoplanet != nil {
		p.Exoplanet = planet.Bool(*pt.Exoplanet)
	}
	if pt.Radius != nil {
		p.Features.Radius = *pt.Radius
	}
	if pt.Period != nil {
		p.Features.Period = *pt.Period
	}
	if pt.Distance != nil {
		p.Features.Distance = *pt.Distance
	}
	if pt.Depth != nil {
		p.Features.Depth = planet.Float64(*pt.Depth)
	}
	if pt.Duration != nil {
		p.Features.Duration = planet.Float64(*pt.Duration)
	}
	if pt.SNR != nil {
		p.Features.SNR = planet.Float64(*pt.SNR)
	}
}

// Remove deletes a planet, clearing selection or hover if they pointed at it.
func (s *Session) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	name := s.planets[i].DisplayName()
	s.planets = append(s.planets[:i], s.planets[i+1:]...)
	if s.selected == id {
		s.selected = ""
	}
	if s.hovered == id {
		s.hovered = ""
	}
	s.addEvent(Event{Type: EventRemoved, PlanetID: id, Name: name})
	s.notify()
	return nil
}

// Select marks a planet as selected. An empty ID clears the selection.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" && s.indexOf(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.selected == id {
		return nil
	}
	s.selected = id
	s.addEvent(Event{Type: EventSelected, PlanetID: id})
	return nil
}

// Hover marks a planet as hovered. An empty ID clears it.
func (s *Session) Hover(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" && s.indexOf(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.hovered = id
	return nil
}

// Get returns a copy of one planet.
func (s *Session) Get(id string) (planet.Data, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return planet.Data{}, false
	}
	return s.planets[i].Clone(), true
}

// Len returns the number of planets.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.planets)
}

// RecordAnalysis stores the outcome of an analysis call. On success the
// returned planets replace the collection.
func (s *Session) RecordAnalysis(planets []planet.Data, d time.Duration, err error) {
	if err == nil {
		s.SetPlanets(planets)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAnalysis = time.Now()
	s.analysisDur = d
	s.lastError = err
	detail := fmt.Sprintf("%d candidates in %s", len(planets), d.Round(time.Millisecond))
	if err != nil {
		detail = err.Error()
	}
	s.addEvent(Event{Type: EventAnalysis, Detail: detail})
}

func (s *Session) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.planets {
		if s.planets[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) notify() {
	if s.observer != nil {
		s.observer.SessionPlanets(len(s.planets))
	}
}

// addEvent adds an event to the ring buffer.
func (s *Session) addEvent(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if len(s.events) < s.maxEvents {
		s.events = append(s.events, e)
	} else {
		s.events[s.eventWriteAt] = e
		s.eventWriteAt = (s.eventWriteAt + 1) % s.maxEvents
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Planets      []planet.Data
	Selected     string
	Hovered      string
	LastAnalysis time.Time
	LastError    error
	AnalysisDur  time.Duration
	Events       []Event
}

// Snapshot returns a consistent snapshot of current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	planets := make([]planet.Data, len(s.planets))
	for i, p := range s.planets {
		planets[i] = p.Clone()
	}

	return Snapshot{
		Planets:      planets,
		Selected:     s.selected,
		Hovered:      s.hovered,
		LastAnalysis: s.lastAnalysis,
		LastError:    s.lastError,
		AnalysisDur:  s.analysisDur,
		Events:       s.getEventsOrdered(),
	}
}

// SelectedPlanet returns the selected planet from a snapshot.
func (snap Snapshot) SelectedPlanet() (planet.Data, bool) {
	if snap.Selected == "" {
		return planet.Data{}, false
	}
	for _, p := range snap.Planets {
		if p.ID == snap.Selected {
			return p, true
		}
	}
	return planet.Data{}, false
}

// getEventsOrdered returns events in chronological order.
func (s *Session) getEventsOrdered() []Event {
	if len(s.events) == 0 {
		return nil
	}

	if len(s.events) < s.maxEvents {
		result := make([]Event, len(s.events))
		copy(result, s.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, s.maxEvents)
	for i := 0; i < s.maxEvents; i++ {
		idx := (s.eventWriteAt + i) % s.maxEvents
		result[i] = s.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (s *Session) RecentEvents(n int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}
