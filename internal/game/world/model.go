// Package world provides the world model: locations, their connections and
// the positions within them.
package world

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrMissingID is returned when a World or Location has no identifier.
var ErrMissingID = errors.New("id must not be empty")

// Position is a point within a location.
type Position struct {
	Name string  `json:"name,omitempty" yaml:"name,omitempty"`
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
}

// DistanceTo returns the Euclidean distance between p and other.
func (p Position) DistanceTo(other Position) float64 {
	return math.Hypot(other.X-p.X, other.Y-p.Y)
}

// Equals reports whether p and other share coordinates.
func (p Position) Equals(other Position) bool {
	return p.X == other.X && p.Y == other.Y
}

func (p Position) String() string {
	return fmt.Sprintf("Position(%q, %g, %g)", p.Name, p.X, p.Y)
}

// Location is a place in the world.
type Location struct {
	// ID uniquely identifies this location within the world.
	ID string
	// Name is the display name.
	Name string
	// Description is shown to players on arrival.
	Description string
	// Connected lists the IDs of locations reachable from here.
	Connected []string
	// Position is the current position within the location.
	Position Position
}

// IsConnected reports whether id is reachable from l.
func (l *Location) IsConnected(id string) bool {
	for _, c := range l.Connected {
		if c == id {
			return true
		}
	}
	return false
}

// Connect adds id to the connected set if absent.
func (l *Location) Connect(id string) {
	if !l.IsConnected(id) {
		l.Connected = append(l.Connected, id)
	}
}

// NewLocation creates a Location at the origin.
//
// Precondition: id is non-empty.
// Postcondition: returns ErrMissingID when id is empty.
func NewLocation(id, name, description string, connected ...string) (*Location, error) {
	if id == "" {
		return nil, fmt.Errorf("location %q: %w", name, ErrMissingID)
	}
	if name == "" {
		name = id
	}
	return &Location{
		ID:          id,
		Name:        name,
		Description: description,
		Connected:   append([]string(nil), connected...),
		Position:    Position{Name: name + " Position"},
	}, nil
}

// Validate checks world invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (w *World) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("world: %w", ErrMissingID)
	}
	if w.Name == "" {
		return fmt.Errorf("world %q: name must not be empty", w.ID)
	}
	if w.start != "" {
		if _, ok := w.locations[w.start]; !ok {
			return fmt.Errorf("world %q: start location %q not found", w.ID, w.start)
		}
	}
	for _, id := range w.LocationIDs() {
		loc := w.locations[id]
		if loc.ID != id {
			return fmt.Errorf("world %q: location key %q does not match location ID %q", w.ID, id, loc.ID)
		}
		for _, c := range loc.Connected {
			if _, ok := w.locations[c]; !ok {
				return fmt.Errorf("world %q: location %q: connection targets unknown location %q", w.ID, id, c)
			}
		}
	}
	return nil
}

// LocationIDs returns every location ID, sorted.
func (w *World) LocationIDs() []string {
	out := make([]string, 0, len(w.locations))
	for id := range w.locations {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
