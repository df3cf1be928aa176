package world

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrLocationNotFound is returned when a location ID is not registered.
var ErrLocationNotFound = errors.New("location not found")

// ErrNotConnected is returned by MoveTo when the destination is not
// connected to the current location.
var ErrNotConnected = errors.New("locations are not connected")

// ErrNoCurrentLocation is returned by MoveTo before a start location is set.
var ErrNoCurrentLocation = errors.New("no current location")

// World holds every location and tracks the party's current one.
// World is not safe for concurrent use.
type World struct {
	ID   string
	Name string

	locations map[string]*Location
	start     string
	current   *Location
	logger    *zap.Logger
}

// New creates an empty World.
//
// Precondition: id is non-empty.
// Postcondition: returns ErrMissingID when id is empty.
func New(id, name string, logger *zap.Logger) (*World, error) {
	if id == "" {
		return nil, fmt.Errorf("world %q: %w", name, ErrMissingID)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &World{
		ID:        id,
		Name:      name,
		locations: make(map[string]*Location),
		logger:    logger,
	}, nil
}

// AddLocation registers loc, replacing any location with the same ID.
//
// Precondition: loc is non-nil with a non-empty ID.
func (w *World) AddLocation(loc *Location) {
	w.locations[loc.ID] = loc
}

// Location returns the location with the given ID.
//
// Postcondition: Returns (location, true) if found, or (nil, false) otherwise.
func (w *World) Location(id string) (*Location, bool) {
	loc, ok := w.locations[id]
	return loc, ok
}

// SetStart sets the starting location and makes it current.
//
// Postcondition: returns ErrLocationNotFound for an unknown id.
func (w *World) SetStart(id string) error {
	loc, ok := w.locations[id]
	if !ok {
		return fmt.Errorf("world %q: start %q: %w", w.ID, id, ErrLocationNotFound)
	}
	w.start = id
	w.current = loc
	w.logger.Info("starting location set", zap.String("location", id))
	return nil
}

// Start returns the starting location ID, or "" when unset.
func (w *World) Start() string { return w.start }

// Current returns the current location, or nil before SetStart.
func (w *World) Current() *Location { return w.current }

// CurrentLocationID returns the current location ID, or "" before SetStart.
func (w *World) CurrentLocationID() string {
	if w.current == nil {
		return ""
	}
	return w.current.ID
}

// MoveTo moves to a location connected to the current one, optionally
// updating the position within it.
//
// Precondition: SetStart has been called.
// Postcondition: on success Current().ID == id; on error nothing changes.
func (w *World) MoveTo(id string, pos *Position) error {
	dest, ok := w.locations[id]
	if !ok {
		return fmt.Errorf("world %q: move to %q: %w", w.ID, id, ErrLocationNotFound)
	}
	if w.current == nil {
		return fmt.Errorf("world %q: move to %q: %w", w.ID, id, ErrNoCurrentLocation)
	}
	if !w.current.IsConnected(id) {
		w.logger.Warn("move rejected: not connected",
			zap.String("from", w.current.ID),
			zap.String("to", id),
		)
		return fmt.Errorf("world %q: %q -> %q: %w", w.ID, w.current.ID, id, ErrNotConnected)
	}
	w.current = dest
	if pos != nil {
		dest.Position = *pos
	}
	w.logger.Info("moved", zap.String("location", id))
	return nil
}

// LocationCount returns the number of registered locations.
func (w *World) LocationCount() int { return len(w.locations) }

// State is the persisted form of a World's mutable state.
type State struct {
	Current   string              `json:"current,omitempty" yaml:"current,omitempty"`
	Positions map[string]Position `json:"positions,omitempty" yaml:"positions,omitempty"`
}

// Snapshot returns the current location and every location's position.
func (w *World) Snapshot() State {
	s := State{Current: w.CurrentLocationID(), Positions: make(map[string]Position, len(w.locations))}
	for id, loc := range w.locations {
		s.Positions[id] = loc.Position
	}
	return s
}

// Restore applies s to a World built from the same definition.
//
// Postcondition: returns ErrLocationNotFound when s names an unknown location.
func (w *World) Restore(s State) error {
	for id, p := range s.Positions {
		loc, ok := w.locations[id]
		if !ok {
			return fmt.Errorf("world %q: restoring position of %q: %w", w.ID, id, ErrLocationNotFound)
		}
		loc.Position = p
	}
	if s.Current == "" {
		w.current = nil
		return nil
	}
	loc, ok := w.locations[s.Current]
	if !ok {
		return fmt.Errorf("world %q: restoring current %q: %w", w.ID, s.Current, ErrLocationNotFound)
	}
	w.current = loc
	return nil
}
