package event

import (
	"errors"
	"fmt"
)

// Manager holds events and checks them in insertion order.
type Manager struct {
	ID          string
	Name        string
	Description string

	events []*Event
}

// NewManager creates an empty Manager.
func NewManager(id, name, description string) *Manager {
	return &Manager{ID: id, Name: name, Description: description}
}

// Add appends e.
//
// Precondition: e is non-nil.
func (m *Manager) Add(e *Event) {
	m.events = append(m.events, e)
}

// Replace swaps in e for the first event with the same name, keeping its
// position, or appends e when there is none. It reports whether an event
// was replaced.
func (m *Manager) Replace(e *Event) bool {
	for i, old := range m.events {
		if old.Name() == e.Name() {
			m.events[i] = e
			return true
		}
	}
	m.events = append(m.events, e)
	return false
}

// Remove deletes the first event named name. It reports whether one was removed.
func (m *Manager) Remove(name string) bool {
	for i, e := range m.events {
		if e.Name() == name {
			m.events = append(m.events[:i], m.events[i+1:]...)
			return true
		}
	}
	return false
}

// Event returns the first event named name.
func (m *Manager) Event(name string) (*Event, bool) {
	for _, e := range m.events {
		if e.Name() == name {
			return e, true
		}
	}
	return nil, false
}

// Events returns a copy of the events in insertion order.
func (m *Manager) Events() []*Event {
	return append([]*Event(nil), m.events...)
}

// Len returns the number of events.
func (m *Manager) Len() int { return len(m.events) }

// AllTriggered reports whether every event has fired. An empty manager
// reports true.
func (m *Manager) AllTriggered() bool {
	for _, e := range m.events {
		if !e.Triggered() {
			return false
		}
	}
	return true
}

// CheckEvents calls CheckTriggers on every pending event in insertion
// order. An error from one event does not stop the others; all errors are
// joined.
//
// Postcondition: returns the names of events fired by this call.
func (m *Manager) CheckEvents(st State) ([]string, error) {
	var fired []string
	var errs []error
	for _, e := range m.events {
		if e.Triggered() {
			continue
		}
		ok, err := e.CheckTriggers(st)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			fired = append(fired, e.Name())
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fired, fmt.Errorf("event manager %q: %w", m.ID, err)
	}
	return fired, nil
}

// Snapshot returns event name to triggered flag.
func (m *Manager) Snapshot() map[string]bool {
	out := make(map[string]bool, len(m.events))
	for _, e := range m.events {
		out[e.Name()] = e.Triggered()
	}
	return out
}

// Restore sets each named event's triggered flag. Unknown names are
// reported as an error wrapping ErrNotFound.
func (m *Manager) Restore(flags map[string]bool) error {
	var errs []error
	for name, triggered := range flags {
		e, ok := m.Event(name)
		if !ok {
			errs = append(errs, fmt.Errorf("event %q: %w", name, ErrNotFound))
			continue
		}
		e.Restore(triggered)
	}
	return errors.Join(errs...)
}
