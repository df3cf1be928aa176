// Package event provides triggers, one-shot events and event managers.
package event

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/rpgworld/internal/game/effect"
	"github.com/cory-johannsen/rpgworld/internal/game/stats"
)

// ErrNotFound is wrapped by State lookups for unknown identifiers.
var ErrNotFound = errors.New("not found")

// State is the read-only game state triggers evaluate against. Lookups
// are strict: an unknown id returns an error wrapping ErrNotFound.
type State interface {
	Character(id string) (effect.Subject, error)
	CurrentLocationID() (string, error)
	QuestComplete(id string) (bool, error)
}

// Trigger is a side-effect-free predicate over State.
type Trigger interface {
	Evaluate(st State) (bool, error)
}

// HealthBelow fires while a character's health is strictly below Threshold.
type HealthBelow struct {
	CharacterID string
	Threshold   float64
}

// Evaluate reports health < Threshold.
//
// Postcondition: returns a wrapped ErrNotFound for an unknown character.
func (t HealthBelow) Evaluate(st State) (bool, error) {
	c, err := st.Character(t.CharacterID)
	if err != nil {
		return false, fmt.Errorf("health below %g: %w", t.Threshold, err)
	}
	return c.Stats().Value(stats.Health) < t.Threshold, nil
}

func (t HealthBelow) String() string {
	return fmt.Sprintf("health of %s below %g", t.CharacterID, t.Threshold)
}

// InLocation fires while the party is at LocationID.
type InLocation struct {
	LocationID string
}

// Evaluate reports whether the current location is LocationID.
func (t InLocation) Evaluate(st State) (bool, error) {
	cur, err := st.CurrentLocationID()
	if err != nil {
		return false, fmt.Errorf("in location %q: %w", t.LocationID, err)
	}
	return cur == t.LocationID, nil
}

func (t InLocation) String() string { return fmt.Sprintf("%s is reached", t.LocationID) }

// QuestCompleted fires once the quest QuestID is complete.
type QuestCompleted struct {
	QuestID string
}

// Evaluate reports whether QuestID is complete.
//
// Postcondition: returns a wrapped ErrNotFound for an unknown quest.
func (t QuestCompleted) Evaluate(st State) (bool, error) {
	done, err := st.QuestComplete(t.QuestID)
	if err != nil {
		return false, fmt.Errorf("quest completed %q: %w", t.QuestID, err)
	}
	return done, nil
}

func (t QuestCompleted) String() string { return fmt.Sprintf("quest %q is completed", t.QuestID) }

// TriggerFunc adapts a function to a Trigger.
type TriggerFunc func(st State) (bool, error)

// Evaluate calls fn.
func (fn TriggerFunc) Evaluate(st State) (bool, error) { return fn(st) }

// All evaluates triggers in order and reports whether every one holds.
// Evaluation stops at the first false or error. An empty list holds.
func All(st State, triggers []Trigger) (bool, error) {
	for _, t := range triggers {
		ok, err := t.Evaluate(st)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
