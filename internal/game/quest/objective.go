package quest

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgworld/internal/game/event"
)

// Objective is a named goal within a quest. It wraps an action-less event:
// completing an objective only flips its flag.
type Objective struct {
	ev *event.Event
}

// NewObjective creates an incomplete objective that completes once every
// trigger holds.
//
// Precondition: name is non-empty.
func NewObjective(name, description string, triggers []event.Trigger, logger *zap.Logger) (*Objective, error) {
	ev, err := event.New(name, description, triggers, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("objective: %w", err)
	}
	return &Objective{ev: ev}, nil
}

// Name returns the objective name.
func (o *Objective) Name() string { return o.ev.Name() }

// Description returns the objective description.
func (o *Objective) Description() string { return o.ev.Description() }

// Completed reports whether the objective has been met.
func (o *Objective) Completed() bool { return o.ev.Triggered() }

// Check evaluates the objective's triggers.
//
// Postcondition: returns true exactly when this call completed the objective.
func (o *Objective) Check(st event.State) (bool, error) { return o.ev.CheckTriggers(st) }

// Event exposes the underlying event.
func (o *Objective) Event() *event.Event { return o.ev }

func (o *Objective) String() string {
	status := "Incomplete"
	if o.Completed() {
		status = "Completed"
	}
	return fmt.Sprintf("Objective: %s - %s [%s]", o.Name(), o.Description(), status)
}
