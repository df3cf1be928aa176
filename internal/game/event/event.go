package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgworld/internal/game/stats"
)

// Event states.
const (
	StatePending   = "pending"
	StateTriggered = "triggered"
)

const (
	transitionFire  = "fire"
	transitionReset = "reset"
)

// ErrNoName is returned by New when the event name is empty.
var ErrNoName = errors.New("event name must not be empty")

// Action runs once when an Event fires.
type Action func(st State) error

// Event is a one-shot action gated by an AND over triggers.
// It moves pending -> triggered exactly once per Reset.
// Event is not safe for concurrent use.
type Event struct {
	name        string
	description string
	triggers    []Trigger
	action      Action

	machine   *fsm.FSM
	actionErr error
	logger    *zap.Logger
}

// New creates a pending Event. A nil action makes the event a pure
// progress marker, as used by quest objectives.
//
// Precondition: name is non-empty.
// Postcondition: Triggered() is false.
func New(name, description string, triggers []Trigger, action Action, logger *zap.Logger) (*Event, error) {
	if name == "" {
		return nil, ErrNoName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Event{
		name:        name,
		description: description,
		triggers:    append([]Trigger(nil), triggers...),
		action:      action,
		logger:      logger,
	}
	e.machine = fsm.NewFSM(
		StatePending,
		fsm.Events{
			{Name: transitionFire, Src: []string{StatePending}, Dst: StateTriggered},
			{Name: transitionReset, Src: []string{StateTriggered}, Dst: StatePending},
		},
		fsm.Callbacks{
			"before_" + transitionFire: e.runAction,
		},
	)
	return e, nil
}

// runAction executes the action as part of the fire transition. A failing
// action cancels the transition so the event stays pending.
func (e *Event) runAction(_ context.Context, fe *fsm.Event) {
	e.actionErr = nil
	if e.action == nil {
		return
	}
	st, _ := fe.Args[0].(State)
	if err := e.action(st); err != nil {
		e.actionErr = err
		fe.Cancel(err)
	}
}

// Name returns the event name.
func (e *Event) Name() string { return e.name }

// Description returns the event description.
func (e *Event) Description() string { return e.description }

// Triggers returns a copy of the trigger list.
func (e *Event) Triggers() []Trigger { return append([]Trigger(nil), e.triggers...) }

// Triggered reports whether the event has fired since the last Reset.
func (e *Event) Triggered() bool { return e.machine.Is(StateTriggered) }

// State returns the current state name.
func (e *Event) State() string { return e.machine.Current() }

// CheckTriggers evaluates every trigger and, when all hold, runs the action
// and moves to triggered. Once triggered it returns false without
// evaluating anything until Reset.
//
// Postcondition: returns true exactly when this call fired the event.
// Trigger and action errors are returned and leave the event pending.
func (e *Event) CheckTriggers(st State) (bool, error) {
	if e.Triggered() {
		return false, nil
	}
	ok, err := All(st, e.triggers)
	if err != nil {
		return false, fmt.Errorf("event %q: %w", e.name, err)
	}
	if !ok {
		return false, nil
	}
	if err := e.machine.Event(context.Background(), transitionFire, st); err != nil {
		if e.actionErr != nil {
			err = e.actionErr
		}
		return false, fmt.Errorf("event %q: action: %w", e.name, err)
	}
	e.logger.Info("event triggered", zap.String("event", e.name))
	return true, nil
}

// Reset returns a triggered event to pending without re-running its action.
// Resetting a pending event is a no-op.
func (e *Event) Reset() {
	if !e.Triggered() {
		return
	}
	if err := e.machine.Event(context.Background(), transitionReset); err != nil {
		panic(fmt.Sprintf("event %q: reset: %v", e.name, err))
	}
	e.logger.Debug("event reset", zap.String("event", e.name))
}

// Restore sets the triggered flag directly, without running the action.
func (e *Event) Restore(triggered bool) {
	if triggered {
		e.machine.SetState(StateTriggered)
		return
	}
	e.machine.SetState(StatePending)
}

func (e *Event) String() string {
	return fmt.Sprintf("Event(%s, %s)", e.name, e.State())
}

// NewHealEvent returns an Event that restores a character's health to its
// max_health when fired.
//
// Precondition: name and characterID are non-empty.
func NewHealEvent(name, characterID string, triggers []Trigger, logger *zap.Logger) (*Event, error) {
	if characterID == "" {
		return nil, fmt.Errorf("heal event %q: character id must not be empty", name)
	}
	return New(name, "Heals "+characterID+" to full health.", triggers, func(st State) error {
		c, err := st.Character(characterID)
		if err != nil {
			return err
		}
		max, ok := c.Stats().Get(stats.MaxPrefix + stats.Health)
		if !ok {
			return fmt.Errorf("character %q has no %s%s", characterID, stats.MaxPrefix, stats.Health)
		}
		c.Stats().Set(stats.Health, max)
		return nil
	}, logger)
}
