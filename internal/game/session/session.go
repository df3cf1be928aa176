package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgworld/internal/game/character"
	"github.com/cory-johannsen/rpgworld/internal/game/combat"
	"github.com/cory-johannsen/rpgworld/internal/game/event"
)

// Session owns the game state, the world event manager, the action queue
// and the game clock. Update advances all of them by one step.
// Session is not safe for concurrent use; drive it from a single Loop.
type Session struct {
	state   *State
	events  *event.Manager
	actions *combat.ActionQueue
	clock   *Clock
	logger  *zap.Logger
}

// New creates a Session.
//
// Precondition: state, events and clock are non-nil.
func New(state *State, events *event.Manager, clock *Clock, logger *zap.Logger) *Session {
	if state == nil || events == nil || clock == nil {
		panic("session.New: state, events and clock must be non-nil: precondition violated")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		state:   state,
		events:  events,
		actions: combat.NewActionQueue(),
		clock:   clock,
		logger:  logger,
	}
}

// State returns the game state.
func (s *Session) State() *State { return s.state }

// Events returns the world event manager.
func (s *Session) Events() *event.Manager { return s.events }

// Clock returns the game clock.
func (s *Session) Clock() *Clock { return s.clock }

// Now returns the current game time.
func (s *Session) Now() time.Duration { return s.clock.Now() }

// Schedule queues fn to run once game time has advanced by delay.
//
// Precondition: fn is non-nil; delay >= 0.
func (s *Session) Schedule(name string, delay time.Duration, fn func() error) {
	s.actions.Schedule(combat.Action{Name: name, At: s.clock.Now() + delay, Execute: fn})
}

// PendingActions returns the number of scheduled actions not yet run.
func (s *Session) PendingActions() int { return s.actions.Len() }

// Update advances game time by dt, then runs due actions, world events and
// quest objectives in that order. Errors from each stage are joined; a
// failing stage does not stop the later ones.
//
// Precondition: dt >= 0.
func (s *Session) Update(dt time.Duration) error {
	if s.clock.Advance(dt) {
		h := s.clock.Hour()
		s.logger.Info("hour changed", zap.Stringer("hour", h), zap.String("period", string(h.Period())))
	}
	var errs []error
	ran, err := s.actions.RunDue(s.clock.Now())
	if err != nil {
		errs = append(errs, err)
	}
	fired, err := s.events.CheckEvents(s.state)
	if err != nil {
		errs = append(errs, err)
	}
	if err := s.state.quests.CheckAll(s.state); err != nil {
		errs = append(errs, err)
	}
	if ran > 0 || len(fired) > 0 {
		s.logger.Debug("update",
			zap.Duration("now", s.clock.Now()),
			zap.Int("actions", ran),
			zap.Strings("events", fired),
		)
	}
	return errors.Join(errs...)
}

// Cast has casterID cast the named spell at targetID using the current
// game time.
func (s *Session) Cast(casterID, spell, targetID string) (bool, error) {
	caster, err := s.state.Player(casterID)
	if err != nil {
		return false, err
	}
	target, err := s.state.Player(targetID)
	if err != nil {
		return false, err
	}
	return caster.CastSpell(spell, target, s.clock.Now())
}

// Move moves the party to a connected location.
func (s *Session) Move(locationID string) error {
	return s.state.world.MoveTo(locationID, nil)
}

// Battle runs a battle between the named characters until one side is
// defeated or maxTurns is reached. act chooses each combatant's action.
func (s *Session) Battle(ctx context.Context, players, enemies []string, order combat.OrderFormula, act combat.ActFunc, maxTurns int) (combat.Outcome, error) {
	ps, err := s.combatants(players)
	if err != nil {
		return combat.Ongoing, err
	}
	es, err := s.combatants(enemies)
	if err != nil {
		return combat.Ongoing, err
	}
	b := combat.NewBattleManager(ps, es, order, s.logger.Named("combat"))
	outcome, err := b.Run(ctx, act, maxTurns)
	if err != nil {
		return outcome, fmt.Errorf("battle: %w", err)
	}
	return outcome, nil
}

func (s *Session) combatants(ids []string) ([]combat.Combatant, error) {
	out := make([]combat.Combatant, 0, len(ids))
	for _, id := range ids {
		c, err := s.state.Player(id)
		if err != nil {
			return nil, fmt.Errorf("battle: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// AddCharacter registers c with the game state.
func (s *Session) AddCharacter(c *character.Character) error { return s.state.AddCharacter(c) }
