// Package quest models quests as sets of objectives backed by events.
package quest

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgworld/internal/game/event"
)

// ErrMissingID is returned when a quest has no identifier.
var ErrMissingID = errors.New("quest id must not be empty")

// ErrNotFound is returned when a quest ID is not registered.
var ErrNotFound = errors.New("quest not found")

// Rewards maps a reward name (e.g. "gold", "xp") to an amount.
type Rewards map[string]float64

// Quest is a named collection of objectives with rewards granted on
// completion. The objectives live in an event.Manager.
type Quest struct {
	ID          string
	Name        string
	Description string
	Rewards     Rewards

	objectives *event.Manager
	byName     map[string]*Objective
	order      []string
	claimed    bool
	logger     *zap.Logger
}

// NewQuest creates a quest with no objectives.
//
// Precondition: id is non-empty.
// Postcondition: returns ErrMissingID when id is empty.
func NewQuest(id, name, description string, rewards Rewards, logger *zap.Logger) (*Quest, error) {
	if id == "" {
		return nil, fmt.Errorf("quest %q: %w", name, ErrMissingID)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := make(Rewards, len(rewards))
	for k, v := range rewards {
		r[k] = v
	}
	return &Quest{
		ID:          id,
		Name:        name,
		Description: description,
		Rewards:     r,
		objectives:  event.NewManager(id, name, description),
		byName:      make(map[string]*Objective),
		logger:      logger,
	}, nil
}

// AddObjective appends o. An objective with the same name replaces the
// earlier one in place, so objectives are checked in Objectives order.
//
// Precondition: o is non-nil.
func (q *Quest) AddObjective(o *Objective) {
	if !q.objectives.Replace(o.Event()) {
		q.order = append(q.order, o.Name())
	}
	q.byName[o.Name()] = o
}

// Objective returns the named objective.
func (q *Quest) Objective(name string) (*Objective, bool) {
	o, ok := q.byName[name]
	return o, ok
}

// Objectives returns the objectives in the order they were added.
func (q *Quest) Objectives() []*Objective {
	out := make([]*Objective, 0, len(q.order))
	for _, name := range q.order {
		out = append(out, q.byName[name])
	}
	return out
}

// IsComplete reports whether every objective is complete. A quest without
// objectives is complete.
func (q *Quest) IsComplete() bool { return q.objectives.AllTriggered() }

// CheckObjectives evaluates every incomplete objective.
func (q *Quest) CheckObjectives(st event.State) error {
	done, err := q.objectives.CheckEvents(st)
	for _, name := range done {
		q.logger.Info("objective completed", zap.String("quest", q.ID), zap.String("objective", name))
	}
	if err != nil {
		return fmt.Errorf("quest %q: %w", q.ID, err)
	}
	return nil
}

// Complete claims the rewards of a complete quest. Rewards are handed out
// once.
//
// Postcondition: returns (nil, false) while any objective is incomplete or
// after the rewards were claimed.
func (q *Quest) Complete() (Rewards, bool) {
	if q.claimed || !q.IsComplete() {
		return nil, false
	}
	q.claimed = true
	out := make(Rewards, len(q.Rewards))
	for k, v := range q.Rewards {
		out[k] = v
	}
	return out, true
}

// Claimed reports whether Complete has handed out the rewards.
func (q *Quest) Claimed() bool { return q.claimed }

// Snapshot returns objective name to completion flag.
func (q *Quest) Snapshot() map[string]bool { return q.objectives.Snapshot() }

// Restore applies completion flags from Snapshot.
func (q *Quest) Restore(flags map[string]bool) error {
	if err := q.objectives.Restore(flags); err != nil {
		return fmt.Errorf("quest %q: %w", q.ID, err)
	}
	return nil
}

func (q *Quest) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Quest: %s - %s", q.Name, q.Description)
	for _, o := range q.Objectives() {
		b.WriteString("\n  ")
		b.WriteString(o.String())
	}
	if len(q.Rewards) > 0 {
		keys := make([]string, 0, len(q.Rewards))
		for k := range q.Rewards {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\n  Rewards:")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%g", k, q.Rewards[k])
		}
	}
	return b.String()
}
