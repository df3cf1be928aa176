package quest

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgworld/internal/game/event"
)

// Manager tracks active and completed quests. Quests are checked in the
// order they were added.
type Manager struct {
	quests []*Quest
	logger *zap.Logger
}

// NewManager creates an empty Manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{logger: logger}
}

// Add registers q as active, replacing any quest with the same ID.
//
// Precondition: q is non-nil.
func (m *Manager) Add(q *Quest) {
	m.Remove(q.ID)
	m.quests = append(m.quests, q)
	m.logger.Info("quest added", zap.String("quest", q.ID))
}

// Remove drops the quest with id. It reports whether one was removed.
func (m *Manager) Remove(id string) bool {
	for i, q := range m.quests {
		if q.ID == id {
			m.quests = append(m.quests[:i], m.quests[i+1:]...)
			return true
		}
	}
	return false
}

// Quest returns the quest with id.
func (m *Manager) Quest(id string) (*Quest, bool) {
	for _, q := range m.quests {
		if q.ID == id {
			return q, true
		}
	}
	return nil, false
}

// Quests returns every quest in insertion order.
func (m *Manager) Quests() []*Quest { return append([]*Quest(nil), m.quests...) }

// Active returns the quests not yet completed through Complete.
func (m *Manager) Active() []*Quest {
	var out []*Quest
	for _, q := range m.quests {
		if !q.Claimed() {
			out = append(out, q)
		}
	}
	return out
}

// IsComplete reports whether the quest with id has every objective met.
//
// Postcondition: returns an error wrapping ErrNotFound for an unknown id.
func (m *Manager) IsComplete(id string) (bool, error) {
	q, ok := m.Quest(id)
	if !ok {
		return false, fmt.Errorf("quest %q: %w", id, ErrNotFound)
	}
	return q.IsComplete(), nil
}

// Complete marks the quest as handed in and returns its rewards.
//
// Postcondition: returns (nil, false, nil) while objectives remain, and
// (nil, false, nil) when rewards were already claimed.
func (m *Manager) Complete(id string) (Rewards, bool, error) {
	q, ok := m.Quest(id)
	if !ok {
		return nil, false, fmt.Errorf("quest %q: %w", id, ErrNotFound)
	}
	rewards, ok := q.Complete()
	if !ok {
		return nil, false, nil
	}
	m.logger.Info("quest completed", zap.String("quest", id))
	return rewards, true, nil
}

// CheckAll checks the objectives of every active quest. Errors are joined.
func (m *Manager) CheckAll(st event.State) error {
	var errs []error
	for _, q := range m.Active() {
		if err := q.CheckObjectives(st); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// State is the persisted form of a quest's progress.
type State struct {
	Objectives map[string]bool `json:"objectives,omitempty" yaml:"objectives,omitempty"`
	Claimed    bool            `json:"claimed,omitempty" yaml:"claimed,omitempty"`
}

// Snapshot returns per-quest progress keyed by quest ID.
func (m *Manager) Snapshot() map[string]State {
	out := make(map[string]State, len(m.quests))
	for _, q := range m.quests {
		out[q.ID] = State{Objectives: q.Snapshot(), Claimed: q.claimed}
	}
	return out
}

// Restore applies progress from Snapshot to the registered quests.
//
// Postcondition: unknown quest IDs are reported as errors wrapping ErrNotFound.
func (m *Manager) Restore(states map[string]State) error {
	var errs []error
	for id, s := range states {
		q, ok := m.Quest(id)
		if !ok {
			errs = append(errs, fmt.Errorf("quest %q: %w", id, ErrNotFound))
			continue
		}
		if err := q.Restore(s.Objectives); err != nil {
			errs = append(errs, err)
		}
		q.claimed = s.Claimed
	}
	return errors.Join(errs...)
}
