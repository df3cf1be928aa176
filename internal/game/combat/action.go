package combat

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Action is work scheduled for a point in game time.
type Action struct {
	// Name identifies the action in logs and errors.
	Name string
	// At is the game time at or after which the action runs.
	At time.Duration
	// Execute performs the action.
	Execute func() error
}

// ActionQueue holds scheduled actions until game time reaches them.
// ActionQueue is not safe for concurrent use.
type ActionQueue struct {
	actions []Action
}

// NewActionQueue returns an empty ActionQueue.
func NewActionQueue() *ActionQueue {
	return &ActionQueue{}
}

// Schedule adds a.
//
// Precondition: a.Execute is non-nil.
// Postcondition: Len() increases by one.
func (q *ActionQueue) Schedule(a Action) {
	if a.Execute == nil {
		panic("combat: ActionQueue.Schedule precondition violated: Execute is nil")
	}
	q.actions = append(q.actions, a)
	sort.SliceStable(q.actions, func(i, j int) bool { return q.actions[i].At < q.actions[j].At })
}

// Len returns the number of pending actions.
func (q *ActionQueue) Len() int { return len(q.actions) }

// Pending returns the pending actions in execution order.
func (q *ActionQueue) Pending() []Action {
	return append([]Action(nil), q.actions...)
}

// RunDue executes every action with At <= now in time order, ties in
// scheduling order, and removes them. Actions that fail are still removed;
// their errors are joined.
//
// Postcondition: no pending action has At <= now.
func (q *ActionQueue) RunDue(now time.Duration) (int, error) {
	n := 0
	for n < len(q.actions) && q.actions[n].At <= now {
		n++
	}
	due := q.actions[:n]
	q.actions = append([]Action(nil), q.actions[n:]...)

	var errs []error
	for _, a := range due {
		if err := a.Execute(); err != nil {
			errs = append(errs, fmt.Errorf("action %q: %w", a.Name, err))
		}
	}
	return n, errors.Join(errs...)
}
