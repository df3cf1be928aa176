package combat

import (
	"errors"

	"go.uber.org/zap"
)

// ErrNoParticipants is returned by Next when there is nobody to schedule.
var ErrNoParticipants = errors.New("turn order has no participants")

// TurnOrder hands out turns from a queue, recomputing the queue from its
// OrderFormula over every participant whenever it runs dry. Dead
// participants are not filtered.
// TurnOrder is not safe for concurrent use.
type TurnOrder struct {
	participants []Combatant
	formula      OrderFormula
	queue        []Combatant
	rounds       int
	logger       *zap.Logger
}

// NewTurnOrder creates a TurnOrder. The queue is computed lazily on the
// first call to Next.
//
// Precondition: formula is non-nil.
func NewTurnOrder(participants []Combatant, formula OrderFormula, logger *zap.Logger) *TurnOrder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TurnOrder{
		participants: append([]Combatant(nil), participants...),
		formula:      formula,
		logger:       logger,
	}
}

// Next returns the next combatant to act.
//
// Postcondition: over any N consecutive calls starting at a round boundary,
// where N is the participant count, every participant is returned exactly once.
func (t *TurnOrder) Next() (Combatant, error) {
	if len(t.queue) == 0 {
		if len(t.participants) == 0 {
			return nil, ErrNoParticipants
		}
		t.Recalculate()
	}
	c := t.queue[0]
	t.queue = t.queue[1:]
	return c, nil
}

// Recalculate replaces the queue with a fresh ordering of all participants.
func (t *TurnOrder) Recalculate() {
	t.queue = t.formula.Order(t.participants)
	t.rounds++
	ids := make([]string, len(t.queue))
	for i, c := range t.queue {
		ids[i] = c.ID()
	}
	t.logger.Debug("turn order recalculated",
		zap.Int("round", t.rounds),
		zap.Strings("order", ids),
	)
}

// Add appends c to the participants. It joins the queue at the next recalculation.
func (t *TurnOrder) Add(c Combatant) {
	t.participants = append(t.participants, c)
}

// Remove drops the participant with the given ID from the participants and
// the pending queue. It reports whether anything was removed.
func (t *TurnOrder) Remove(id string) bool {
	var removed bool
	t.participants, removed = without(t.participants, id)
	t.queue, _ = without(t.queue, id)
	return removed
}

// Participants returns a copy of the participant list.
func (t *TurnOrder) Participants() []Combatant {
	return append([]Combatant(nil), t.participants...)
}

// Pending returns a copy of the combatants still queued this round.
func (t *TurnOrder) Pending() []Combatant {
	return append([]Combatant(nil), t.queue...)
}

// Round returns the number of recalculations so far.
func (t *TurnOrder) Round() int { return t.rounds }

func without(cs []Combatant, id string) ([]Combatant, bool) {
	out := cs[:0:0]
	removed := false
	for _, c := range cs {
		if c.ID() == id {
			removed = true
			continue
		}
		out = append(out, c)
	}
	return out, removed
}
