// Package combat provides turn scheduling, battle resolution and timed
// actions for turn-based encounters.
package combat

import (
	"sort"

	"github.com/cory-johannsen/rpgworld/internal/game/dice"
	"github.com/cory-johannsen/rpgworld/internal/game/effect"
)

// Combatant is a battle participant.
type Combatant interface {
	effect.Subject
	IsAlive() bool
}

// OrderFormula computes a turn sequence over participants.
// Implementations must return a permutation of the input and must be
// deterministic for identical stats and an identical randomness source.
type OrderFormula interface {
	Order(participants []Combatant) []Combatant
}

// OrderFunc adapts a function to an OrderFormula.
type OrderFunc func(participants []Combatant) []Combatant

// Order calls fn.
func (fn OrderFunc) Order(participants []Combatant) []Combatant { return fn(participants) }

// AttributeOrder sorts descending by one attribute. Ties keep input order.
type AttributeOrder struct {
	Attribute string
}

// Order returns a sorted copy of participants.
//
// Postcondition: result is a permutation of participants sorted by
// Attribute descending, stable on ties.
func (o AttributeOrder) Order(participants []Combatant) []Combatant {
	out := append([]Combatant(nil), participants...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Stats().Value(o.Attribute) > out[j].Stats().Value(o.Attribute)
	})
	return out
}

// InitiativeOrder rolls Die plus Attribute for every participant and sorts
// descending. Ties keep input order.
type InitiativeOrder struct {
	Die       dice.Expression
	Attribute string
	Roller    *dice.Roller
}

// NewInitiativeOrder returns an InitiativeOrder rolling 1d20 plus attribute.
//
// Precondition: roller is non-nil.
func NewInitiativeOrder(attribute string, roller *dice.Roller) InitiativeOrder {
	return InitiativeOrder{Die: dice.MustParse("1d20"), Attribute: attribute, Roller: roller}
}

// Order rolls initiative once per participant in input order.
//
// Postcondition: result is a permutation of participants.
func (o InitiativeOrder) Order(participants []Combatant) []Combatant {
	type rolled struct {
		c     Combatant
		score float64
	}
	rs := make([]rolled, len(participants))
	for i, c := range participants {
		rs[i] = rolled{c: c, score: float64(o.Roller.Roll(o.Die).Total()) + c.Stats().Value(o.Attribute)}
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].score > rs[j].score })
	out := make([]Combatant, len(rs))
	for i, r := range rs {
		out[i] = r.c
	}
	return out
}
