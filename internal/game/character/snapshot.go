package character

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgworld/internal/game/ability"
	"github.com/cory-johannsen/rpgworld/internal/game/formula"
	"github.com/cory-johannsen/rpgworld/internal/game/inventory"
	"github.com/cory-johannsen/rpgworld/internal/game/stats"
)

// State is the persisted form of a Character.
type State struct {
	ID     string                   `json:"id" yaml:"id"`
	Name   string                   `json:"name" yaml:"name"`
	Stats  map[string]float64       `json:"stats" yaml:"stats"`
	Spells map[string]ability.State `json:"spells,omitempty" yaml:"spells,omitempty"`
	Items  []inventory.ItemState    `json:"items,omitempty" yaml:"items,omitempty"`
}

// Catalog rebuilds definitions referenced by a State.
type Catalog interface {
	// NewSpell returns a fresh instance of the named spell.
	NewSpell(name string) (*ability.Ability, error)
	// ItemRegistry returns the item definitions.
	ItemRegistry() *inventory.Registry
	// Resolver resolves scripted formulas; may return nil.
	Resolver() formula.ScriptResolver
}

// Snapshot returns the persisted form of c.
//
// Postcondition: FromState(c.Snapshot(), ...) is structurally equal to c.
func (c *Character) Snapshot() State {
	s := State{
		ID:    c.id,
		Name:  c.name,
		Stats: c.stats.Snapshot(),
		Items: c.inv.Snapshot(),
	}
	if len(c.spells) > 0 {
		s.Spells = make(map[string]ability.State, len(c.spells))
		for name, a := range c.spells {
			s.Spells[name] = a.State()
		}
	}
	return s
}

// FromState rebuilds a Character from s, instantiating spells and items from cat.
//
// Precondition: cat is non-nil and knows every spell and item referenced by s.
func FromState(s State, cat Catalog, opts []stats.Option, logger *zap.Logger) (*Character, error) {
	c, err := New(s.ID, s.Name, stats.New(s.Stats, opts...), logger)
	if err != nil {
		return nil, err
	}
	for name, st := range s.Spells {
		a, err := cat.NewSpell(name)
		if err != nil {
			return nil, fmt.Errorf("character %q: restoring spell %q: %w", s.ID, name, err)
		}
		a.Restore(st)
		c.LearnSpell(a)
	}
	if err := c.inv.Restore(s.Items, cat.ItemRegistry(), cat.Resolver()); err != nil {
		return nil, fmt.Errorf("character %q: %w", s.ID, err)
	}
	return c, nil
}
