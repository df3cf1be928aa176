// Package character defines the character domain model: stats, spellbook
// and inventory, plus the two-phase resource protocol for casting.
package character

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgworld/internal/game/ability"
	"github.com/cory-johannsen/rpgworld/internal/game/inventory"
	"github.com/cory-johannsen/rpgworld/internal/game/stats"
)

// ErrMissingID is returned by New when the id is empty.
var ErrMissingID = errors.New("character id must not be empty")

// ErrMissingName is returned by New when the name is empty.
var ErrMissingName = errors.New("character name must not be empty")

// ErrUnknownSpell is returned by CastSpell for a spell the character has not learned.
var ErrUnknownSpell = errors.New("spell not known")

// Character is a participant in the world: a stat table, a spellbook and an
// inventory. Character is not safe for concurrent use.
type Character struct {
	id     string
	name   string
	stats  *stats.Table
	inv    *inventory.Inventory
	spells map[string]*ability.Ability
	logger *zap.Logger
}

// New creates a Character owning tbl.
//
// Precondition: id and name are non-empty; tbl is non-nil.
// Postcondition: returns ErrMissingID or ErrMissingName on empty identifiers.
func New(id, name string, tbl *stats.Table, logger *zap.Logger) (*Character, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	if name == "" {
		return nil, fmt.Errorf("character %q: %w", id, ErrMissingName)
	}
	if tbl == nil {
		tbl = stats.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Character{
		id:     id,
		name:   name,
		stats:  tbl,
		inv:    inventory.New(),
		spells: make(map[string]*ability.Ability),
		logger: logger,
	}, nil
}

// ID returns the character's unique identifier.
func (c *Character) ID() string { return c.id }

// Name returns the display name.
func (c *Character) Name() string { return c.name }

// Stats returns the owned stat table.
func (c *Character) Stats() *stats.Table { return c.stats }

// Inventory returns the owned inventory.
func (c *Character) Inventory() *inventory.Inventory { return c.inv }

// IsAlive reports whether health is above zero.
func (c *Character) IsAlive() bool { return c.stats.IsAlive() }

// ProcessEffect adds amount to attr, creating the attribute if absent, and
// returns the stored value.
func (c *Character) ProcessEffect(attr string, amount float64) float64 {
	return c.stats.Modify(attr, amount)
}

// LearnSpell adds a to the spellbook, replacing any spell of the same name.
//
// Precondition: a is non-nil.
func (c *Character) LearnSpell(a *ability.Ability) {
	c.spells[a.Name()] = a
}

// ForgetSpell removes the named spell. It reports whether it was known.
func (c *Character) ForgetSpell(name string) bool {
	_, ok := c.spells[name]
	delete(c.spells, name)
	return ok
}

// Spell returns the named spell.
func (c *Character) Spell(name string) (*ability.Ability, bool) {
	a, ok := c.spells[name]
	return a, ok
}

// SpellNames returns the known spell names, sorted.
func (c *Character) SpellNames() []string {
	out := make([]string, 0, len(c.spells))
	for k := range c.spells {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CastSpell casts a known spell at target. Every resource cost is checked
// before the cast; costs are deducted only when the cast succeeds, so a
// cooldown rejection never charges the caster.
//
// Precondition: target is non-nil.
// Postcondition: returns ErrUnknownSpell for an unknown spell; (false, nil)
// on insufficient resources or cooldown with no mutation; (true, nil) after
// effects are applied and costs deducted.
func (c *Character) CastSpell(name string, target *Character, now time.Duration) (bool, error) {
	spell, ok := c.spells[name]
	if !ok {
		return false, fmt.Errorf("character %q casting %q: %w", c.id, name, ErrUnknownSpell)
	}
	costs := spell.Costs()
	for _, res := range spell.CostResources() {
		if have := c.stats.Value(res); have < costs[res] {
			c.logger.Warn("cast aborted: insufficient resource",
				zap.String("character", c.id),
				zap.String("spell", name),
				zap.String("resource", res),
				zap.Float64("have", have),
				zap.Float64("cost", costs[res]),
			)
			return false, nil
		}
	}
	if !spell.Cast(c, target, now) {
		return false, nil
	}
	for _, res := range spell.CostResources() {
		c.stats.Modify(res, -costs[res])
	}
	return true, nil
}

func (c *Character) String() string {
	return fmt.Sprintf("%s (%s) %s", c.name, c.id, c.stats)
}
