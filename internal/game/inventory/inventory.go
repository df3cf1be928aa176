package inventory

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/rpgworld/internal/game/effect"
	"github.com/cory-johannsen/rpgworld/internal/game/formula"
)

// ErrItemNotFound is returned when no item matches a name or instance ID.
var ErrItemNotFound = errors.New("item not found")

// Inventory is an ordered collection of item instances.
type Inventory struct {
	items []*Item
}

// New returns an empty Inventory.
func New() *Inventory {
	return &Inventory{}
}

// Add appends item.
//
// Precondition: item is non-nil.
// Postcondition: Items() ends with item.
func (inv *Inventory) Add(item *Item) {
	inv.items = append(inv.items, item)
}

// Remove deletes the item with the given instance ID.
//
// Postcondition: returns ErrItemNotFound when no item matches.
func (inv *Inventory) Remove(instanceID string) error {
	for i, it := range inv.items {
		if it.InstanceID == instanceID {
			inv.items = append(inv.items[:i], inv.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("inventory: instance %q: %w", instanceID, ErrItemNotFound)
}

// Find returns the first item with the given name.
func (inv *Inventory) Find(name string) (*Item, bool) {
	for _, it := range inv.items {
		if it.Name == name {
			return it, true
		}
	}
	return nil, false
}

// Use applies the first item named name to user. Consumables are removed
// after use; equipment is toggled and kept.
//
// Precondition: user is non-nil.
// Postcondition: returns ErrItemNotFound when no item matches.
func (inv *Inventory) Use(name string, user effect.Subject) error {
	it, ok := inv.Find(name)
	if !ok {
		return fmt.Errorf("inventory: %q: %w", name, ErrItemNotFound)
	}
	consumed, err := it.Use(user)
	if err != nil {
		return err
	}
	if consumed {
		return inv.Remove(it.InstanceID)
	}
	return nil
}

// Items returns a copy of the item list in insertion order.
func (inv *Inventory) Items() []*Item {
	return append([]*Item(nil), inv.items...)
}

// Len returns the number of items.
func (inv *Inventory) Len() int { return len(inv.items) }

// ItemState is the persisted form of one item instance. Items built from a
// registered definition carry DefID; ad-hoc items carry their Definition.
type ItemState struct {
	InstanceID string   `json:"instance_id" yaml:"instance_id"`
	DefID      string   `json:"def_id,omitempty" yaml:"def_id,omitempty"`
	Definition *ItemDef `json:"definition,omitempty" yaml:"definition,omitempty"`
	Equipped   bool     `json:"equipped,omitempty" yaml:"equipped,omitempty"`
}

// Snapshot returns the persisted form of every item in order.
func (inv *Inventory) Snapshot() []ItemState {
	out := make([]ItemState, 0, len(inv.items))
	for _, it := range inv.items {
		s := ItemState{InstanceID: it.InstanceID, DefID: it.DefID, Equipped: it.equipped}
		if it.DefID == "" && it.inline != nil {
			d := *it.inline
			d.Effects = append([]effect.Spec(nil), d.Effects...)
			s.Definition = &d
		}
		out = append(out, s)
	}
	return out
}

// Restore rebuilds the inventory from states using definitions in reg.
// Equipped items are flagged without re-applying their effects, since the
// owner's stats snapshot already includes them.
//
// Precondition: every state's DefID is registered in reg, or the state
// carries its Definition.
func (inv *Inventory) Restore(states []ItemState, reg *Registry, resolver formula.ScriptResolver) error {
	items := make([]*Item, 0, len(states))
	for _, s := range states {
		it, err := restoreItem(s, reg, resolver)
		if err != nil {
			return err
		}
		it.InstanceID = s.InstanceID
		it.equipped = s.Equipped && it.Kind == KindEquipment
		items = append(items, it)
	}
	inv.items = items
	return nil
}

func restoreItem(s ItemState, reg *Registry, resolver formula.ScriptResolver) (*Item, error) {
	if s.DefID == "" {
		if s.Definition == nil {
			return nil, fmt.Errorf("inventory: restoring %q: no definition: %w", s.InstanceID, ErrItemNotFound)
		}
		d := *s.Definition
		return newAdHoc(&d, resolver)
	}
	def, ok := reg.Item(s.DefID)
	if !ok {
		return nil, fmt.Errorf("inventory: restoring %q: definition %q: %w", s.InstanceID, s.DefID, ErrItemNotFound)
	}
	return def.Instantiate(resolver)
}
