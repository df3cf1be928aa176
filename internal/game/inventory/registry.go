package inventory

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cory-johannsen/rpgworld/internal/game/formula"
)

var (
	// ErrDuplicateItem is returned when an item ID is registered twice.
	ErrDuplicateItem = errors.New("inventory: duplicate item id")
	// ErrUnknownItem is returned when an item ID has no definition.
	ErrUnknownItem = errors.New("inventory: unknown item id")
)

// Registry indexes item definitions by ID and builds instances from them.
type Registry struct {
	defs map[string]*ItemDef
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*ItemDef)}
}

// RegisterItem validates d and adds it.
//
// Precondition: d must not be nil.
// Postcondition: Item(d.ID) returns (d, true), or an error wrapping
// ErrDuplicateItem or the validation failure is returned.
func (r *Registry) RegisterItem(d *ItemDef) error {
	if d == nil {
		panic("inventory.Registry.RegisterItem: nil definition")
	}
	if err := d.Validate(); err != nil {
		return err
	}
	if _, exists := r.defs[d.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateItem, d.ID)
	}
	r.defs[d.ID] = d
	return nil
}

// Item returns the definition registered under id.
func (r *Registry) Item(id string) (*ItemDef, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// New builds a fresh Item from the definition registered under id.
func (r *Registry) New(id string, resolver formula.ScriptResolver) (*Item, error) {
	d, ok := r.defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	it, err := d.Instantiate(resolver)
	if err != nil {
		return nil, fmt.Errorf("item %q: %w", id, err)
	}
	return it, nil
}

// AllItems returns every definition ordered by ID.
func (r *Registry) AllItems() []*ItemDef {
	out := make([]*ItemDef, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
