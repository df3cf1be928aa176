package inventory

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/rpgworld/internal/game/effect"
	"github.com/cory-johannsen/rpgworld/internal/game/formula"
)

// Kind constants for ItemDef.Kind.
const (
	KindConsumable = "consumable"
	KindEquipment  = "equipment"
)

// ErrUnstableFormula is returned when an equipment effect uses a formula
// whose result depends on entity state; such an effect cannot be unequipped
// symmetrically.
var ErrUnstableFormula = errors.New("equipment effects require context-stable formulas")

// ErrAlreadyEquipped is returned by Equip on an equipped item.
var ErrAlreadyEquipped = errors.New("item already equipped")

// ErrNotEquipped is returned by Unequip on an item that is not equipped.
var ErrNotEquipped = errors.New("item not equipped")

// ItemDef defines the static properties of an item loaded from YAML.
type ItemDef struct {
	ID          string        `json:"id,omitempty" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description"`
	Kind        string        `json:"kind" yaml:"kind"`
	Value       int           `json:"value,omitempty" yaml:"value"`
	Effects     []effect.Spec `json:"effects,omitempty" yaml:"effects"`
}

// Validate checks that the ItemDef satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if d.Kind != KindConsumable && d.Kind != KindEquipment {
		errs = append(errs, fmt.Errorf("Kind must be one of consumable, equipment; got %q", d.Kind))
	}
	if d.Value < 0 {
		errs = append(errs, errors.New("Value must be >= 0"))
	}
	for i, e := range d.Effects {
		if e.Attribute == "" {
			errs = append(errs, fmt.Errorf("Effects[%d].Attribute must not be empty", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("item validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// LoadItems reads all *.yaml and *.yml files from dir, parses each as an
// ItemDef, validates it, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid ItemDefs or the first encountered error.
func LoadItems(dir string) ([]*ItemDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read directory %q: %w", dir, err)
	}

	var items []*ItemDef
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
		}
		var d ItemDef
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("LoadItems: cannot parse file %q: %w", path, err)
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("LoadItems: invalid item in %q: %w", path, err)
		}
		items = append(items, &d)
	}
	return items, nil
}

// Item is a concrete item instance. Equipment carries an equipped flag;
// consumables are stateless.
type Item struct {
	InstanceID  string
	DefID       string
	Name        string
	Description string
	Kind        string
	Value       int

	effects  []effect.Effect
	equipped bool
	// inline is set for items not backed by a registered definition; it is
	// persisted with the item so the item can be rebuilt.
	inline *ItemDef
}

// NewConsumable creates a consumable that is not backed by a registered
// definition. Its effect specs are persisted with it.
//
// Precondition: name is non-empty; resolver may be nil unless a formula is scripted.
func NewConsumable(name, description string, value int, effects []effect.Spec, resolver formula.ScriptResolver) (*Item, error) {
	return newAdHoc(&ItemDef{Name: name, Description: description, Kind: KindConsumable, Value: value, Effects: effects}, resolver)
}

// NewEquipment creates equipment that is not backed by a registered
// definition. Its effect specs are persisted with it.
//
// Precondition: name is non-empty; every effect is context-stable.
// Postcondition: returns ErrUnstableFormula when any effect is not stable.
func NewEquipment(name, description string, value int, effects []effect.Spec, resolver formula.ScriptResolver) (*Item, error) {
	return newAdHoc(&ItemDef{Name: name, Description: description, Kind: KindEquipment, Value: value, Effects: effects}, resolver)
}

func newAdHoc(d *ItemDef, resolver formula.ScriptResolver) (*Item, error) {
	d.Effects = append([]effect.Spec(nil), d.Effects...)
	effects, err := effect.BuildAll(d.Effects, resolver)
	if err != nil {
		return nil, fmt.Errorf("inventory: item %q: %w", d.Name, err)
	}
	it, err := newItem("", d.Name, d.Description, d.Kind, d.Value, effects)
	if err != nil {
		return nil, err
	}
	it.inline = d
	return it, nil
}

func newItem(defID, name, description, kind string, value int, effects []effect.Effect) (*Item, error) {
	if name == "" {
		return nil, errors.New("inventory: item name must not be empty")
	}
	if kind == KindEquipment {
		for _, e := range effects {
			if !e.Stable() {
				return nil, fmt.Errorf("inventory: equipment %q effect on %q: %w", name, e.Attribute(), ErrUnstableFormula)
			}
		}
	}
	return &Item{
		InstanceID:  uuid.New().String(),
		DefID:       defID,
		Name:        name,
		Description: description,
		Kind:        kind,
		Value:       value,
		effects:     append([]effect.Effect(nil), effects...),
	}, nil
}

// Instantiate builds a new Item instance from d.
//
// Precondition: d is valid; resolver may be nil unless a formula is scripted.
func (d *ItemDef) Instantiate(resolver formula.ScriptResolver) (*Item, error) {
	effects, err := effect.BuildAll(d.Effects, resolver)
	if err != nil {
		return nil, fmt.Errorf("inventory: item %q: %w", d.ID, err)
	}
	return newItem(d.ID, d.Name, d.Description, d.Kind, d.Value, effects)
}

// Effects returns the item's effects in application order.
func (i *Item) Effects() []effect.Effect {
	return append([]effect.Effect(nil), i.effects...)
}

// Equipped reports whether an equipment item is currently equipped.
func (i *Item) Equipped() bool { return i.equipped }

// Consumable reports whether the item is used up on Use.
func (i *Item) Consumable() bool { return i.Kind == KindConsumable }

// Equip applies every effect to user and marks the item equipped.
//
// Precondition: i is equipment; user is non-nil.
// Postcondition: Equipped() is true; returns ErrAlreadyEquipped with no mutation
// when already equipped.
func (i *Item) Equip(user effect.Subject) error {
	if i.Kind != KindEquipment {
		return fmt.Errorf("inventory: %q is not equipment", i.Name)
	}
	if i.equipped {
		return fmt.Errorf("inventory: %q: %w", i.Name, ErrAlreadyEquipped)
	}
	opts := effect.Options{Caster: user, Ability: i.Name}
	for _, e := range i.effects {
		e.Apply(user, opts)
	}
	i.equipped = true
	return nil
}

// Unequip reverses every effect on user and clears the equipped flag.
//
// Precondition: i is equipment; user is the subject it was equipped to.
// Postcondition: Equipped() is false; returns ErrNotEquipped with no mutation
// when not equipped.
func (i *Item) Unequip(user effect.Subject) error {
	if i.Kind != KindEquipment {
		return fmt.Errorf("inventory: %q is not equipment", i.Name)
	}
	if !i.equipped {
		return fmt.Errorf("inventory: %q: %w", i.Name, ErrNotEquipped)
	}
	opts := effect.Options{Caster: user, Ability: i.Name}
	for _, e := range i.effects {
		e.Unapply(user, opts)
	}
	i.equipped = false
	return nil
}

// Use applies a consumable's effects to user, or toggles equipment.
// It reports whether the item was consumed.
//
// Precondition: user is non-nil.
func (i *Item) Use(user effect.Subject) (consumed bool, err error) {
	if i.Kind == KindEquipment {
		if i.equipped {
			return false, i.Unequip(user)
		}
		return false, i.Equip(user)
	}
	opts := effect.Options{Caster: user, Ability: i.Name}
	for _, e := range i.effects {
		e.Apply(user, opts)
	}
	return true, nil
}

func (i *Item) String() string {
	return fmt.Sprintf("%s (%s): %s [value %d]", i.Name, i.Kind, i.Description, i.Value)
}
