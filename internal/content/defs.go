package content

import (
	"errors"
	"fmt"
	"time"

	"github.com/cory-johannsen/rpgworld/internal/game/effect"
	"github.com/cory-johannsen/rpgworld/internal/game/event"
)

// Spell targeting used by automatic battle actions.
const (
	TargetEnemy = "enemy"
	TargetAlly  = "ally"
)

// SpellDef defines a spell loaded from YAML.
type SpellDef struct {
	Name     string        `yaml:"name"`
	ManaCost float64       `yaml:"mana_cost"`
	Cooldown time.Duration `yaml:"cooldown"`
	// Target is enemy (the default) or ally.
	Target string `yaml:"target"`
	// Attributes holds extra ability attributes such as focus_cost.
	Attributes map[string]float64 `yaml:"attributes"`
	Effects    []effect.Spec      `yaml:"effects"`
}

// Validate checks the definition's invariants.
func (d *SpellDef) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if d.ManaCost < 0 {
		errs = append(errs, errors.New("mana_cost must be >= 0"))
	}
	if d.Cooldown < 0 {
		errs = append(errs, errors.New("cooldown must be >= 0"))
	}
	switch d.Target {
	case "", TargetEnemy, TargetAlly:
	default:
		errs = append(errs, fmt.Errorf("target must be %q or %q, got %q", TargetEnemy, TargetAlly, d.Target))
	}
	if len(d.Effects) == 0 {
		errs = append(errs, errors.New("effects must not be empty"))
	}
	for i, e := range d.Effects {
		if e.Attribute == "" {
			errs = append(errs, fmt.Errorf("effects[%d].attribute must not be empty", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("spell %q: %w", d.Name, errors.Join(errs...))
	}
	return nil
}

// CharacterDef defines a starting character.
type CharacterDef struct {
	ID     string             `yaml:"id"`
	Name   string             `yaml:"name"`
	Stats  map[string]float64 `yaml:"stats"`
	Spells []string           `yaml:"spells"`
	// Items lists item definition IDs placed in the inventory.
	Items []string `yaml:"items"`
	// Equip lists item definition IDs equipped after the inventory is filled.
	Equip []string `yaml:"equip"`
}

// Validate checks the definition's invariants.
func (d *CharacterDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("character %q: %w", d.ID, errors.Join(errs...))
	}
	return nil
}

// ObjectiveDef defines one quest objective.
type ObjectiveDef struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Triggers    []event.TriggerSpec `yaml:"triggers"`
}

// QuestDef defines a quest.
type QuestDef struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Rewards     map[string]float64 `yaml:"rewards"`
	Objectives  []ObjectiveDef     `yaml:"objectives"`
}

// Validate checks the definition's invariants.
func (d *QuestDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	seen := make(map[string]bool, len(d.Objectives))
	for i, o := range d.Objectives {
		if o.Name == "" {
			errs = append(errs, fmt.Errorf("objectives[%d].name must not be empty", i))
		}
		if seen[o.Name] {
			errs = append(errs, fmt.Errorf("objectives[%d]: duplicate name %q", i, o.Name))
		}
		seen[o.Name] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("quest %q: %w", d.ID, errors.Join(errs...))
	}
	return nil
}

// Event action kinds.
const (
	ActionNone   = "none"
	ActionHeal   = "heal"
	ActionModify = "modify"
)

// EventDef defines a world event.
type EventDef struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Triggers    []event.TriggerSpec `yaml:"triggers"`
	// Action is one of none, heal or modify.
	Action    string  `yaml:"action"`
	Character string  `yaml:"character"`
	Attribute string  `yaml:"attribute"`
	Amount    float64 `yaml:"amount"`
}

// Validate checks the definition's invariants.
func (d *EventDef) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	switch d.Action {
	case "", ActionNone:
	case ActionHeal:
		if d.Character == "" {
			errs = append(errs, errors.New("heal action requires character"))
		}
	case ActionModify:
		if d.Character == "" || d.Attribute == "" {
			errs = append(errs, errors.New("modify action requires character and attribute"))
		}
	default:
		errs = append(errs, fmt.Errorf("action must be one of none, heal, modify; got %q", d.Action))
	}
	if len(errs) > 0 {
		return fmt.Errorf("event %q: %w", d.Name, errors.Join(errs...))
	}
	return nil
}
