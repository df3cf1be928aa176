package event

import (
	"errors"
	"fmt"
)

// TriggerKind names a Trigger variant in data definitions.
type TriggerKind string

// Registered trigger kinds.
const (
	KindHealthBelow    TriggerKind = "health_below"
	KindInLocation     TriggerKind = "in_location"
	KindQuestCompleted TriggerKind = "quest_completed"
	KindScript         TriggerKind = "script"
)

// ErrUnknownTrigger is returned by BuildTrigger for an unregistered kind.
var ErrUnknownTrigger = errors.New("unknown trigger kind")

// TriggerSpec is the data form of a Trigger, as read from content files.
type TriggerSpec struct {
	Kind      TriggerKind    `yaml:"kind"`
	Character string         `yaml:"character,omitempty"`
	Threshold float64        `yaml:"threshold,omitempty"`
	Location  string         `yaml:"location,omitempty"`
	Quest     string         `yaml:"quest,omitempty"`
	Script    string         `yaml:"script,omitempty"`
	Args      map[string]any `yaml:"args,omitempty"`
}

// ScriptResolver turns a script function name and arguments into a Trigger.
type ScriptResolver interface {
	Trigger(fn string, args map[string]any) (Trigger, error)
}

// BuildTrigger constructs the Trigger described by spec.
//
// Precondition: resolver may be nil unless spec.Kind is KindScript.
func BuildTrigger(spec TriggerSpec, resolver ScriptResolver) (Trigger, error) {
	switch spec.Kind {
	case KindHealthBelow:
		if spec.Character == "" {
			return nil, fmt.Errorf("trigger %s: character must not be empty", spec.Kind)
		}
		return HealthBelow{CharacterID: spec.Character, Threshold: spec.Threshold}, nil
	case KindInLocation:
		if spec.Location == "" {
			return nil, fmt.Errorf("trigger %s: location must not be empty", spec.Kind)
		}
		return InLocation{LocationID: spec.Location}, nil
	case KindQuestCompleted:
		if spec.Quest == "" {
			return nil, fmt.Errorf("trigger %s: quest must not be empty", spec.Kind)
		}
		return QuestCompleted{QuestID: spec.Quest}, nil
	case KindScript:
		if resolver == nil {
			return nil, fmt.Errorf("trigger script %q: no script resolver", spec.Script)
		}
		t, err := resolver.Trigger(spec.Script, spec.Args)
		if err != nil {
			return nil, fmt.Errorf("trigger script %q: %w", spec.Script, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("trigger kind %q: %w", spec.Kind, ErrUnknownTrigger)
	}
}

// BuildTriggers constructs every spec in order.
func BuildTriggers(specs []TriggerSpec, resolver ScriptResolver) ([]Trigger, error) {
	out := make([]Trigger, 0, len(specs))
	for i, s := range specs {
		t, err := BuildTrigger(s, resolver)
		if err != nil {
			return nil, fmt.Errorf("trigger %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}
