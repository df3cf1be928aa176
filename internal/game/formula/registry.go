package formula

import (
	"errors"
	"fmt"
)

// Kind names a Formula variant in data definitions.
type Kind string

// Registered formula kinds.
const (
	KindFixed            Kind = "fixed"
	KindFixedLimited     Kind = "fixed_limited"
	KindTargetDerived    Kind = "target_derived"
	KindRecipientDerived Kind = "recipient_derived"
	KindScript           Kind = "script"
)

// ErrUnknownKind is returned by Build for an unregistered Kind.
var ErrUnknownKind = errors.New("unknown formula kind")

// ErrNoResolver is returned by Build for a script formula when no
// ScriptResolver is supplied.
var ErrNoResolver = errors.New("script formula requires a resolver")

// Spec is the data form of a Formula, as read from content files.
//
// Fields not used by Kind are ignored. For the derived kinds, zero Base,
// Scale, Scaled and Mitigation take the standard focus/armor defaults.
type Spec struct {
	Kind       Kind     `yaml:"kind"`
	Value      float64  `yaml:"value,omitempty"`
	Base       *float64 `yaml:"base,omitempty"`
	Scaled     string   `yaml:"scaled,omitempty"`
	Scale      *float64 `yaml:"scale,omitempty"`
	Mitigation string   `yaml:"mitigation,omitempty"`
	Script     string   `yaml:"script,omitempty"`
}

// ScriptResolver turns a script function name into a Formula.
type ScriptResolver interface {
	Formula(fn string) (Formula, error)
}

// Build constructs the Formula described by spec.
//
// Precondition: resolver may be nil unless spec.Kind is KindScript.
// Postcondition: returns a non-nil Formula or a wrapped ErrUnknownKind/ErrNoResolver.
func Build(spec Spec, resolver ScriptResolver) (Formula, error) {
	switch spec.Kind {
	case KindFixed:
		return FixedDelta{Value: spec.Value}, nil
	case KindFixedLimited:
		return FixedDeltaWithLimits{Value: spec.Value}, nil
	case KindTargetDerived:
		return TargetDerived{spec.mitigated(NewTargetDerived().Mitigated)}, nil
	case KindRecipientDerived:
		return RecipientDerived{spec.mitigated(NewRecipientDerived().Mitigated)}, nil
	case KindScript:
		if resolver == nil {
			return nil, fmt.Errorf("formula %q: %w", spec.Script, ErrNoResolver)
		}
		f, err := resolver.Formula(spec.Script)
		if err != nil {
			return nil, fmt.Errorf("resolving script formula %q: %w", spec.Script, err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("formula kind %q: %w", spec.Kind, ErrUnknownKind)
	}
}

func (s Spec) mitigated(def Mitigated) Mitigated {
	if s.Base != nil {
		def.Base = *s.Base
	}
	if s.Scale != nil {
		def.Scale = *s.Scale
	}
	if s.Scaled != "" {
		def.Scaled = s.Scaled
	}
	if s.Mitigation != "" {
		def.Mitigation = s.Mitigation
	}
	return def
}
