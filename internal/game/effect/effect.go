// Package effect binds an attribute to a Formula and applies the result to a
// character's stats.
package effect

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/rpgworld/internal/game/formula"
	"github.com/cory-johannsen/rpgworld/internal/game/stats"
)

// ErrNoAttribute is returned by New when the attribute name is empty.
var ErrNoAttribute = errors.New("effect attribute must not be empty")

// ErrNoFormula is returned by New when the formula is nil.
var ErrNoFormula = errors.New("effect formula must not be nil")

// Subject is anything an Effect can read from and write to.
type Subject interface {
	ID() string
	Name() string
	Stats() *stats.Table
}

// Recipient selects which Subject receives an Effect's result.
type Recipient string

const (
	// RecipientTarget applies to the target. It is the default.
	RecipientTarget Recipient = "target"
	// RecipientCaster applies to the caster.
	RecipientCaster Recipient = "caster"
)

// Effect is an immutable binding of Attribute, Formula and Recipient.
// It holds no per-application state and may be applied any number of times.
type Effect struct {
	attribute string
	formula   formula.Formula
	recipient Recipient
}

// New constructs an Effect. An empty recipient means RecipientTarget.
//
// Precondition: attribute is non-empty; f is non-nil; recipient is empty,
// RecipientTarget or RecipientCaster.
// Postcondition: returns a usable Effect or a wrapped ErrNoAttribute/ErrNoFormula.
func New(attribute string, f formula.Formula, recipient Recipient) (Effect, error) {
	if attribute == "" {
		return Effect{}, ErrNoAttribute
	}
	if f == nil {
		return Effect{}, fmt.Errorf("effect %q: %w", attribute, ErrNoFormula)
	}
	switch recipient {
	case "":
		recipient = RecipientTarget
	case RecipientTarget, RecipientCaster:
	default:
		return Effect{}, fmt.Errorf("effect %q: unknown recipient %q", attribute, recipient)
	}
	return Effect{attribute: attribute, formula: f, recipient: recipient}, nil
}

// MustNew is New that panics on error. Intended for static definitions and tests.
func MustNew(attribute string, f formula.Formula, recipient Recipient) Effect {
	e, err := New(attribute, f, recipient)
	if err != nil {
		panic(err)
	}
	return e
}

// Attribute returns the stat this Effect modifies.
func (e Effect) Attribute() string { return e.attribute }

// Formula returns the Effect's formula.
func (e Effect) Formula() formula.Formula { return e.formula }

// Recipient returns the recipient selector.
func (e Effect) Recipient() Recipient { return e.recipient }

// Stable reports whether the formula is context-stable, making Unapply
// an exact inverse of Apply.
func (e Effect) Stable() bool { return formula.IsStable(e.formula) }

// Options carries optional application context.
type Options struct {
	// Caster is the entity applying the effect. Required when the
	// recipient selector is RecipientCaster.
	Caster Subject
	// Ability names the ability or item being applied.
	Ability string
}

// Amount computes the delta Apply would use without mutating anything.
//
// Precondition: target is non-nil; opts.Caster is non-nil when Recipient()
// is RecipientCaster.
func (e Effect) Amount(target Subject, opts Options) float64 {
	_, amount := e.resolve(target, opts)
	return amount
}

// Apply computes the formula and adds the result to the recipient's
// attribute. It returns the recipient's stored value afterwards.
//
// Precondition: target is non-nil; opts.Caster is non-nil when Recipient()
// is RecipientCaster.
// Postcondition: recipient.Stats().Get(Attribute()) reflects the clamped result.
func (e Effect) Apply(target Subject, opts Options) float64 {
	recipient, amount := e.resolve(target, opts)
	return recipient.Stats().Modify(e.attribute, amount)
}

// Unapply recomputes the formula and subtracts the result from the
// recipient's attribute. Only an exact inverse of Apply when Stable()
// reports true; for derived formulas the recomputed amount reflects the
// post-Apply stats.
//
// Precondition: as for Apply.
func (e Effect) Unapply(target Subject, opts Options) float64 {
	recipient, amount := e.resolve(target, opts)
	return recipient.Stats().Modify(e.attribute, -amount)
}

func (e Effect) resolve(target Subject, opts Options) (Subject, float64) {
	if target == nil {
		panic("effect: Apply precondition violated: target is nil")
	}
	recipient := target
	if e.recipient == RecipientCaster {
		if opts.Caster == nil {
			panic(fmt.Sprintf("effect %q: precondition violated: caster recipient without caster", e.attribute))
		}
		recipient = opts.Caster
	}
	ctx := formula.Context{
		Target:        target.Stats(),
		TargetName:    target.Name(),
		Recipient:     recipient.Stats(),
		RecipientName: recipient.Name(),
		Attribute:     e.attribute,
		Ability:       opts.Ability,
	}
	if opts.Caster != nil {
		ctx.Caster = opts.Caster.Stats()
		ctx.CasterName = opts.Caster.Name()
	}
	return recipient, e.formula.Calculate(ctx)
}

func (e Effect) String() string {
	return fmt.Sprintf("Effect(%s -> %s)", e.attribute, e.recipient)
}

// Spec is the data form of an Effect, as read from content files.
type Spec struct {
	Attribute string       `yaml:"attribute"`
	Recipient Recipient    `yaml:"recipient,omitempty"`
	Formula   formula.Spec `yaml:"formula"`
}

// Build constructs the Effect described by s.
//
// Precondition: resolver may be nil unless the formula is scripted.
func (s Spec) Build(resolver formula.ScriptResolver) (Effect, error) {
	f, err := formula.Build(s.Formula, resolver)
	if err != nil {
		return Effect{}, fmt.Errorf("effect %q: %w", s.Attribute, err)
	}
	return New(s.Attribute, f, s.Recipient)
}

// BuildAll constructs every Spec in order, stopping at the first error.
func BuildAll(specs []Spec, resolver formula.ScriptResolver) ([]Effect, error) {
	out := make([]Effect, 0, len(specs))
	for i, s := range specs {
		e, err := s.Build(resolver)
		if err != nil {
			return nil, fmt.Errorf("effect %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}
