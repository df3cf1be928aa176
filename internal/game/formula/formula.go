// Package formula computes signed attribute deltas from a read-only context.
package formula

import (
	"fmt"

	"github.com/cory-johannsen/rpgworld/internal/game/stats"
)

// Context carries the inputs a Formula may read.
// Stats are exposed as stats.Reader so a Formula cannot mutate the entities
// it inspects.
type Context struct {
	// Target is the entity the ability or item was aimed at. Required.
	Target     stats.Reader
	TargetName string
	// Caster is the entity using the ability. May be nil for item use.
	Caster     stats.Reader
	CasterName string
	// Recipient is the entity whose Attribute will receive the result.
	Recipient     stats.Reader
	RecipientName string
	// Attribute is the stat the result will be applied to.
	Attribute string
	// Ability is the name of the ability or item being applied, if any.
	Ability string
}

// RequireTarget returns c.Target or panics when it is nil.
//
// Precondition: c.Target != nil.
func (c Context) RequireTarget() stats.Reader {
	if c.Target == nil {
		panic("formula: Context.Target precondition violated: target is nil")
	}
	return c.Target
}

// RequireRecipient returns c.Recipient or panics when it is nil.
//
// Precondition: c.Recipient != nil.
func (c Context) RequireRecipient() stats.Reader {
	if c.Recipient == nil {
		panic("formula: Context.Recipient precondition violated: recipient is nil")
	}
	return c.Recipient
}

// Formula computes a delta for Context.Attribute.
// Implementations must not mutate any entity reachable from the Context.
type Formula interface {
	Calculate(ctx Context) float64
}

// Stable is implemented by formulas whose result can be reported as
// independent of entity state. Only stable formulas may be unapplied
// symmetrically.
type Stable interface {
	ContextStable() bool
}

// IsStable reports whether f declares itself context-stable.
func IsStable(f Formula) bool {
	s, ok := f.(Stable)
	return ok && s.ContextStable()
}

// FixedDelta returns Value unconditionally.
type FixedDelta struct {
	Value float64
}

// Calculate returns f.Value.
func (f FixedDelta) Calculate(Context) float64 { return f.Value }

// ContextStable always reports true.
func (f FixedDelta) ContextStable() bool { return true }

func (f FixedDelta) String() string { return fmt.Sprintf("fixed(%g)", f.Value) }

// FixedDeltaWithLimits returns the part of Value that can be applied to the
// recipient's Attribute without leaving [0, max_<Attribute>].
// When the context has no recipient the target is used. A missing max_
// entry leaves the ceiling open.
type FixedDeltaWithLimits struct {
	Value float64
}

// Calculate returns clamp(current+Value, 0, max) - current.
//
// Precondition: ctx.Target != nil and ctx.Attribute != "".
func (f FixedDeltaWithLimits) Calculate(ctx Context) float64 {
	subject := ctx.Recipient
	if subject == nil {
		subject = ctx.RequireTarget()
	}
	if ctx.Attribute == "" {
		panic("formula: FixedDeltaWithLimits precondition violated: attribute is empty")
	}
	current, _ := subject.Get(ctx.Attribute)
	next := current + f.Value
	if m, ok := subject.Get(stats.MaxPrefix + ctx.Attribute); ok && next > m {
		next = m
	}
	if next < 0 {
		next = 0
	}
	return next - current
}

func (f FixedDeltaWithLimits) String() string { return fmt.Sprintf("fixed_limited(%g)", f.Value) }

// Mitigated is the armor-mitigated scaling shape shared by the derived
// formulas: -(Base + stat(Scaled)*Scale) * (1 - stat(Mitigation)/100).
type Mitigated struct {
	Base       float64
	Scaled     string
	Scale      float64
	Mitigation string
}

func (m Mitigated) eval(r stats.Reader) float64 {
	scaled, _ := r.Get(m.Scaled)
	mitigation, _ := r.Get(m.Mitigation)
	return -(m.Base + scaled*m.Scale) * (1 - mitigation/100)
}

// TargetDerived evaluates Mitigated against the target's stats.
type TargetDerived struct {
	Mitigated
}

// NewTargetDerived returns the standard focus/armor target formula:
// -(50 + focus*0.5) * (1 - armor/100).
func NewTargetDerived() TargetDerived {
	return TargetDerived{Mitigated{Base: 50, Scaled: stats.Focus, Scale: 0.5, Mitigation: stats.Armor}}
}

// Calculate evaluates against ctx.Target.
//
// Precondition: ctx.Target != nil.
func (f TargetDerived) Calculate(ctx Context) float64 {
	return f.eval(ctx.RequireTarget())
}

// RecipientDerived evaluates Mitigated against the recipient's stats.
type RecipientDerived struct {
	Mitigated
}

// NewRecipientDerived returns the standard focus/armor recipient formula:
// -(50 + focus*0.1) * (1 - armor/100).
func NewRecipientDerived() RecipientDerived {
	return RecipientDerived{Mitigated{Base: 50, Scaled: stats.Focus, Scale: 0.1, Mitigation: stats.Armor}}
}

// Calculate evaluates against ctx.Recipient.
//
// Precondition: ctx.Recipient != nil.
func (f RecipientDerived) Calculate(ctx Context) float64 {
	return f.eval(ctx.RequireRecipient())
}

// Func adapts an ordinary function to a Formula.
type Func func(ctx Context) float64

// Calculate calls fn(ctx).
func (fn Func) Calculate(ctx Context) float64 { return fn(ctx) }
