// Package ability provides cooldown-gated bundles of effects.
package ability

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgworld/internal/game/effect"
)

// Attribute keys with engine meaning.
const (
	// AttrCooldown is the cooldown in seconds of game time.
	AttrCooldown = "cooldown"
	// CostSuffix marks a resource cost attribute, e.g. "mana_cost".
	CostSuffix = "_cost"
)

// ErrNoName is returned by New when the ability name is empty.
var ErrNoName = errors.New("ability name must not be empty")

// Ability is a named, cooldown-gated, ordered list of Effects.
// Ability is not safe for concurrent use.
type Ability struct {
	name       string
	attributes map[string]float64
	effects    []effect.Effect

	lastCast time.Duration
	hasCast  bool

	logger *zap.Logger
}

// New constructs an Ability. attributes may be nil; a missing cooldown is 0.
//
// Precondition: name is non-empty.
// Postcondition: IsOnCooldown reports false for every time until the first Cast.
func New(name string, attributes map[string]float64, effects []effect.Effect, logger *zap.Logger) (*Ability, error) {
	if name == "" {
		return nil, ErrNoName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	attrs := make(map[string]float64, len(attributes))
	for k, v := range attributes {
		attrs[k] = v
	}
	return &Ability{
		name:       name,
		attributes: attrs,
		effects:    append([]effect.Effect(nil), effects...),
		logger:     logger,
	}, nil
}

// NewSpell constructs a mana-costed Ability.
//
// Postcondition: Cost("mana") == manaCost and Cooldown() == cooldown.
func NewSpell(name string, manaCost float64, cooldown time.Duration, effects []effect.Effect, logger *zap.Logger) (*Ability, error) {
	return New(name, map[string]float64{
		"mana" + CostSuffix: manaCost,
		AttrCooldown:        cooldown.Seconds(),
	}, effects, logger)
}

// Name returns the ability name.
func (a *Ability) Name() string { return a.name }

// Attribute returns the named attribute and whether it is set.
func (a *Ability) Attribute(name string) (float64, bool) {
	v, ok := a.attributes[name]
	return v, ok
}

// Attributes returns a copy of every attribute.
func (a *Ability) Attributes() map[string]float64 {
	out := make(map[string]float64, len(a.attributes))
	for k, v := range a.attributes {
		out[k] = v
	}
	return out
}

// Effects returns a copy of the effect list in application order.
func (a *Ability) Effects() []effect.Effect {
	return append([]effect.Effect(nil), a.effects...)
}

// Cooldown returns the cooldown duration.
func (a *Ability) Cooldown() time.Duration {
	return time.Duration(a.attributes[AttrCooldown] * float64(time.Second))
}

// Costs returns resource name to cost for every "<resource>_cost" attribute.
func (a *Ability) Costs() map[string]float64 {
	out := make(map[string]float64)
	for k, v := range a.attributes {
		if res, ok := strings.CutSuffix(k, CostSuffix); ok && res != "" {
			out[res] = v
		}
	}
	return out
}

// CostResources returns the resource names with a cost, sorted.
func (a *Ability) CostResources() []string {
	costs := a.Costs()
	out := make([]string, 0, len(costs))
	for k := range costs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// LastCast returns the time of the last successful cast. ok is false if
// the ability has never been cast.
func (a *Ability) LastCast() (t time.Duration, ok bool) {
	return a.lastCast, a.hasCast
}

// IsOnCooldown reports whether now falls inside the cooldown window of the
// last successful cast.
//
// Postcondition: returns hasCast && now-lastCast < Cooldown().
func (a *Ability) IsOnCooldown(now time.Duration) bool {
	return a.hasCast && now-a.lastCast < a.Cooldown()
}

// Cast applies every effect in order to target and records now as the last
// cast time. A cast while on cooldown is rejected with no mutation.
// Resource costs are not checked here.
//
// Precondition: caster and target are non-nil.
// Postcondition: on true, LastCast() == (now, true) and every effect has been
// applied in declaration order; on false, nothing changed.
func (a *Ability) Cast(caster, target effect.Subject, now time.Duration) bool {
	if a.IsOnCooldown(now) {
		a.logger.Info("cast rejected: on cooldown",
			zap.String("ability", a.name),
			zap.String("caster", caster.ID()),
			zap.Duration("now", now),
			zap.Duration("last_cast", a.lastCast),
		)
		return false
	}
	a.lastCast = now
	a.hasCast = true
	opts := effect.Options{Caster: caster, Ability: a.name}
	for _, e := range a.effects {
		e.Apply(target, opts)
	}
	a.logger.Info("cast",
		zap.String("ability", a.name),
		zap.String("caster", caster.ID()),
		zap.String("target", target.ID()),
		zap.Int("effects", len(a.effects)),
	)
	return true
}

// ResetCooldown forgets the last cast.
func (a *Ability) ResetCooldown() {
	a.lastCast = 0
	a.hasCast = false
}

// State is the persisted cooldown state of an Ability.
type State struct {
	LastCast time.Duration `json:"last_cast" yaml:"last_cast"`
	HasCast  bool          `json:"has_cast" yaml:"has_cast"`
}

// State returns the ability's cooldown state.
func (a *Ability) State() State {
	return State{LastCast: a.lastCast, HasCast: a.hasCast}
}

// Restore replaces the cooldown state.
//
// Postcondition: State() == s.
func (a *Ability) Restore(s State) {
	a.lastCast = s.LastCast
	a.hasCast = s.HasCast
}

func (a *Ability) String() string {
	return fmt.Sprintf("Ability(%s, cooldown=%s, effects=%d)", a.name, a.Cooldown(), len(a.effects))
}
