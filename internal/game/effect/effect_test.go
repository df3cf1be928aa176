package effect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rpgworld/internal/game/effect"
	"github.com/cory-johannsen/rpgworld/internal/game/formula"
	"github.com/cory-johannsen/rpgworld/internal/game/stats"
)

type dummy struct {
	id    string
	stats *stats.Table
}

func (d *dummy) ID() string          { return d.id }
func (d *dummy) Name() string        { return d.id }
func (d *dummy) Stats() *stats.Table { return d.stats }

func newDummy(id string, extra map[string]float64) *dummy {
	return &dummy{id: id, stats: stats.NewCharacter(100, 100, 100, 0, extra)}
}

func TestNew_Validation(t *testing.T) {
	_, err := effect.New("", formula.FixedDelta{Value: 1}, "")
	assert.ErrorIs(t, err, effect.ErrNoAttribute)

	_, err = effect.New("health", nil, "")
	assert.ErrorIs(t, err, effect.ErrNoFormula)

	_, err = effect.New("health", formula.FixedDelta{Value: 1}, "bystander")
	assert.Error(t, err)

	e, err := effect.New("health", formula.FixedDelta{Value: 1}, "")
	require.NoError(t, err)
	assert.Equal(t, effect.RecipientTarget, e.Recipient())
}

func TestApplyUnapply_FixedDeltaIsSymmetric(t *testing.T) {
	d := newDummy("d", map[string]float64{"strength": 50})
	e := effect.MustNew("strength", formula.FixedDelta{Value: 10}, effect.RecipientTarget)

	assert.Equal(t, 60.0, e.Apply(d, effect.Options{}))
	assert.Equal(t, 50.0, e.Unapply(d, effect.Options{}))
	assert.True(t, e.Stable())
}

func TestApply_CasterRecipient(t *testing.T) {
	caster := newDummy("caster", nil)
	target := newDummy("target", nil)
	e := effect.MustNew(stats.Health, formula.FixedDelta{Value: -15}, effect.RecipientCaster)

	e.Apply(target, effect.Options{Caster: caster})
	assert.Equal(t, 85.0, caster.Stats().Value(stats.Health))
	assert.Equal(t, 100.0, target.Stats().Value(stats.Health))
}

func TestApply_CasterRecipientWithoutCaster_Panics(t *testing.T) {
	e := effect.MustNew(stats.Health, formula.FixedDelta{Value: -15}, effect.RecipientCaster)
	assert.Panics(t, func() { e.Apply(newDummy("t", nil), effect.Options{}) })
}

func TestApply_ContextCarriesAttributeAndAbility(t *testing.T) {
	var seen formula.Context
	f := formula.Func(func(ctx formula.Context) float64 {
		seen = ctx
		return 0
	})
	caster := newDummy("c", nil)
	target := newDummy("t", nil)
	effect.MustNew("mana", f, effect.RecipientCaster).Apply(target, effect.Options{Caster: caster, Ability: "Drain"})

	assert.Equal(t, "mana", seen.Attribute)
	assert.Equal(t, "Drain", seen.Ability)
	assert.Equal(t, "t", seen.TargetName)
	assert.Equal(t, "c", seen.CasterName)
	assert.Equal(t, "c", seen.RecipientName)
}

// Derived formulas recompute against post-Apply stats, so Unapply is not an
// exact inverse. Equipment guards against this by accepting only stable
// formulas.
func TestApplyUnapply_TargetDerivedIsAsymmetric(t *testing.T) {
	d := &dummy{id: "d", stats: stats.NewCharacter(100, 100, 100, 0, nil)}
	e := effect.MustNew(stats.Focus, formula.NewTargetDerived(), effect.RecipientTarget)
	assert.False(t, e.Stable())

	e.Apply(d, effect.Options{})
	assert.Equal(t, 0.0, d.Stats().Value(stats.Focus))

	e.Unapply(d, effect.Options{})
	assert.Equal(t, 50.0, d.Stats().Value(stats.Focus), "recomputed amount uses the reduced focus")
}

func TestAmount_DoesNotMutate(t *testing.T) {
	d := newDummy("d", nil)
	e := effect.MustNew(stats.Health, formula.FixedDelta{Value: -10}, "")
	assert.Equal(t, -10.0, e.Amount(d, effect.Options{}))
	assert.Equal(t, 100.0, d.Stats().Value(stats.Health))
}

func TestApplyUnapply_StableRoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		start := rapid.Float64Range(-1000, 1000).Draw(rt, "start")
		delta := rapid.IntRange(-1000, 1000).Draw(rt, "delta")
		d := &dummy{id: "d", stats: stats.New(map[string]float64{"strength": start})}
		e := effect.MustNew("strength", formula.FixedDelta{Value: float64(delta)}, "")
		e.Apply(d, effect.Options{})
		got := e.Unapply(d, effect.Options{})
		if diff := got - start; diff > 1e-9 || diff < -1e-9 {
			rt.Fatalf("round trip drifted: start %v, got %v", start, got)
		}
	})
}
