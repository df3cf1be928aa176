package ability_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rpgworld/internal/game/ability"
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

func newDummy(id string) *dummy {
	return &dummy{id: id, stats: stats.NewCharacter(100, 100, 100, 0, nil)}
}

func sec(n float64) time.Duration { return time.Duration(n * float64(time.Second)) }

func TestNew_RequiresName(t *testing.T) {
	_, err := ability.New("", nil, nil, nil)
	assert.ErrorIs(t, err, ability.ErrNoName)
}

func TestCast_CooldownScenario(t *testing.T) {
	hit := effect.MustNew(stats.Health, formula.FixedDelta{Value: -10}, "")
	a, err := ability.New("Strike", map[string]float64{ability.AttrCooldown: 5}, []effect.Effect{hit}, nil)
	require.NoError(t, err)
	caster, target := newDummy("c"), newDummy("t")

	require.True(t, a.Cast(caster, target, 0))
	last, ok := a.LastCast()
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), last)
	assert.Equal(t, 90.0, target.Stats().Value(stats.Health))

	assert.False(t, a.Cast(caster, target, sec(4)))
	assert.Equal(t, 90.0, target.Stats().Value(stats.Health))

	assert.True(t, a.Cast(caster, target, sec(6)))
	assert.Equal(t, 80.0, target.Stats().Value(stats.Health))
}

func TestCast_ZeroCooldownNeverBlocks(t *testing.T) {
	a, err := ability.New("Jab", nil, nil, nil)
	require.NoError(t, err)
	c := newDummy("c")
	assert.True(t, a.Cast(c, c, 0))
	assert.True(t, a.Cast(c, c, 0))
}

func TestNewSpell_Attributes(t *testing.T) {
	s, err := ability.NewSpell("Fireball", 20, 3*time.Second, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, s.Cooldown())
	assert.Equal(t, map[string]float64{"mana": 20}, s.Costs())
	assert.Equal(t, []string{"mana"}, s.CostResources())
}

func TestCast_EffectsApplyInOrderWithoutIsolation(t *testing.T) {
	caster, target := newDummy("c"), newDummy("t")
	recoil := effect.MustNew(stats.Health, formula.FixedDelta{Value: -40}, effect.RecipientCaster)
	// Damage scales with the caster's remaining health, so it observes the recoil.
	echo := effect.MustNew(stats.Health, formula.Func(func(ctx formula.Context) float64 {
		h, _ := ctx.Caster.Get(stats.Health)
		return -h / 2
	}), effect.RecipientTarget)

	s, err := ability.NewSpell("Blood Bolt", 0, 0, []effect.Effect{recoil, echo}, nil)
	require.NoError(t, err)
	require.True(t, s.Cast(caster, target, 0))

	assert.Equal(t, 60.0, caster.Stats().Value(stats.Health))
	assert.Equal(t, 70.0, target.Stats().Value(stats.Health))
}

func TestCast_Logs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	a, err := ability.New("Slam", map[string]float64{ability.AttrCooldown: 10}, nil, zap.New(core))
	require.NoError(t, err)
	c := newDummy("c")
	a.Cast(c, c, 0)
	a.Cast(c, c, sec(1))

	assert.Equal(t, 1, logs.FilterMessage("cast").Len())
	assert.Equal(t, 1, logs.FilterMessage("cast rejected: on cooldown").Len())
}

func TestStateRestore(t *testing.T) {
	a, err := ability.New("Slam", map[string]float64{ability.AttrCooldown: 10}, nil, nil)
	require.NoError(t, err)
	c := newDummy("c")
	a.Cast(c, c, sec(2))

	b, err := ability.New("Slam", map[string]float64{ability.AttrCooldown: 10}, nil, nil)
	require.NoError(t, err)
	b.Restore(a.State())
	assert.True(t, b.IsOnCooldown(sec(5)))
	assert.False(t, b.IsOnCooldown(sec(12)))

	b.ResetCooldown()
	assert.False(t, b.IsOnCooldown(sec(5)))
}

// TestCast_CooldownInvariant_Property verifies that a successful cast at t1
// rejects every cast in [t1, t1+cooldown) without mutating stats.
func TestCast_CooldownInvariant_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cd := rapid.IntRange(1, 100).Draw(rt, "cooldown")
		t1 := rapid.IntRange(0, 1000).Draw(rt, "t1")
		offset := rapid.IntRange(0, cd-1).Draw(rt, "offset")

		hit := effect.MustNew(stats.Health, formula.FixedDelta{Value: -1}, "")
		a, err := ability.New("x", map[string]float64{ability.AttrCooldown: float64(cd)}, []effect.Effect{hit}, nil)
		if err != nil {
			rt.Fatal(err)
		}
		c, tgt := newDummy("c"), newDummy("t")
		if !a.Cast(c, tgt, sec(float64(t1))) {
			rt.Fatal("first cast rejected")
		}
		before := tgt.Stats().Snapshot()
		if a.Cast(c, tgt, sec(float64(t1+offset))) {
			rt.Fatalf("cast at t1+%d accepted with cooldown %d", offset, cd)
		}
		assert.Equal(rt, before, tgt.Stats().Snapshot())
		if !a.Cast(c, tgt, sec(float64(t1+cd))) {
			rt.Fatal("cast after cooldown rejected")
		}
	})
}
