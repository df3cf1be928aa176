package character_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/rpgworld/internal/game/ability"
	"github.com/cory-johannsen/rpgworld/internal/game/character"
	"github.com/cory-johannsen/rpgworld/internal/game/effect"
	"github.com/cory-johannsen/rpgworld/internal/game/formula"
	"github.com/cory-johannsen/rpgworld/internal/game/inventory"
	"github.com/cory-johannsen/rpgworld/internal/game/stats"
)

func newMage(t *testing.T, logger *zap.Logger) *character.Character {
	t.Helper()
	c, err := character.New("merlin", "Merlin", stats.NewCharacter(100, 50, 80, 5, nil), logger)
	require.NoError(t, err)
	return c
}

func fireball(t *testing.T) *ability.Ability {
	t.Helper()
	s, err := ability.NewSpell("Fireball", 20, 5*time.Second, []effect.Effect{
		effect.MustNew(stats.Health, formula.FixedDelta{Value: -30}, ""),
	}, nil)
	require.NoError(t, err)
	return s
}

func TestNew_FailsFastOnMissingIdentifiers(t *testing.T) {
	_, err := character.New("", "X", nil, nil)
	assert.ErrorIs(t, err, character.ErrMissingID)
	_, err = character.New("x", "", nil, nil)
	assert.ErrorIs(t, err, character.ErrMissingName)
}

func TestCastSpell_DeductsManaOnSuccess(t *testing.T) {
	mage := newMage(t, nil)
	goblin, err := character.New("gob", "Goblin", stats.NewCharacter(60, 0, 10, 0, nil), nil)
	require.NoError(t, err)
	mage.LearnSpell(fireball(t))

	ok, err := mage.CastSpell("Fireball", goblin, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30.0, mage.Stats().Value(stats.Mana))
	assert.Equal(t, 30.0, goblin.Stats().Value(stats.Health))
}

func TestCastSpell_CooldownRejectionDoesNotCharge(t *testing.T) {
	mage := newMage(t, nil)
	target := newMage(t, nil)
	mage.LearnSpell(fireball(t))

	ok, _ := mage.CastSpell("Fireball", target, 0)
	require.True(t, ok)
	ok, err := mage.CastSpell("Fireball", target, 2*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 30.0, mage.Stats().Value(stats.Mana))
	assert.Equal(t, 70.0, target.Stats().Value(stats.Health))
}

func TestCastSpell_InsufficientManaAbortsBeforeCast(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	mage := newMage(t, zap.New(core))
	target := newMage(t, nil)
	spell := fireball(t)
	mage.LearnSpell(spell)
	mage.Stats().Set(stats.Mana, 10)

	ok, err := mage.CastSpell("Fireball", target, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	_, cast := spell.LastCast()
	assert.False(t, cast, "cooldown must not start on an aborted cast")
	assert.Equal(t, 100.0, target.Stats().Value(stats.Health))
	assert.Equal(t, 1, logs.FilterMessage("cast aborted: insufficient resource").Len())
}

func TestCastSpell_UnknownSpell(t *testing.T) {
	mage := newMage(t, nil)
	_, err := mage.CastSpell("Meteor", mage, 0)
	assert.ErrorIs(t, err, character.ErrUnknownSpell)
}

func TestSpellbook(t *testing.T) {
	mage := newMage(t, nil)
	mage.LearnSpell(fireball(t))
	assert.Equal(t, []string{"Fireball"}, mage.SpellNames())
	assert.True(t, mage.ForgetSpell("Fireball"))
	assert.False(t, mage.ForgetSpell("Fireball"))
	assert.Empty(t, mage.SpellNames())
}

func TestProcessEffect_CreatesAttribute(t *testing.T) {
	mage := newMage(t, nil)
	assert.Equal(t, 3.0, mage.ProcessEffect("luck", 3))
	assert.Equal(t, 0.0, mage.ProcessEffect(stats.Health, -500))
	assert.False(t, mage.IsAlive())
}

type catalog struct {
	t   *testing.T
	reg *inventory.Registry
}

func (c catalog) NewSpell(name string) (*ability.Ability, error) {
	if name == "Fireball" {
		return fireball(c.t), nil
	}
	return nil, fmt.Errorf("spell %q: %w", name, errors.New("unknown"))
}
func (c catalog) ItemRegistry() *inventory.Registry { return c.reg }
func (c catalog) Resolver() formula.ScriptResolver  { return nil }

func TestSnapshotRoundTrip(t *testing.T) {
	reg := inventory.NewRegistry()
	ringDef := &inventory.ItemDef{
		ID: "ring", Name: "Ring", Kind: inventory.KindEquipment,
		Effects: []effect.Spec{{Attribute: stats.Armor, Formula: formula.Spec{Kind: formula.KindFixed, Value: 5}}},
	}
	require.NoError(t, reg.RegisterItem(ringDef))

	mage := newMage(t, nil)
	mage.LearnSpell(fireball(t))
	ring, err := ringDef.Instantiate(nil)
	require.NoError(t, err)
	mage.Inventory().Add(ring)
	require.NoError(t, mage.Inventory().Use("Ring", mage))
	ok, err := mage.CastSpell("Fireball", mage, 3*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	snap := mage.Snapshot()
	restored, err := character.FromState(snap, catalog{t: t, reg: reg}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, snap, restored.Snapshot())

	spell, _ := restored.Spell("Fireball")
	assert.True(t, spell.IsOnCooldown(4*time.Second))
	assert.Equal(t, 10.0, restored.Stats().Value(stats.Armor))
}

func TestSnapshotRoundTrip_AdHocItems(t *testing.T) {
	mage := newMage(t, nil)
	potion, err := inventory.NewConsumable("Potion", "red", 5, []effect.Spec{
		{Attribute: stats.Health, Formula: formula.Spec{Kind: formula.KindFixedLimited, Value: 25}},
	}, nil)
	require.NoError(t, err)
	amulet, err := inventory.NewEquipment("Amulet", "", 30, []effect.Spec{
		{Attribute: stats.Armor, Formula: formula.Spec{Kind: formula.KindFixed, Value: 4}},
	}, nil)
	require.NoError(t, err)
	mage.Inventory().Add(potion)
	mage.Inventory().Add(amulet)
	require.NoError(t, mage.Inventory().Use("Amulet", mage))

	data, err := json.Marshal(mage.Snapshot())
	require.NoError(t, err)
	var snap character.State
	require.NoError(t, json.Unmarshal(data, &snap))

	restored, err := character.FromState(snap, catalog{t: t, reg: inventory.NewRegistry()}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, mage.Snapshot(), restored.Snapshot())
	assert.Equal(t, 9.0, restored.Stats().Value(stats.Armor))

	ring, ok := restored.Inventory().Find("Amulet")
	require.True(t, ok)
	assert.True(t, ring.Equipped())
	require.NoError(t, restored.Inventory().Use("Amulet", restored))
	assert.Equal(t, 5.0, restored.Stats().Value(stats.Armor))

	restored.Stats().Set(stats.Health, 50)
	require.NoError(t, restored.Inventory().Use("Potion", restored))
	assert.Equal(t, 75.0, restored.Stats().Value(stats.Health))
}

func TestFromState_ItemWithoutDefinition(t *testing.T) {
	snap := character.State{ID: "x", Name: "X", Stats: map[string]float64{}, Items: []inventory.ItemState{{InstanceID: "i1"}}}
	_, err := character.FromState(snap, catalog{t: t, reg: inventory.NewRegistry()}, nil, nil)
	assert.ErrorIs(t, err, inventory.ErrItemNotFound)
}

func TestFromState_UnknownSpell(t *testing.T) {
	snap := character.State{ID: "x", Name: "X", Stats: map[string]float64{}, Spells: map[string]ability.State{"Meteor": {}}}
	_, err := character.FromState(snap, catalog{t: t, reg: inventory.NewRegistry()}, nil, nil)
	assert.Error(t, err)
}
