package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rpgworld/internal/game/stats"
)

func hero() *stats.Table {
	return stats.NewCharacter(120, 80, 100, 10, nil)
}

func TestModify_DamageThenClampAtZero(t *testing.T) {
	tbl := hero()
	assert.Equal(t, 90.0, tbl.Modify(stats.Health, -30))
	assert.Equal(t, 90.0, tbl.Value(stats.Health))

	assert.Equal(t, 0.0, tbl.Modify(stats.Health, -1000))
	assert.Equal(t, 0.0, tbl.Value(stats.Health))
	assert.False(t, tbl.IsAlive())
}

func TestModify_HealCappedAtMax(t *testing.T) {
	tbl := hero()
	tbl.Modify(stats.Mana, -50)
	assert.Equal(t, 80.0, tbl.Modify(stats.Mana, 500))
}

func TestModify_UnclampedAttributeIsUnbounded(t *testing.T) {
	tbl := hero()
	assert.Equal(t, -15.0, tbl.Modify(stats.Armor, -25))
	assert.Equal(t, 985.0, tbl.Modify(stats.Armor, 1000))
}

func TestModify_MissingAttributeCreated(t *testing.T) {
	tbl := hero()
	_, ok := tbl.Get("strength")
	require.False(t, ok)

	assert.Equal(t, 5.0, tbl.Modify("strength", 5))
	v, ok := tbl.Get("strength")
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)
}

func TestModify_ClampedWithoutMaxFloorsAtZero(t *testing.T) {
	tbl := stats.New(map[string]float64{stats.Health: 10})
	assert.Equal(t, 0.0, tbl.Modify(stats.Health, -20))
	assert.Equal(t, 40.0, tbl.Modify(stats.Health, 40))
}

func TestSet_DoesNotClamp(t *testing.T) {
	tbl := hero()
	tbl.Set(stats.Health, 500)
	assert.Equal(t, 500.0, tbl.Value(stats.Health))
}

func TestWithClamped_ConfiguresSet(t *testing.T) {
	tbl := stats.New(map[string]float64{"stamina": 5, "max_stamina": 10, stats.Health: 5}, stats.WithClamped("stamina"))
	assert.True(t, tbl.IsClamped("stamina"))
	assert.False(t, tbl.IsClamped(stats.Health))
	assert.Equal(t, 10.0, tbl.Modify("stamina", 100))
	assert.Equal(t, -5.0, tbl.Modify(stats.Health, -10))
}

func TestBounds(t *testing.T) {
	tbl := hero()
	lo, hi, ok := tbl.Bounds(stats.Health)
	require.True(t, ok)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 120.0, hi)

	_, _, ok = tbl.Bounds(stats.Armor)
	assert.False(t, ok)
}

func TestSnapshotRestore(t *testing.T) {
	tbl := hero()
	tbl.Modify(stats.Health, -20)
	snap := tbl.Snapshot()

	other := stats.New(nil)
	other.Restore(snap)
	assert.Equal(t, snap, other.Snapshot())

	snap[stats.Health] = 1
	assert.Equal(t, 100.0, tbl.Value(stats.Health), "snapshot must be a copy")
}

func TestModify_LogsDebugRecord(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tbl := stats.NewCharacter(100, 100, 100, 0, nil, stats.WithLogger(zap.New(core)))
	tbl.Modify(stats.Health, -10)

	entries := logs.FilterMessage("stat modified").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "health", entries[0].ContextMap()["attribute"])
	assert.Equal(t, 90.0, entries[0].ContextMap()["after"])
}

func TestString_SortedAttributes(t *testing.T) {
	tbl := stats.New(map[string]float64{"b": 2, "a": 1})
	assert.Equal(t, "Stats(a: 1, b: 2)", tbl.String())
}

// TestModify_ClampInvariant_Property verifies that clamped attributes stay in
// [0, max] after any sequence of Modify calls.
func TestModify_ClampInvariant_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		max := rapid.Float64Range(1, 1000).Draw(rt, "max")
		tbl := stats.NewCharacter(max, max, max, 0, nil)
		attrs := []string{stats.Health, stats.Mana, stats.Focus}
		deltas := rapid.SliceOf(rapid.Float64Range(-2000, 2000)).Draw(rt, "deltas")
		for i, d := range deltas {
			attr := attrs[i%len(attrs)]
			got := tbl.Modify(attr, d)
			if got < 0 || got > max {
				rt.Fatalf("%s out of bounds: %v not in [0, %v]", attr, got, max)
			}
			if got != tbl.Value(attr) {
				rt.Fatalf("Modify returned %v but stored %v", got, tbl.Value(attr))
			}
		}
	})
}
