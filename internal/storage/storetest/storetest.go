// Package storetest holds behavior tests shared by every storage.Store.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/rpgworld/internal/game/character"
	"github.com/cory-johannsen/rpgworld/internal/game/quest"
	"github.com/cory-johannsen/rpgworld/internal/game/session"
	"github.com/cory-johannsen/rpgworld/internal/game/world"
	"github.com/cory-johannsen/rpgworld/internal/storage"
)

// Snapshot returns a small but fully populated snapshot.
func Snapshot(gameTime time.Duration) session.Snapshot {
	return session.Snapshot{
		Version: session.SnapshotVersion,
		Time:    gameTime,
		World:   world.State{Current: "village"},
		Characters: []character.State{
			{ID: "hero", Name: "Hero", Stats: map[string]float64{"health": 80, "max_health": 100}},
		},
		Events: map[string]bool{"second_wind": true},
		Quests: map[string]quest.State{"delve": {Objectives: map[string]bool{"enter_cave": true}}},
	}
}

// FixedClock returns a clock for storage.WithClock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// SequentialIDs returns an ID generator yielding id-1, id-2, ...
func SequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// Run exercises the Store contract against stores built by newStore.
// newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("save then load", func(t *testing.T) {
		s := newStore(t)
		snap := Snapshot(5 * time.Second)
		info, err := s.Save(ctx, "slot1", snap)
		require.NoError(t, err)
		assert.Equal(t, "slot1", info.Slot)
		assert.NotEmpty(t, info.ID)
		assert.Equal(t, 5*time.Second, info.GameTime)

		got, err := s.Load(ctx, "slot1")
		require.NoError(t, err)
		assert.Equal(t, snap, got)
	})

	t.Run("save replaces and assigns a new id", func(t *testing.T) {
		s := newStore(t)
		first, err := s.Save(ctx, "slot1", Snapshot(time.Second))
		require.NoError(t, err)
		second, err := s.Save(ctx, "slot1", Snapshot(2*time.Second))
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)

		got, err := s.Load(ctx, "slot1")
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, got.Time)

		infos, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, second.ID, infos[0].ID)
	})

	t.Run("missing slot", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Load(ctx, "nothing")
		assert.ErrorIs(t, err, storage.ErrSlotNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "nothing"), storage.ErrSlotNotFound)
	})

	t.Run("invalid slot", func(t *testing.T) {
		s := newStore(t)
		for _, slot := range []string{"", "../escape", "has space", "a:b"} {
			_, err := s.Save(ctx, slot, Snapshot(0))
			assert.ErrorIs(t, err, storage.ErrInvalidSlot, slot)
			_, err = s.Load(ctx, slot)
			assert.ErrorIs(t, err, storage.ErrInvalidSlot, slot)
			assert.ErrorIs(t, s.Delete(ctx, slot), storage.ErrInvalidSlot, slot)
		}
	})

	t.Run("slot names do not collide with store bookkeeping", func(t *testing.T) {
		s := newStore(t)
		names := []string{"hero", "index", "slot", "slots"}
		for _, slot := range names {
			_, err := s.Save(ctx, slot, Snapshot(time.Second))
			require.NoError(t, err, slot)
		}
		infos, err := s.List(ctx)
		require.NoError(t, err)
		var slots []string
		for _, i := range infos {
			slots = append(slots, i.Slot)
		}
		assert.Equal(t, names, slots)
		for _, slot := range names {
			got, err := s.Load(ctx, slot)
			require.NoError(t, err, slot)
			assert.Equal(t, time.Second, got.Time)
		}
	})

	t.Run("list uses byte order", func(t *testing.T) {
		s := newStore(t)
		for _, slot := range []string{"b", "a_2", "B", "a-1", "A"} {
			_, err := s.Save(ctx, slot, Snapshot(0))
			require.NoError(t, err)
		}
		infos, err := s.List(ctx)
		require.NoError(t, err)
		var slots []string
		for _, i := range infos {
			slots = append(slots, i.Slot)
		}
		assert.Equal(t, []string{"A", "B", "a-1", "a_2", "b"}, slots)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Save(ctx, "slot1", Snapshot(0))
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, "slot1"))
		_, err = s.Load(ctx, "slot1")
		assert.ErrorIs(t, err, storage.ErrSlotNotFound)
	})

	t.Run("list is sorted", func(t *testing.T) {
		s := newStore(t)
		infos, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, infos)

		for _, slot := range []string{"b", "c", "a"} {
			_, err := s.Save(ctx, slot, Snapshot(time.Minute))
			require.NoError(t, err)
		}
		infos, err = s.List(ctx)
		require.NoError(t, err)
		var slots []string
		for _, i := range infos {
			slots = append(slots, i.Slot)
			assert.Equal(t, time.Minute, i.GameTime)
		}
		assert.Equal(t, []string{"a", "b", "c"}, slots)
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := newStore(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Save(cctx, "slot1", Snapshot(0))
		assert.Error(t, err)
	})
}
