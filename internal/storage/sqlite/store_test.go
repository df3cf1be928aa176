package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/rpgworld/internal/storage"
	"github.com/cory-johannsen/rpgworld/internal/storage/sqlite"
	"github.com/cory-johannsen/rpgworld/internal/storage/storetest"
)

func openStore(t *testing.T, path string, opts ...storage.Option) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), path, nil, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store {
		return openStore(t, filepath.Join(t.TempDir(), "saves.db"))
	})
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), " ", nil)
	assert.Error(t, err)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves.db")
	at := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

	s, err := sqlite.Open(context.Background(), path, nil,
		storage.WithClock(storetest.FixedClock(at)),
		storage.WithIDGenerator(storetest.SequentialIDs()),
	)
	require.NoError(t, err)
	snap := storetest.Snapshot(42 * time.Second)
	_, err = s.Save(context.Background(), "keep", snap)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened := openStore(t, path)
	got, err := reopened.Load(context.Background(), "keep")
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	infos, err := reopened.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "id-1", infos[0].ID)
	assert.True(t, at.Equal(infos[0].SavedAt))
	assert.Equal(t, 42*time.Second, infos[0].GameTime)
}
