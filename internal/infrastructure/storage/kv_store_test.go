package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"defect-bot/internal/domain/port"
)

func kvStores(t *testing.T) map[string]port.KeyValueStore {
	t.Helper()

	file, err := NewFileKVStore(filepath.Join(t.TempDir(), "kv"))
	require.NoError(t, err)

	sqlite, err := NewSQLiteKVStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]port.KeyValueStore{
		"memory": NewMemoryKVStore(),
		"file":   file,
		"sqlite": sqlite,
	}
}

func TestKVStore_MissingKey(t *testing.T) {
	for name, store := range kvStores(t) {
		t.Run(name, func(t *testing.T) {
			v, ok, err := store.Get(context.Background(), "predictionHistory")
			require.NoError(t, err)
			require.False(t, ok)
			require.Nil(t, v)
		})
	}
}

func TestKVStore_SetGetOverwrite(t *testing.T) {
	for name, store := range kvStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Set(ctx, "predictionHistory", []byte(`[1]`)))
			v, ok, err := store.Get(ctx, "predictionHistory")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, []byte(`[1]`), v)

			require.NoError(t, store.Set(ctx, "predictionHistory", []byte(`[1,2]`)))
			v, ok, err = store.Get(ctx, "predictionHistory")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, []byte(`[1,2]`), v)
		})
	}
}

func TestMemoryKVStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryKVStore()

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'x'

	got, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), got)
}

func TestFileKVStore_InvalidKey(t *testing.T) {
	store, err := NewFileKVStore(t.TempDir())
	require.NoError(t, err)

	require.Error(t, store.Set(context.Background(), "../escape", []byte("x")))
	_, _, err = store.Get(context.Background(), "")
	require.Error(t, err)
}

func TestSQLiteKVStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := NewSQLiteKVStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "predictionHistory", []byte("persisted")))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteKVStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "predictionHistory")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("persisted"), v)
}

func TestMemoryUserRepository_SetStateUnless(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	ok, err := repo.SetStateUnless(ctx, 1, 10, "processing", "processing")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.SetStateUnless(ctx, 1, 10, "processing", "processing")
	require.NoError(t, err)
	require.False(t, ok)

	user, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, "processing", user.State)
}
