package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "nbDeviceId", "abc123"))
	value, err := store.Get(ctx, "nbDeviceId")
	require.NoError(t, err)
	assert.Equal(t, "abc123", value)

	require.NoError(t, store.Delete(ctx, "nbDeviceId", "missing"))
	_, err = store.Get(ctx, "nbDeviceId")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "local.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "nbUser", `{"id":"1"}`))
	require.NoError(t, store.Set(ctx, "nbDeviceId", "f1"))
	require.NoError(t, store.Delete(ctx, "nbDeviceId"))
	require.NoError(t, store.Close())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	value, err := reopened.Get(ctx, "nbUser")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, value)

	_, err = reopened.Get(ctx, "nbDeviceId")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestFileStoreToleratesCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "nbUser")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
