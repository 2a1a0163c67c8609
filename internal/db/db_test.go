package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseSlotStore runs the shared SlotStore contract against a store.
func exerciseSlotStore(t *testing.T, store SlotStore) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, KeyDriveFileID, "file-1"))
	value, ok, err := store.Get(ctx, KeyDriveFileID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "file-1", value)

	require.NoError(t, store.Set(ctx, KeyDriveFileID, "file-2"))
	value, _, err = store.Get(ctx, KeyDriveFileID)
	require.NoError(t, err)
	assert.Equal(t, "file-2", value)

	require.NoError(t, store.Set(ctx, KeyApplications, ""))
	value, ok, err = store.Get(ctx, KeyApplications)
	require.NoError(t, err)
	assert.True(t, ok, "empty values are still present")
	assert.Equal(t, "", value)

	require.NoError(t, store.Delete(ctx, KeyDriveFileID))
	_, ok, err = store.Get(ctx, KeyDriveFileID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.Delete(ctx, KeyDriveFileID), "deleting an absent key is not an error")
}

func TestMemory_SlotStore(t *testing.T) {
	store := NewMemory()
	exerciseSlotStore(t, store)
	assert.NoError(t, store.Close())
}

func TestSQLite_SlotStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "slots.db")
	store, err := OpenSQLite(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, path, store.Path())
	exerciseSlotStore(t, store)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slots.db")
	ctx := context.Background()

	first, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, KeyApplications, `{"data":[],"savedAt":1}`))
	require.NoError(t, first.Close())

	second, err := OpenSQLite(path)
	require.NoError(t, err)
	defer second.Close()

	value, ok, err := second.Get(ctx, KeyApplications)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"data":[],"savedAt":1}`, value)
}

func TestSlotKeyConstants(t *testing.T) {
	keys := []string{KeyApplications, KeyDriveToken, KeyDriveFileID}
	seen := make(map[string]bool)
	for _, key := range keys {
		assert.NotEmpty(t, key)
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}
