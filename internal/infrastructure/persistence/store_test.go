package persistence

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeUnderTest runs the shared contract against any backend.
func storeUnderTest(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	// Missing key
	_, err := store.Get(ctx, KeyProfile)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// Set / Get round trip
	require.NoError(t, store.Set(ctx, KeyProfile, map[string]string{"email": "a@b.c"}))
	raw, err := store.Get(ctx, KeyProfile)
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "a@b.c", decoded["email"])

	// Overwrite
	require.NoError(t, store.Set(ctx, KeyProfile, map[string]string{"email": "x@y.z"}))
	raw, err = store.Get(ctx, KeyProfile)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "x@y.z", decoded["email"])

	// Keys
	require.NoError(t, store.Set(ctx, KeyTier, "free"))
	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{KeyProfile, KeyTier}, keys)

	// Remove is idempotent
	require.NoError(t, store.Remove(ctx, KeyProfile))
	require.NoError(t, store.Remove(ctx, KeyProfile))
	_, err = store.Get(ctx, KeyProfile)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// Empty key rejected
	assert.ErrorIs(t, store.Set(ctx, "", "v"), ErrKeyEmpty)
	_, err = store.Get(ctx, "")
	assert.ErrorIs(t, err, ErrKeyEmpty)

	assert.NoError(t, store.Ping(ctx))
}

func TestMemoryStore_Contract(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	storeUnderTest(t, store)
}

func TestFileStore_Contract(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "hub.json"))
	require.NoError(t, err)
	defer store.Close()
	storeUnderTest(t, store)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Set(ctx, KeyTier, "free"))

	raw, err := store.Get(ctx, KeyTier)
	require.NoError(t, err)
	raw[0] = 'X'

	again, err := store.Get(ctx, KeyTier)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`"free"`), again)
}

func TestMemoryStore_ClosedRejectsOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Set(ctx, KeyTier, "free"), ErrClosed)
	_, err := store.Get(ctx, KeyTier)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "hub.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KeyProgression, map[string]int{"points": 42}))
	require.NoError(t, store.Close())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	raw, err := reopened.Get(ctx, KeyProgression)
	require.NoError(t, err)

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 42, decoded["points"])
}

func TestLoad_Helpers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	var out map[string]int
	found, err := Load(ctx, store, KeyProgression, &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, KeyProgression, map[string]int{"points": 7}))
	found, err = Load(ctx, store, KeyProgression, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 7, out["points"])

	n, err := LoadInt(ctx, store, KeyMealsCooked, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, store.Set(ctx, KeyMealsCooked, 12))
	n, err = LoadInt(ctx, store, KeyMealsCooked, 3)
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}
