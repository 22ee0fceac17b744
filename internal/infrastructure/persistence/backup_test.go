package persistence

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, KeyProfile, map[string]string{"email": "a@b.c", "name": "A"}))
	require.NoError(t, store.Set(ctx, KeyProgression, map[string]int{"points": 50, "level": 3}))
	require.NoError(t, store.Set(ctx, KeyTier, "premium"))
	require.NoError(t, store.Set(ctx, KeyMealsCooked, 4))
	return store
}

func TestBackupper_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := seededStore(t)
	backupper := NewBackupper(source, nil)

	raw, err := backupper.ExportJSON(ctx)
	require.NoError(t, err)

	// Import into a fresh store and compare every exported key.
	target := NewMemoryStore()
	require.NoError(t, NewBackupper(target, nil).ImportJSON(ctx, raw))

	sourceKeys, err := source.Keys(ctx)
	require.NoError(t, err)
	targetKeys, err := target.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, sourceKeys, targetKeys)

	for _, key := range sourceKeys {
		want, err := source.Get(ctx, key)
		require.NoError(t, err)
		got, err := target.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, string(want), string(got), key)
	}
}

func TestBackupper_ExportMetadata(t *testing.T) {
	ctx := context.Background()
	backupper := NewBackupper(seededStore(t), nil)

	backup, err := backupper.Export(ctx)
	require.NoError(t, err)

	assert.Equal(t, AppVersion, backup.Metadata.AppVersion)
	assert.Equal(t, SchemaVersion, backup.Metadata.SchemaVersion)
	assert.False(t, backup.Metadata.ExportedAt.IsZero())
	assert.Len(t, backup.Metadata.Keys, 4)
	assert.Contains(t, backup.Metadata.Keys, KeyTier)

	_, err = uuid.Parse(backup.Metadata.ExportID)
	assert.NoError(t, err, "export id is a uuid")
}

func TestBackupper_ImportSkipsUnknownKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	backupper := NewBackupper(store, nil)

	payload := map[string]json.RawMessage{
		KeyTier:         json.RawMessage(`"premium"`),
		"slh_malicious": json.RawMessage(`"payload"`),
		metadataKey:     json.RawMessage(`{"appVersion":"2.0"}`),
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	require.NoError(t, backupper.ImportJSON(ctx, raw))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyTier}, keys)
}

func TestBackupper_ImportRejectsMalformedJSON(t *testing.T) {
	ctx := context.Background()
	backupper := NewBackupper(NewMemoryStore(), nil)

	err := backupper.ImportJSON(ctx, []byte(`{"truncated":`))
	assert.Error(t, err)
}

func TestBackupper_Purge(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	backupper := NewBackupper(store, nil)

	require.NoError(t, backupper.Purge(ctx))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestBackupper_ClearSection(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	backupper := NewBackupper(store, nil)

	require.NoError(t, store.Set(ctx, KeyStudyGoals, []string{"pass algorithms"}))
	require.NoError(t, store.Set(ctx, KeyShoppingList, []string{"rice"}))

	require.NoError(t, backupper.ClearSection(ctx, "study"))

	_, err := store.Get(ctx, KeyStudyGoals)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, err = store.Get(ctx, KeyShoppingList)
	assert.NoError(t, err, "other sections untouched")

	err = backupper.ClearSection(ctx, "unknown")
	assert.Error(t, err)
}
