package internal

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSlotContract exercises the behaviour every Slot backend must share
func testSlotContract(t *testing.T, slot Slot) {
	t.Helper()

	_, ok, err := slot.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok, "absent key is not an error")

	require.NoError(t, slot.Set("k", "v1"))
	v, ok, err := slot.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	require.NoError(t, slot.Set("k", "v2"))
	v, _, _ = slot.Get("k")
	assert.Equal(t, "v2", v, "set overwrites")

	require.NoError(t, slot.Set("empty", ""))
	v, ok, err = slot.Get("empty")
	require.NoError(t, err)
	assert.True(t, ok, "empty string is still a value")
	assert.Equal(t, "", v)

	require.NoError(t, slot.Remove("k"))
	_, ok, err = slot.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, slot.Remove("never-set"), "removing an absent key is fine")
}

func TestMemorySlot(t *testing.T) {
	testSlotContract(t, NewMemorySlot())
}

func TestOpenSlot(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		want    interface{}
	}{
		{"default is sqlite", "", &SQLiteSlot{}},
		{"sqlite", BackendSQLite, &SQLiteSlot{}},
		{"badger", BackendBadger, &BadgerSlot{}},
		{"memory", BackendMemory, &MemorySlot{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(t.TempDir())
			cfg.Backend = tt.backend

			slot, closer, err := OpenSlot(cfg)
			require.NoError(t, err)
			defer closer.Close()

			assert.IsType(t, tt.want, slot)
			testSlotContract(t, slot)
		})
	}
}

func TestOpenSlot_UnknownBackend(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	cfg.Backend = "redis"

	_, _, err := OpenSlot(cfg)
	assert.True(t, errors.Is(err, ErrUnknownBackend))
}

func TestOpenSlot_PersistsAcrossReopen(t *testing.T) {
	for _, backend := range []string{BackendSQLite, BackendBadger} {
		t.Run(backend, func(t *testing.T) {
			cfg := DefaultConfig(t.TempDir())
			cfg.Backend = backend

			slot, closer, err := OpenSlot(cfg)
			require.NoError(t, err)
			store := NewConversationStore(slot)
			store.PushMessage(map[string]any{"role": "user", "content": "across reloads"})
			store.SetLastQuery("reloads")
			require.NoError(t, store.Persist())
			require.NoError(t, closer.Close())

			slot, closer, err = OpenSlot(cfg)
			require.NoError(t, err)
			defer closer.Close()

			reloaded := NewConversationStore(slot)
			require.NoError(t, reloaded.Hydrate())
			assert.Equal(t, store.Snapshot(), reloaded.Snapshot())
		})
	}
}

func TestOpenSlot_Paths(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)

	slot, closer, err := OpenSlot(cfg)
	require.NoError(t, err)
	defer closer.Close()

	sqlite, ok := slot.(*SQLiteSlot)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "state.db"), sqlite.Path())
}
