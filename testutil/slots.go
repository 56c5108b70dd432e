package testutil

import (
	"path/filepath"
	"testing"

	"github.com/iksnae/gallery-session/internal"
)

// CreateInMemorySlot opens an in-memory SQLite slot closed at test cleanup
func CreateInMemorySlot(t *testing.T) *internal.SQLiteSlot {
	t.Helper()
	slot, err := internal.OpenSQLiteSlot(":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory slot: %v", err)
	}
	t.Cleanup(func() { _ = slot.Close() })
	return slot
}

// SeedSlot writes key=value into the default SQLite slot of dataDir, the way
// a previous run of the CLI would have left it
func SeedSlot(t *testing.T, dataDir, key, value string) {
	t.Helper()
	slot, err := internal.OpenSQLiteSlot(filepath.Join(dataDir, "state.db"))
	if err != nil {
		t.Fatalf("Failed to open slot: %v", err)
	}
	defer func() { _ = slot.Close() }()

	if err := slot.Set(key, value); err != nil {
		t.Fatalf("Failed to seed %s: %v", key, err)
	}
}

// ReadSlot reads key from the default SQLite slot of dataDir
func ReadSlot(t *testing.T, dataDir, key string) (string, bool) {
	t.Helper()
	slot, err := internal.OpenSQLiteSlot(filepath.Join(dataDir, "state.db"))
	if err != nil {
		t.Fatalf("Failed to open slot: %v", err)
	}
	defer func() { _ = slot.Close() }()

	value, ok, err := slot.Get(key)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", key, err)
	}
	return value, ok
}
