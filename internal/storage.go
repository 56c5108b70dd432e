package internal

import (
	"fmt"
	"io"
	"path/filepath"
)

// Fixed slot keys
const (
	CredentialKey   = "access_token"
	ConversationKey = "ai_workspace_state_v1"
)

// Slot is the durable key-value store the client keeps its state in.
// An absent key is reported as ok=false with a nil error.
type Slot interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// MemorySlot is a map-backed Slot. State does not survive the process.
type MemorySlot struct {
	values map[string]string
}

// NewMemorySlot creates an empty MemorySlot
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{values: make(map[string]string)}
}

// Get returns the value stored under key
func (m *MemorySlot) Get(key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

// Set stores value under key
func (m *MemorySlot) Set(key, value string) error {
	m.values[key] = value
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (m *MemorySlot) Remove(key string) error {
	delete(m.values, key)
	return nil
}

// Close is a no-op
func (m *MemorySlot) Close() error {
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenSlot opens the backend named in cfg. The returned closer releases it.
func OpenSlot(cfg Config) (Slot, io.Closer, error) {
	switch cfg.Backend {
	case BackendSQLite, "":
		slot, err := OpenSQLiteSlot(filepath.Join(cfg.DataDir, "state.db"))
		if err != nil {
			return nil, nil, err
		}
		return slot, slot, nil
	case BackendBadger:
		slot, err := OpenBadgerSlot(filepath.Join(cfg.DataDir, "badger"))
		if err != nil {
			return nil, nil, err
		}
		return slot, slot, nil
	case BackendMemory:
		return NewMemorySlot(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q (supported: sqlite, badger, memory)", ErrUnknownBackend, cfg.Backend)
	}
}
