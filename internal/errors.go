package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaMismatch is returned by Hydrate when the stored blob was written
	// by a different schema version. Nothing is adopted.
	ErrSchemaMismatch = errors.New("conversation state schema mismatch")

	// ErrCorruptState is returned by Hydrate when the stored blob is not a JSON object.
	ErrCorruptState = errors.New("conversation state is corrupt")

	// ErrUnknownBackend is returned by OpenSlot for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// SlotError represents errors accessing the durable key-value slot
type SlotError struct {
	Backend string // "sqlite", "badger", "memory"
	Op      string // "open", "get", "set", "remove"
	Key     string
	Err     error
}

func (e *SlotError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("slot error [%s] %s: %v", e.Backend, e.Op, e.Err)
	}
	return fmt.Sprintf("slot error [%s] %s %s: %v", e.Backend, e.Op, e.Key, e.Err)
}

func (e *SlotError) Unwrap() error {
	return e.Err
}

// CredentialError represents a credential that could not be decoded
type CredentialError struct {
	Reason string
	Err    error
}

func (e *CredentialError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("credential error: %s", e.Reason)
	}
	return fmt.Sprintf("credential error: %s: %v", e.Reason, e.Err)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// StateError represents errors loading or saving conversation state
type StateError struct {
	Key string
	Op  string // "hydrate", "persist"
	Err error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state error [%s] %s: %v", e.Op, e.Key, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// ConfigError represents errors loading the configuration file
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// APIError represents a failed call to the credential endpoints
type APIError struct {
	Path   string
	Status int // 0 when no response was received
	Detail string
	Err    error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api error %s: network failure: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("api error %s -> %d %s", e.Path, e.Status, e.Detail)
}

func (e *APIError) Unwrap() error {
	return e.Err
}
