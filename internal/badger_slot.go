package internal

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerSlot stores slot values in a BadgerDB directory
type BadgerSlot struct {
	db  *badger.DB
	dir string
}

// OpenBadgerSlot opens (creating if needed) the BadgerDB directory at dir
func OpenBadgerSlot(dir string) (*BadgerSlot, error) {
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &SlotError{Backend: BackendBadger, Op: "open", Err: fmt.Errorf("failed to open badger: %w", err)}
	}

	return &BadgerSlot{db: db, dir: dir}, nil
}

// Get returns the value stored under key
func (b *BadgerSlot) Get(key string) (string, bool, error) {
	var value string
	found := false

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			found = true
			return nil
		})
	})
	if err != nil {
		return "", false, &SlotError{Backend: BackendBadger, Op: "get", Key: key, Err: err}
	}

	return value, found, nil
}

// Set stores value under key
func (b *BadgerSlot) Set(key, value string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return &SlotError{Backend: BackendBadger, Op: "set", Key: key, Err: err}
	}
	return nil
}

// Remove deletes key
func (b *BadgerSlot) Remove(key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return &SlotError{Backend: BackendBadger, Op: "remove", Key: key, Err: err}
	}
	return nil
}

// Close closes the BadgerDB instance
func (b *BadgerSlot) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
