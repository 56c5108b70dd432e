package internal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const createSlotTableSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT
)`

// SQLiteSlot stores slot values in a single-table SQLite database
type SQLiteSlot struct {
	db   *sql.DB
	path string
}

// OpenSQLiteSlot opens (creating if needed) the SQLite database at path
func OpenSQLiteSlot(path string) (*SQLiteSlot, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, &SlotError{Backend: BackendSQLite, Op: "open", Err: err}
		}
	}

	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &SlotError{Backend: BackendSQLite, Op: "open", Err: err}
	}

	if _, err := db.Exec(createSlotTableSQL); err != nil {
		db.Close()
		return nil, &SlotError{Backend: BackendSQLite, Op: "open", Err: fmt.Errorf("failed to create kv table: %w", err)}
	}

	return &SQLiteSlot{db: db, path: path}, nil
}

// OpenDatabase opens a SQLite database in read-write mode
func OpenDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: every ":memory:" connection is its own database.
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return db, nil
}

// Path returns the database file path
func (s *SQLiteSlot) Path() string {
	return s.path
}

// Get returns the value stored under key
func (s *SQLiteSlot) Get(key string) (string, bool, error) {
	var value sql.NullString
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &SlotError{Backend: BackendSQLite, Op: "get", Key: key, Err: err}
	}
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

// Set stores value under key, replacing any previous value
func (s *SQLiteSlot) Set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return &SlotError{Backend: BackendSQLite, Op: "set", Key: key, Err: err}
	}
	return nil
}

// Remove deletes key
func (s *SQLiteSlot) Remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return &SlotError{Backend: BackendSQLite, Op: "remove", Key: key, Err: err}
	}
	return nil
}

// Keys lists every stored key, for diagnostics
func (s *SQLiteSlot) Keys() ([]string, error) {
	rows, err := s.db.Query("SELECT key FROM kv WHERE value IS NOT NULL ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return keys, nil
}

// Close closes the database
func (s *SQLiteSlot) Close() error {
	return s.db.Close()
}
