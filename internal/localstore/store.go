// Package localstore is the durable key/value store for state that outlives
// a planner session: wizard drafts, guest column configuration and saved
// layout templates.  Values are JSON documents in a single sqlite table.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/iliyamo/wedding-seating/internal/database"
)

// ErrNotFound is returned for missing keys where absence is an error.
var ErrNotFound = errors.New("local key not found")

// Store wraps the sqlite handle.
type Store struct {
	db *sql.DB

	// tmu serialises read-modify-write of the template array.
	tmu sync.Mutex
}

// Open opens the sqlite file at path and prepares the key table.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := database.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New prepares the key table on an already-open handle.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	const ddl = `CREATE TABLE IF NOT EXISTS local_keys (
		k          TEXT     NOT NULL PRIMARY KEY,
		v          TEXT     NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("localstore: create table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the handle.
func (s *Store) Close() error { return s.db.Close() }

// Get returns the raw value of key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT v FROM local_keys WHERE k = ?`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(v), true, nil
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	const q = `INSERT INTO local_keys (k, v, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
               ON CONFLICT(k) DO UPDATE SET v = excluded.v, updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, q, key, string(value))
	return err
}

// Delete removes key.  Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM local_keys WHERE k = ?`, key)
	return err
}
