// Package store persists serialized conversion results in SQLite, keyed by
// the BLAKE3 hash of the source EPUB bytes. A repeated upload of the same
// bytes is a cache hit, not a reconversion.
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no book exists under the given hash.
var ErrNotFound = errors.New("book not found")

const schema = `
CREATE TABLE IF NOT EXISTS books (
	hash       TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	payload    BLOB NOT NULL,
	created_at TEXT NOT NULL
);`

// Store is a SQLite-backed conversion cache.
type Store struct {
	db *sql.DB
}

// Entry describes one cached book.
type Entry struct {
	Hash      string    `json:"hash"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Open opens (creating if needed) the store at the given path. Use ":memory:"
// for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// HashKey returns the BLAKE3 hex digest used as the cache key for source
// bytes.
func HashKey(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put stores (or replaces) a serialized book under its hash.
func (s *Store) Put(ctx context.Context, hash, title string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO books (hash, title, payload, created_at) VALUES (?, ?, ?, ?)`,
		hash, title, payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put book %s: %w", hash, err)
	}
	return nil
}

// Get returns the serialized book for a hash.
func (s *Store) Get(ctx context.Context, hash string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM books WHERE hash = ?`, hash).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book %s: %w", hash, err)
	}
	return payload, nil
}

// Has reports whether a book exists under the hash.
func (s *Store) Has(ctx context.Context, hash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM books WHERE hash = ?`, hash).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check book %s: %w", hash, err)
	}
	return true, nil
}

// List returns all cached books, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT hash, title, created_at FROM books ORDER BY created_at DESC, hash`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.Hash, &e.Title, &created); err != nil {
			return nil, fmt.Errorf("scan book row: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes a cached book.
func (s *Store) Delete(ctx context.Context, hash string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE hash = ?`, hash)
	if err != nil {
		return fmt.Errorf("delete book %s: %w", hash, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
