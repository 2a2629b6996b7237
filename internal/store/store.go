// Package store persists rendered SVGs in sqlite.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one cached render.
type Entry struct {
	Key      string
	Renderer string
	Display  bool
	SVG      string
}

// Key identifies a render of tex by renderer.
func Key(renderer string, display bool, tex string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%t\x00", renderer, display)
	h.Write([]byte(tex))
	return hex.EncodeToString(h.Sum(nil))
}

type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// Open opens or creates the database at path. Missing parent directories are
// created.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
        PRAGMA journal_mode = WAL;
        PRAGMA busy_timeout = 2000;
    `); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set PRAGMA: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Get returns the render stored under key and marks it as used.
func (s *Store) Get(key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrDatabaseClosed
	}

	var e Entry
	err := s.db.QueryRow(
		"SELECT key, renderer, display, svg FROM renders WHERE key = ?",
		key,
	).Scan(&e.Key, &e.Renderer, &e.Display, &e.SVG)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query render: %w", err)
	}

	if _, err := s.db.Exec(`
        UPDATE renders
        SET last_used = (SELECT COALESCE(MAX(last_used), 0) + 1 FROM renders)
        WHERE key = ?
    `, key); err != nil {
		return nil, fmt.Errorf("failed to touch render: %w", err)
	}

	return &e, nil
}

// Put inserts or replaces a render.
func (s *Store) Put(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrDatabaseClosed
	}

	_, err := s.db.Exec(`
        INSERT INTO renders (key, renderer, display, svg, created_at, last_used)
        VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(last_used), 0) + 1 FROM renders))
        ON CONFLICT(key) DO UPDATE SET
            svg = excluded.svg,
            last_used = excluded.last_used
    `, e.Key, e.Renderer, e.Display, e.SVG, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert render: %w", err)
	}
	return nil
}

// Prune deletes the least recently used renders until at most limit remain.
// It returns the number of deleted rows.
func (s *Store) Prune(limit int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrDatabaseClosed
	}
	if limit < 0 {
		limit = 0
	}

	result, err := s.db.Exec(`
        DELETE FROM renders
        WHERE key NOT IN (
            SELECT key FROM renders ORDER BY last_used DESC LIMIT ?
        )
    `, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to prune renders: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}

// Count returns the number of cached renders.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrDatabaseClosed
	}

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM renders").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count renders: %w", err)
	}
	return n, nil
}

// Clear removes every render.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrDatabaseClosed
	}

	if _, err := s.db.Exec("DELETE FROM renders"); err != nil {
		return fmt.Errorf("failed to clear database: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
