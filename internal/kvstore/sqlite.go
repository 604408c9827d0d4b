package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteMedium keeps values in a single kv table of a local SQLite file.
type SQLiteMedium struct {
	db   *sql.DB
	path string
}

// NewSQLiteMedium opens (creating if needed) the database at path.
func NewSQLiteMedium(path string) (*SQLiteMedium, error) {
	if path == "" {
		path = "prospector.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("kvstore: create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open sqlite: %w", err)
	}
	// One writer keeps Set atomic without busy retries.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("kvstore: create kv table: %w", err)
	}
	return &SQLiteMedium{db: db, path: path}, nil
}

// Get returns the value stored under key.
func (s *SQLiteMedium) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap("get", key, err)
	}
	return value, true, nil
}

// Set upserts value under key.
func (s *SQLiteMedium) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		if strings.Contains(err.Error(), "database or disk is full") {
			err = fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return wrap("set", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQLiteMedium) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return wrap("delete", key, err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteMedium) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *SQLiteMedium) Path() string { return s.path }
