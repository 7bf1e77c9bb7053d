package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/graphboard/graphboard/custom_errors"
	"github.com/graphboard/graphboard/internal/store"
)

// DefaultPath is used when Open gets an empty path.
const DefaultPath = "graphboard.db"

// Open opens the database file at path, creating it if needed.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		path = DefaultPath
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return db, nil
}

type sqlitePreferenceStore struct {
	db *sql.DB
}

// NewSQLitePreferenceStore keeps preferences in a local database file, the
// default when no shared backend is configured.
func NewSQLitePreferenceStore(db *sql.DB) store.PreferenceStore {
	return &sqlitePreferenceStore{db: db}
}

func (s *sqlitePreferenceStore) Init(ctx context.Context) error {
	q := `
	CREATE TABLE IF NOT EXISTS preferences (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.ExecContext(ctx, q)
	return err
}

func (s *sqlitePreferenceStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", custom_errors.ErrPreferenceNotFound
	}
	return value, err
}

func (s *sqlitePreferenceStore) Set(ctx context.Context, key, value string) error {
	q := `
	INSERT INTO preferences (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	_, err := s.db.ExecContext(ctx, q, key, value)
	return err
}

func (s *sqlitePreferenceStore) Close() error {
	return s.db.Close()
}
