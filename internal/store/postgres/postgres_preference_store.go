package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/graphboard/graphboard/custom_errors"
	"github.com/graphboard/graphboard/internal/lock"
	"github.com/graphboard/graphboard/internal/store"
)

const schema = "graphboard_schema"

type postgresPreferenceStore struct {
	db      *sql.DB
	lockMgr lock.DistributedLockManager
}

// NewPostgresPreferenceStore keeps preferences in graphboard_schema.preferences.
// lockMgr serializes Init across processes sharing the database.
func NewPostgresPreferenceStore(db *sql.DB, lockMgr lock.DistributedLockManager) store.PreferenceStore {
	return &postgresPreferenceStore{db: db, lockMgr: lockMgr}
}

// Init creates the schema and table. The DDL runs on the connection holding
// the migration lock.
func (s *postgresPreferenceStore) Init(ctx context.Context) (err error) {
	lease, err := s.lockMgr.Acquire(ctx, lock.SchemaMigrationLock)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := lease.Release(); releaseErr != nil {
			err = errors.Join(err, releaseErr)
		}
	}()

	if _, err := lease.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.preferences (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, schema)
	if _, err := lease.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create preferences table: %w", err)
	}
	return nil
}

func (s *postgresPreferenceStore) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM graphboard_schema.preferences WHERE key = $1`
	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", custom_errors.ErrPreferenceNotFound
		}
		return "", err
	}
	return value, nil
}

func (s *postgresPreferenceStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO graphboard_schema.preferences (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	_, err := s.db.ExecContext(ctx, query, key, value)
	return err
}

func (s *postgresPreferenceStore) Close() error {
	return s.db.Close()
}
