package postgres

import (
	"context"
	"database/sql"
	"errors"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/graphboard/graphboard/custom_errors"
	"github.com/graphboard/graphboard/internal/lock"
	"github.com/graphboard/graphboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func newTestStore(t *testing.T) (store.PreferenceStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresPreferenceStore(db, lock.NewPostgresDistributedLockManager(db)), mock
}

func TestPostgresPreferenceStore_Init(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("SELECT pg_advisory_lock").
		WithArgs(lock.SchemaMigrationLock).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS graphboard_schema").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS graphboard_schema.preferences").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SELECT pg_advisory_unlock").
		WithArgs(lock.SchemaMigrationLock).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Init(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPreferenceStore_Init_SchemaError(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("SELECT pg_advisory_lock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE SCHEMA").
		WillReturnError(errors.New("permission denied"))
	mock.ExpectExec("SELECT pg_advisory_unlock").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Init(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create schema")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPreferenceStore_Get(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT value FROM graphboard_schema.preferences").
		WithArgs("preferred-timezone").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("+02:00"))

	value, err := s.Get(context.Background(), "preferred-timezone")
	require.NoError(t, err)
	assert.Equal(t, "+02:00", value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPreferenceStore_Get_NotFound(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT value FROM graphboard_schema.preferences").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, custom_errors.ErrPreferenceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPreferenceStore_Set(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("INSERT INTO graphboard_schema.preferences").
		WithArgs("preferred-timezone", "-05:00").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Set(context.Background(), "preferred-timezone", "-05:00"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPreferenceStore_Init_SingleConnection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := NewPostgresPreferenceStore(db, lock.NewPostgresDistributedLockManager(db))

	mock.ExpectExec("SELECT pg_advisory_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE SCHEMA").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SELECT pg_advisory_unlock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	require.NoError(t, s.Init(context.Background()))
	require.NoError(t, s.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPreferenceStore_Init_ReleaseError(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("SELECT pg_advisory_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE SCHEMA").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SELECT pg_advisory_unlock").WillReturnError(sql.ErrConnDone)

	err := s.Init(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Contains(t, err.Error(), "failed to release lock")
	assert.NoError(t, mock.ExpectationsWereMet())
}
