package lock

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const releaseTimeout = 5 * time.Second

// PostgresDistributedLockManager uses session level advisory locks. The lock
// lives on one pooled connection, which is held until release.
type PostgresDistributedLockManager struct {
	db *sql.DB
}

func NewPostgresDistributedLockManager(db *sql.DB) *PostgresDistributedLockManager {
	return &PostgresDistributedLockManager{
		db: db,
	}
}

func (l *PostgresDistributedLockManager) Acquire(ctx context.Context, lockID int64) (Lease, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", lockID); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return &postgresLease{conn: conn, lockID: lockID}, nil
}

type postgresLease struct {
	conn   *sql.Conn
	lockID int64
}

func (p *postgresLease) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return p.conn.ExecContext(ctx, query, args...)
}

func (p *postgresLease) Release() error {
	defer p.conn.Close()
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if _, err := p.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", p.lockID); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
