package lock

import (
	"context"
	"database/sql"
)

// SchemaMigrationLock guards schema creation so concurrent processes starting
// against the same database do not race on DDL.
const SchemaMigrationLock int64 = 1

// Lease is a held lock. Statements executed through it run on the session that
// holds the lock.
type Lease interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	// Release gives the lock up. It must be called exactly once.
	Release() error
}

type DistributedLockManager interface {
	// Acquire blocks until lockID is held or ctx is done.
	Acquire(ctx context.Context, lockID int64) (Lease, error)
}
