package database

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunLock is a date-keyed mutual-exclusion token backed by a Postgres
// advisory lock. It serializes concurrent update runs for the same date
// (scheduled vs. manually triggered) while allowing settlement and updates
// for different dates to proceed in parallel.
type RunLock struct {
	conn *pgxpool.Conn
	key  int64
}

// lockKey derives a stable advisory lock key from the run scope and date.
func lockKey(scope string, date time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(scope + "|" + date.Format("2006-01-02")))
	return int64(h.Sum64())
}

// TryAcquireRunLock attempts to take the advisory lock for the given scope
// and date without blocking. It returns (nil, false, nil) when another run
// already holds the lock. The lock is held on a dedicated connection until
// Release is called.
func (db *DB) TryAcquireRunLock(ctx context.Context, scope string, date time.Time) (*RunLock, bool, error) {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire connection for run lock: %w", err)
	}

	key := lockKey(scope, date)

	var acquired bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("failed to take advisory lock: %w", err)
	}

	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	return &RunLock{conn: conn, key: key}, true, nil
}

// Release unlocks the advisory lock and returns the connection to the pool.
func (l *RunLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	defer func() {
		l.conn.Release()
		l.conn = nil
	}()

	if _, err := l.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", l.key); err != nil {
		return fmt.Errorf("failed to release advisory lock: %w", err)
	}
	return nil
}
