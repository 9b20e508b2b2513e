package distlock

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// MySQLLock uses GET_LOCK / RELEASE_LOCK. Named locks belong to a session,
// so the lock pins one pooled connection from Acquire until Release. If that
// connection drops, MySQL releases the lock on its own.
type MySQLLock struct {
	db   *sql.DB
	name string

	mu   sync.Mutex
	conn *sql.Conn
}

// NewMySQLLock creates a named lock. MySQL caps lock names at 64 characters.
// ttl is unused; the lock lives as long as the pinned session.
func NewMySQLLock(db *sql.DB, key string, _ time.Duration) *MySQLLock {
	name := "lock:" + key
	if len(name) > 64 {
		name = name[:64]
	}
	return &MySQLLock{db: db, name: name}
}

func (l *MySQLLock) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		return false, fmt.Errorf("lock %s already held by this instance", l.name)
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get connection for lock %s: %w", l.name, err)
	}

	// GET_LOCK returns 1 on success, 0 on timeout and NULL on error.
	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, 0)", l.name).Scan(&got); err != nil {
		conn.Close()
		return false, fmt.Errorf("failed to acquire lock %s: %w", l.name, err)
	}
	if !got.Valid || got.Int64 != 1 {
		conn.Close()
		return false, nil
	}

	l.conn = conn
	return true, nil
}

func (l *MySQLLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	conn := l.conn
	l.conn = nil
	defer conn.Close()

	_, err := conn.ExecContext(ctx, "SELECT RELEASE_LOCK(?)", l.name)
	return err
}
