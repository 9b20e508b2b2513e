package distlock

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is a non-blocking, single-owner lock. An instance represents one
// owner; use a separate instance per competing caller.
type DistLock interface {
	// Acquire tries once to take the lock and reports whether it succeeded.
	Acquire(ctx context.Context) (bool, error)
	// Release gives the lock up if this instance still owns it.
	Release(ctx context.Context) error
}

// NewLock returns a Redis lock when a client is configured and a MySQL
// named lock otherwise.
func NewLock(redisClient *redis.Client, db *sql.DB, key string, ttl time.Duration) DistLock {
	if redisClient != nil {
		return NewRedisLock(redisClient, key, ttl)
	}
	return NewMySQLLock(db, key, ttl)
}
