// Package distlock provides short-lived cross-host mutual exclusion.
// The engine uses it to serialize review generation per (user, month) so
// concurrent requests cannot double-charge the usage quota or race two LLM
// runs against each other.
package distlock

import (
	"context"
	"database/sql"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock is one acquirable mutex instance. A Lock belongs to a single
// goroutine; create a new instance per attempt.
type Lock interface {
	// Acquire tries to take the lock without blocking. Returns true when
	// this instance now owns it.
	Acquire(ctx context.Context) (bool, error)
	// Release gives the lock up if this instance still owns it.
	Release(ctx context.Context) error
}

// Provider hands out locks backed by Redis when configured, falling back
// to PostgreSQL advisory locks otherwise. Either backend survives a crashed
// holder: Redis via TTL expiry, Postgres via session scoping.
type Provider struct {
	redis *redis.Client
	db    *sql.DB
	ttl   time.Duration
}

// NewProvider creates a lock provider. redisClient may be nil; db must not.
func NewProvider(redisClient *redis.Client, db *sql.DB, ttl time.Duration) *Provider {
	return &Provider{redis: redisClient, db: db, ttl: ttl}
}

// Lock returns a fresh lock instance for the given key.
func (p *Provider) Lock(key string) Lock {
	if p.redis != nil {
		return newRedisLock(p.redis, key, p.ttl)
	}
	return newAdvisoryLock(p.db, key)
}

// advisoryLock implements Lock on pg_try_advisory_lock / pg_advisory_unlock.
// The numeric lock id is derived from the key; the lock is released
// automatically if the holding connection drops.
type advisoryLock struct {
	db     *sql.DB
	lockID int64
}

func newAdvisoryLock(db *sql.DB, key string) *advisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &advisoryLock{db: db, lockID: int64(h.Sum64())}
}

func (l *advisoryLock) Acquire(ctx context.Context) (bool, error) {
	var acquired bool
	err := l.db.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired)
	return acquired, err
}

func (l *advisoryLock) Release(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
	return err
}
