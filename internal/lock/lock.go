// Package lock provides short-lived per-document mutual exclusion in front of
// workflow transactions. The database compare-and-set stays the source of
// truth; the lock only turns obvious races into fast conflicts.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"docflow/internal/config"
	"docflow/internal/model"
)

const defaultTimeout = 5 * time.Second

// ReleaseFunc gives a held lock back. It is safe to call after the TTL expired.
type ReleaseFunc func(ctx context.Context) error

// Locker acquires named locks.
type Locker interface {
	// Acquire takes the lock for key or fails with a ConflictError when someone else holds it.
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)
}

// DocumentKey is the lock key guarding transitions of one document.
func DocumentKey(documentID string) string {
	return "docflow:lock:document:" + documentID
}

// Connect initialises a Redis client and validates connectivity with a ping.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// releaseScript deletes the key only if it still carries our token, so a
// holder whose TTL lapsed cannot free a lock someone else has since taken.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisLocker creates a locker whose locks expire after ttl.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, &model.StorageError{Op: "acquire lock", Err: err}
	}
	if !ok {
		return nil, model.NewConflictError("%s is locked by a concurrent operation", key)
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return &model.StorageError{Op: "release lock", Err: err}
		}
		return nil
	}, nil
}

// Nop is used when Redis is disabled. Every Acquire succeeds.
type Nop struct{}

func (Nop) Acquire(context.Context, string) (ReleaseFunc, error) {
	return func(context.Context) error { return nil }, nil
}
