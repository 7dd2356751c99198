package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Locker provides short-lived keyed mutual exclusion backed by Redis SETNX.
// It serializes concurrent entry requests for one vehicle and concurrent
// exit settlements for one transaction. Without a reachable Redis the locker
// degrades to a no-op; the storage-level constraints remain the backstop.
type Locker struct {
	client *redis.Client
	logger *zap.Logger
}

// NewLocker creates a Locker over an optional Redis client.
func NewLocker(r *Redis, logger *zap.Logger) *Locker {
	var client *redis.Client
	if r != nil {
		client = r.Client
	}
	return &Locker{client: client, logger: logger}
}

// TryAcquire attempts to take the named lock for ttl. On success it returns
// a release function and true. A held lock returns (nil, false). Redis
// errors are logged and treated as acquired so the lock never becomes a
// single point of failure.
func (l *Locker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (func(), bool) {
	if l == nil || l.client == nil {
		return func() {}, true
	}

	ok, err := l.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		l.logger.Warn("lock acquire failed, proceeding unlocked", zap.String("key", key), zap.Error(err))
		return func() {}, true
	}
	if !ok {
		return nil, false
	}

	release := func() {
		if err := l.client.Del(context.Background(), key).Err(); err != nil {
			l.logger.Warn("lock release failed", zap.String("key", key), zap.Error(err))
		}
	}
	return release, true
}
