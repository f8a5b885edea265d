package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL           = 30 * time.Second
	DefaultRetryInterval = 50 * time.Millisecond
	keyPrefix            = "lock:"
)

// releaseScript deletes the key only while it still holds our token, so a
// lock that expired and was taken by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a distributed lock built on SET NX PX.
type RedisLocker struct {
	client        redis.UniversalClient
	ttl           time.Duration
	retryInterval time.Duration
}

func NewRedisLocker(client redis.UniversalClient, ttl, retryInterval time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}
	return &RedisLocker{
		client:        client,
		ttl:           ttl,
		retryInterval: retryInterval,
	}
}

// BlockingRun holds the lock for at most the TTL; the key is never extended.
// fn's context is cancelled once the TTL elapses, since another holder may
// take the key from then on.
func (l *RedisLocker) BlockingRun(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	redisKey := redisKeyFor(key)
	token := uuid.NewString()

	if err := l.acquire(ctx, redisKey, token); err != nil {
		return fmt.Errorf("acquire lock %s: %w", key, err)
	}
	start := time.Now()

	heldCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	err := fn(heldCtx)

	if held := time.Since(start); held >= l.ttl {
		slog.Warn("Lock held past its TTL, exclusion may have been lost",
			"key", redisKey,
			"ttl", l.ttl,
			"held", held,
		)
	}
	l.release(ctx, redisKey, token)
	return err
}

func (l *RedisLocker) acquire(ctx context.Context, redisKey, token string) error {
	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if attempt == 1 {
			slog.Debug("Lock busy, waiting", "key", redisKey)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) release(ctx context.Context, redisKey, token string) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	deleted, err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("Failed to release lock", "key", redisKey, "error", err)
		return
	}
	if deleted == 0 {
		slog.Warn("Lock expired before release", "key", redisKey)
	}
}

func redisKeyFor(key string) string {
	return keyPrefix + key
}
