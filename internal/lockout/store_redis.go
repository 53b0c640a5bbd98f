package lockout

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	failureKeyPrefix = "lockout:fail:"
	lockKeyPrefix    = "lockout:lock:"
)

// RedisStore shares lockout state across instances. INCR is atomic, so
// concurrent failures count correctly without client-side locking.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) RecordFailure(ctx context.Context, key string, window time.Duration) (int64, error) {
	fk := failureKeyPrefix + key
	count, err := r.client.Incr(ctx, fk).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		// First failure opens the window.
		if err := r.client.Expire(ctx, fk, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (r *RedisStore) Lock(ctx context.Context, key string, cooldown time.Duration) error {
	return r.client.Set(ctx, lockKeyPrefix+key, "1", cooldown).Err()
}

func (r *RedisStore) IsLocked(ctx context.Context, key string) (bool, time.Duration, error) {
	ttl, err := r.client.TTL(ctx, lockKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	if ttl <= 0 {
		return false, 0, nil
	}
	return true, ttl, nil
}

func (r *RedisStore) Clear(ctx context.Context, key string) error {
	return r.client.Del(ctx, failureKeyPrefix+key, lockKeyPrefix+key).Err()
}
