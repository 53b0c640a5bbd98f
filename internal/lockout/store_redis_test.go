package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisStore(client)
}

func TestRedisStoreRecordFailure(t *testing.T) {
	_, store := newTestRedisStore(t)
	ctx := context.Background()

	count, err := store.RecordFailure(ctx, "alice", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = store.RecordFailure(ctx, "alice", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRedisStoreWindowExpiry(t *testing.T) {
	mr, store := newTestRedisStore(t)
	ctx := context.Background()

	_, err := store.RecordFailure(ctx, "alice", time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	count, err := store.RecordFailure(ctx, "alice", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRedisStoreLockAndClear(t *testing.T) {
	mr, store := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Lock(ctx, "alice", time.Minute))
	locked, remaining, err := store.IsLocked(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, locked)
	assert.Greater(t, remaining, time.Duration(0))

	require.NoError(t, store.Clear(ctx, "alice"))
	locked, _, err = store.IsLocked(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, store.Lock(ctx, "alice", time.Minute))
	mr.FastForward(2 * time.Minute)
	locked, _, err = store.IsLocked(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, locked)
}
