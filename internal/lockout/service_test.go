package lockout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/objaverse/platform/internal/config"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testService(clk *fakeClock) (*Service, *MemoryStore) {
	store := NewMemoryStore()
	if clk != nil {
		store.now = clk.Now
	}
	cfg := &config.LockoutConfig{
		MaxFailures: 3,
		Window:      15 * time.Minute,
		Cooldown:    15 * time.Minute,
	}
	return NewService(store, cfg, zap.NewNop()), store
}

func TestLockoutAfterThreshold(t *testing.T) {
	svc, _ := testService(nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.OnFailure(ctx, "alice@example.com"))
		locked, err := svc.Check(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.False(t, locked, "attempt %d must not lock", i+1)
	}

	require.NoError(t, svc.OnFailure(ctx, "alice@example.com"))
	locked, err := svc.Check(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestLockExpiresAfterCooldown(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	svc, _ := testService(clk)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.OnFailure(ctx, "alice@example.com"))
	}
	locked, err := svc.Check(ctx, "alice@example.com")
	require.NoError(t, err)
	require.True(t, locked)

	clk.Advance(16 * time.Minute)
	locked, err = svc.Check(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestWindowResetsFailureCount(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	svc, _ := testService(clk)
	ctx := context.Background()

	require.NoError(t, svc.OnFailure(ctx, "alice@example.com"))
	require.NoError(t, svc.OnFailure(ctx, "alice@example.com"))

	// Old failures age out of the window; the next one starts fresh.
	clk.Advance(16 * time.Minute)
	require.NoError(t, svc.OnFailure(ctx, "alice@example.com"))

	locked, err := svc.Check(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestSuccessClearsState(t *testing.T) {
	svc, _ := testService(nil)
	ctx := context.Background()

	require.NoError(t, svc.OnFailure(ctx, "alice@example.com"))
	require.NoError(t, svc.OnFailure(ctx, "alice@example.com"))
	require.NoError(t, svc.OnSuccess(ctx, "alice@example.com"))

	// Counter restarts from zero after a successful login.
	require.NoError(t, svc.OnFailure(ctx, "alice@example.com"))
	require.NoError(t, svc.OnFailure(ctx, "alice@example.com"))
	locked, err := svc.Check(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestIdentifierNormalization(t *testing.T) {
	svc, _ := testService(nil)
	ctx := context.Background()

	require.NoError(t, svc.OnFailure(ctx, "Alice@Example.com "))
	require.NoError(t, svc.OnFailure(ctx, "alice@example.com"))
	require.NoError(t, svc.OnFailure(ctx, " ALICE@EXAMPLE.COM"))

	locked, err := svc.Check(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, locked)
}
