package token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objaverse/platform/pkg/id"
)

func TestMemoryDenylistExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	dl := NewMemoryDenylist()
	dl.now = clk.Now

	jti := id.NewTokenID()
	require.NoError(t, dl.Revoke(context.Background(), jti, time.Minute))

	revoked, err := dl.IsRevoked(context.Background(), jti)
	require.NoError(t, err)
	assert.True(t, revoked)

	clk.Advance(2 * time.Minute)
	revoked, err = dl.IsRevoked(context.Background(), jti)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryDenylistPurgeIsBehaviorNeutral(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	dl := NewMemoryDenylist()
	dl.now = clk.Now

	live := id.NewTokenID()
	dead := id.NewTokenID()
	require.NoError(t, dl.Revoke(context.Background(), live, time.Hour))
	require.NoError(t, dl.Revoke(context.Background(), dead, time.Minute))

	clk.Advance(2 * time.Minute)
	assert.Equal(t, 1, dl.PurgeExpired())

	revoked, err := dl.IsRevoked(context.Background(), live)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = dl.IsRevoked(context.Background(), dead)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryDenylistIgnoresEmptyAndNonPositive(t *testing.T) {
	dl := NewMemoryDenylist()

	require.NoError(t, dl.Revoke(context.Background(), "", time.Minute))
	require.NoError(t, dl.Revoke(context.Background(), id.NewTokenID(), 0))

	assert.Equal(t, 0, len(dl.entries))
}
