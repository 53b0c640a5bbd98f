package token

import (
	"context"
	"time"

	"github.com/objaverse/platform/pkg/id"
)

// Denylist holds revoked token ids until their natural expiry. Entries carry
// a TTL equal to the token's remaining lifetime, so the list never grows
// unbounded.
type Denylist interface {
	Revoke(ctx context.Context, jti id.TokenID, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti id.TokenID) (bool, error)
}
