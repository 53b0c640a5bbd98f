package lockout

import (
	"context"
	"time"
)

// Store tracks authentication failures per identifier. Implementations must
// be safe under concurrent access; counters use atomic increment semantics so
// unrelated requests never serialize on a global lock.
type Store interface {
	// RecordFailure increments the failure count inside the current window
	// and returns the new count.
	RecordFailure(ctx context.Context, key string, window time.Duration) (int64, error)
	// Lock hard-locks the identifier for the cooldown period.
	Lock(ctx context.Context, key string, cooldown time.Duration) error
	// IsLocked reports whether the identifier is locked and how long until
	// the lock expires.
	IsLocked(ctx context.Context, key string) (bool, time.Duration, error)
	// Clear drops failure state after a successful authentication.
	Clear(ctx context.Context, key string) error
}
