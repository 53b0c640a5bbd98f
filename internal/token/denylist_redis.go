package token

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/objaverse/platform/pkg/id"
)

var isRevokedDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "objaverse_denylist_check_duration_ms",
	Help:    "Latency of token revocation checks in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const revokedKeyPrefix = "denylist:jti:"

// RedisDenylist shares revocation state across service instances. Set-with-
// expiry keeps pruning on the redis side.
type RedisDenylist struct {
	client *redis.Client
}

func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client}
}

func (d *RedisDenylist) Revoke(ctx context.Context, jti id.TokenID, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	// Key existence is the marker; the value is irrelevant.
	return d.client.Set(ctx, revokedKeyPrefix+string(jti), "1", ttl).Err()
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, jti id.TokenID) (bool, error) {
	start := time.Now()
	defer func() {
		isRevokedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if jti == "" {
		return false, nil
	}
	_, err := d.client.Get(ctx, revokedKeyPrefix+string(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
