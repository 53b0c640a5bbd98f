package health

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// DatabaseProbe pings postgres.
func DatabaseProbe(db *sql.DB) Probe {
	return Probe{
		Name: "database",
		Check: func(ctx context.Context) error {
			return db.PingContext(ctx)
		},
	}
}

// RedisProbe pings the shared store backing denylist and lockout state.
func RedisProbe(client *redis.Client) Probe {
	return Probe{
		Name: "redis",
		Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

// UpstreamProbe hits another service's liveness endpoint. The caller owns the
// client so timeouts stay configurable in one place.
func UpstreamProbe(name, baseURL string, client *http.Client) Probe {
	return Probe{
		Name: name,
		Check: func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("%s returned status %d", name, resp.StatusCode)
			}
			return nil
		},
	}
}
