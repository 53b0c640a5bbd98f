package token

import (
	"context"
	"sync"
	"time"

	"github.com/objaverse/platform/pkg/id"
)

// MemoryDenylist is an in-process Denylist for single-node deployments and
// tests. Entries expire lazily on lookup and in bulk via PurgeExpired.
type MemoryDenylist struct {
	mu      sync.RWMutex
	entries map[id.TokenID]time.Time
	now     func() time.Time
}

func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{
		entries: make(map[id.TokenID]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryDenylist) Revoke(_ context.Context, jti id.TokenID, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[jti] = m.now().Add(ttl)
	return nil
}

func (m *MemoryDenylist) IsRevoked(_ context.Context, jti id.TokenID) (bool, error) {
	if jti == "" {
		return false, nil
	}
	m.mu.RLock()
	expiry, ok := m.entries[jti]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if m.now().After(expiry) {
		m.mu.Lock()
		delete(m.entries, jti)
		m.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// PurgeExpired drops entries past their expiry. Behavior-neutral: expired
// entries already read as not revoked.
func (m *MemoryDenylist) PurgeExpired() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	purged := 0
	for jti, expiry := range m.entries {
		if now.After(expiry) {
			delete(m.entries, jti)
			purged++
		}
	}
	return purged
}
