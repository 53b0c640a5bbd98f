package lockout

import (
	"context"
	"sync"
	"time"
)

type record struct {
	count       int64
	windowStart time.Time
	lockedUntil time.Time
}

// MemoryStore keeps failure state in process. Comparisons use time.Time
// values produced by the same clock, so the monotonic reading protects the
// window against wall-clock regression.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*record),
		now:     time.Now,
	}
}

func (m *MemoryStore) RecordFailure(_ context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	rec, ok := m.records[key]
	if !ok || now.Sub(rec.windowStart) > window {
		rec = &record{windowStart: now}
		m.records[key] = rec
	}
	rec.count++
	return rec.count, nil
}

func (m *MemoryStore) Lock(_ context.Context, key string, cooldown time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		rec = &record{windowStart: m.now()}
		m.records[key] = rec
	}
	rec.lockedUntil = m.now().Add(cooldown)
	return nil
}

func (m *MemoryStore) IsLocked(_ context.Context, key string) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return false, 0, nil
	}
	remaining := rec.lockedUntil.Sub(m.now())
	if remaining <= 0 {
		return false, 0, nil
	}
	return true, remaining, nil
}

func (m *MemoryStore) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}
