package principal

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/objaverse/platform/pkg/id"
)

// MemoryRepo is an in-process Repo for tests and single-node development.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[id.PublicID]*Principal
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[id.PublicID]*Principal)}
}

func (m *MemoryRepo) Create(_ context.Context, dto CreateDTO) (id.PublicID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(dto.Email))
	for _, p := range m.byID {
		if !p.IsDeleted && strings.ToLower(p.Email) == email {
			return "", ErrDuplicateEmail
		}
	}

	role := dto.Role
	if role == "" {
		role = RoleResearcher
	}

	m.nextID++
	publicID := id.NewPublicID()
	now := time.Now().UTC()
	m.byID[publicID] = &Principal{
		ID:        m.nextID,
		PublicID:  publicID,
		Email:     email,
		Password:  dto.Password,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return publicID, nil
}

func (m *MemoryRepo) FindByEmail(_ context.Context, email string) (*Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, p := range m.byID {
		if !p.IsDeleted && strings.ToLower(p.Email) == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) FindByPublicID(_ context.Context, publicID id.PublicID) (*Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.byID[publicID]
	if !ok || p.IsDeleted {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryRepo) Delete(_ context.Context, publicID id.PublicID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.byID[publicID]
	if !ok || p.IsDeleted {
		return ErrNotFound
	}
	p.IsDeleted = true
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepo) ListByRole(_ context.Context, role Role) ([]Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Principal
	for _, p := range m.byID {
		if !p.IsDeleted && p.Role == role {
			out = append(out, *p)
		}
	}
	return out, nil
}
