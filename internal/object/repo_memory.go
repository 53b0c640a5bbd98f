package object

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/objaverse/platform/pkg/id"
)

// MemoryRepo backs tests and local runs without postgres.
type MemoryRepo struct {
	mu      sync.RWMutex
	order   []id.ObjectID
	objects map[id.ObjectID]*Object3D
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{objects: make(map[id.ObjectID]*Object3D)}
}

func (m *MemoryRepo) Create(_ context.Context, dto CreateDTO) (id.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	objectID := id.NewObjectID()
	now := time.Now().UTC()
	m.objects[objectID] = &Object3D{
		ObjectID:    objectID,
		Description: dto.Description,
		Category:    dto.Category,
		Metadata:    dto.Metadata,
		Images:      []Image{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.order = append(m.order, objectID)
	return objectID, nil
}

func (m *MemoryRepo) List(_ context.Context, page, limit int) ([]Object3D, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := len(m.order)
	start := (page - 1) * limit
	if start >= total {
		return []Object3D{}, total, nil
	}
	end := min(start+limit, total)

	out := make([]Object3D, 0, end-start)
	for _, objectID := range m.order[start:end] {
		out = append(out, *m.objects[objectID])
	}
	return out, total, nil
}

func (m *MemoryRepo) Get(_ context.Context, objectID id.ObjectID) (*Object3D, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[objectID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *obj
	return &cp, nil
}

func (m *MemoryRepo) Update(_ context.Context, objectID id.ObjectID, dto UpdateDTO) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[objectID]
	if !ok {
		return ErrNotFound
	}
	if dto.Description != nil {
		obj.Description = *dto.Description
	}
	if dto.Category != nil {
		obj.Category = *dto.Category
	}
	if dto.Metadata != nil {
		obj.Metadata = *dto.Metadata
	}
	obj.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepo) Delete(_ context.Context, objectID id.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[objectID]; !ok {
		return ErrNotFound
	}
	delete(m.objects, objectID)
	for i, oid := range m.order {
		if oid == objectID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryRepo) Search(_ context.Context, query string, limit int) ([]Object3D, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	query = strings.ToLower(query)
	var out []Object3D
	for _, objectID := range m.order {
		if len(out) >= limit {
			break
		}
		obj := m.objects[objectID]
		if strings.Contains(strings.ToLower(obj.Description), query) ||
			strings.Contains(strings.ToLower(obj.Category), query) {
			out = append(out, *obj)
		}
	}
	return out, nil
}

func (m *MemoryRepo) AddImage(_ context.Context, objectID id.ObjectID, img Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[objectID]
	if !ok {
		return ErrNotFound
	}
	obj.Images = append(obj.Images, img)
	return nil
}
