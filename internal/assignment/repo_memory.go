package assignment

import (
	"context"
	"sync"
	"time"

	"github.com/objaverse/platform/pkg/id"
)

type MemoryRepo struct {
	mu        sync.RWMutex
	pairs     map[string]Assignment
	order     []string
	objectIDs []id.ObjectID
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{pairs: make(map[string]Assignment)}
}

// AddObject registers an object id for round-robin distribution; the postgres
// implementation reads these from the objects table instead.
func (m *MemoryRepo) AddObject(objectID id.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objectIDs = append(m.objectIDs, objectID)
}

func (m *MemoryRepo) Assign(_ context.Context, evaluatorID id.PublicID, objectID id.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := string(evaluatorID) + "/" + string(objectID)
	if _, ok := m.pairs[key]; ok {
		return nil
	}
	m.pairs[key] = Assignment{
		EvaluatorID: evaluatorID,
		ObjectID:    objectID,
		AssignedAt:  time.Now().UTC(),
	}
	m.order = append(m.order, key)
	return nil
}

func (m *MemoryRepo) ListByEvaluator(_ context.Context, evaluatorID id.PublicID) ([]Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Assignment{}
	for _, key := range m.order {
		a := m.pairs[key]
		if a.EvaluatorID == evaluatorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryRepo) AllObjectIDs(_ context.Context) ([]id.ObjectID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]id.ObjectID(nil), m.objectIDs...), nil
}
