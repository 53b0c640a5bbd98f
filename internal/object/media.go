package object

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MediaStore is the port to the external image host. The concrete provider
// lives outside this repo; credentials arrive through configuration.
type MediaStore interface {
	Upload(ctx context.Context, name string, content io.Reader) (url string, err error)
}

// MemoryMediaStore is the in-process fake used in tests and local runs.
type MemoryMediaStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemoryMediaStore() *MemoryMediaStore {
	return &MemoryMediaStore{blobs: make(map[string][]byte)}
}

func (m *MemoryMediaStore) Upload(_ context.Context, name string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = data
	return fmt.Sprintf("memory://media/%s", name), nil
}

// Len reports stored blob count, for tests.
func (m *MemoryMediaStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}
