package blob

import (
	"context"
	"sync"

	dErrors "scriba/pkg/domain-errors"
)

// MemoryStore keeps blobs in memory for tests.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemory() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Upload(_ context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[path] = append([]byte{}, data...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if data, ok := s.blobs[path]; ok {
		return data, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "blob not found: "+path)
}

// Len reports how many blobs were uploaded, for tests.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
