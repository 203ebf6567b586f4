package memory

import (
	"context"
	"sync"

	"github.com/claimdesk/intake/pkg/domain"
)

// Store implements ports.CheckpointStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[domain.ProgressKey]*domain.Checkpoint
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[domain.ProgressKey]*domain.Checkpoint),
	}
}

// Save persists a deep copy of the checkpoint, similar to serialization.
func (s *Store) Save(ctx context.Context, checkpoint *domain.Checkpoint) error {
	if err := checkpoint.Key.Validate(); err != nil {
		return err
	}
	copied := checkpoint.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[checkpoint.Key] = copied
	return nil
}

// Load retrieves a copy of the checkpoint so callers can't mutate the store by pointer.
func (s *Store) Load(ctx context.Context, key domain.ProgressKey) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.data[key]
	if !ok {
		return nil, domain.ErrCheckpointNotFound
	}
	return cp.Clone(), nil
}

// Delete removes the checkpoint.
func (s *Store) Delete(ctx context.Context, key domain.ProgressKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the keys of stored checkpoints.
func (s *Store) List(ctx context.Context) ([]domain.ProgressKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]domain.ProgressKey, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}
