package memory

import (
	"context"
	"sync"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/storage"
)

// TunablesStore is an in-memory implementation of storage.TunablesStore.
type TunablesStore struct {
	mu    sync.RWMutex
	value *domain.ScenarioTunables
}

// NewTunablesStore creates a new in-memory tunables store.
func NewTunablesStore() *TunablesStore {
	return &TunablesStore{}
}

// Get retrieves the stored tunables. Returns ErrNotFound when none exist.
func (s *TunablesStore) Get(_ context.Context) (*domain.ScenarioTunables, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.value == nil {
		return nil, storage.ErrNotFound
	}
	tunablesCopy := *s.value
	return &tunablesCopy, nil
}

// Put stores the tunables, replacing any previous value.
func (s *TunablesStore) Put(_ context.Context, t *domain.ScenarioTunables) error {
	if t == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tunablesCopy := *t
	s.value = &tunablesCopy
	return nil
}

var _ storage.TunablesStore = (*TunablesStore)(nil)
