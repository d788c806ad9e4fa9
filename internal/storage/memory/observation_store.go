package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/storage"
)

// FunnelObservationStore is an in-memory implementation of
// storage.FunnelObservationStore.
type FunnelObservationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.FunnelObservation // keyed by date|stage|motion|market
}

// NewFunnelObservationStore creates a new in-memory observation store.
func NewFunnelObservationStore() *FunnelObservationStore {
	return &FunnelObservationStore{
		data: make(map[string]*domain.FunnelObservation),
	}
}

// observationKey generates a unique key for an observation.
func observationKey(o *domain.FunnelObservation) string {
	return fmt.Sprintf("%s|%s|%s|%s", o.Date.Format("2006-01-02"), o.Stage, o.Motion, o.Market)
}

// InsertBulk adds multiple observations. Fails entire batch on any duplicate.
func (s *FunnelObservationStore) InsertBulk(_ context.Context, observations []*domain.FunnelObservation) error {
	if len(observations) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(observations))
	for _, o := range observations {
		if o == nil || o.Stage == "" || o.Motion == "" || o.Market == "" {
			return storage.ErrInvalidInput
		}
		key := observationKey(o)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, o := range observations {
		obsCopy := *o
		s.data[observationKey(o)] = &obsCopy
	}
	return nil
}

// GetByDateRange retrieves observations with date in [start, end] inclusive,
// ordered by date ASC, applying the filter.
func (s *FunnelObservationStore) GetByDateRange(_ context.Context, start, end time.Time, filter storage.ObservationFilter) ([]*domain.FunnelObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FunnelObservation
	for _, o := range s.data {
		if o.Date.Before(start) || o.Date.After(end) {
			continue
		}
		if filter.Stage != "" && o.Stage != filter.Stage {
			continue
		}
		if filter.Motion != "" && o.Motion != filter.Motion {
			continue
		}
		if filter.Market != "" && o.Market != filter.Market {
			continue
		}
		obsCopy := *o
		result = append(result, &obsCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return observationKey(result[i]) < observationKey(result[j])
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

var _ storage.FunnelObservationStore = (*FunnelObservationStore)(nil)
