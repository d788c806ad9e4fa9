package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/storage"
)

// RepKPIStore is an in-memory implementation of storage.RepKPIStore.
type RepKPIStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RepKPI // keyed by rep_id|period_start
}

// NewRepKPIStore creates a new in-memory rep KPI store.
func NewRepKPIStore() *RepKPIStore {
	return &RepKPIStore{
		data: make(map[string]*domain.RepKPI),
	}
}

// kpiKey generates a unique key for a KPI row.
func kpiKey(k *domain.RepKPI) string {
	return fmt.Sprintf("%s|%s", k.RepID, k.PeriodStart.Format("2006-01-02"))
}

// Insert adds a KPI row. Returns ErrDuplicateKey if exists.
func (s *RepKPIStore) Insert(_ context.Context, k *domain.RepKPI) error {
	if k == nil || k.RepID == "" || k.Role == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := kpiKey(k)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[key] = copyKPI(k)
	return nil
}

// GetByRole retrieves all KPI rows for a role, ordered by period_start ASC
// then rep_id ASC.
func (s *RepKPIStore) GetByRole(_ context.Context, role string) ([]*domain.RepKPI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RepKPI
	for _, k := range s.data {
		if k.Role == role {
			result = append(result, copyKPI(k))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].PeriodStart.Equal(result[j].PeriodStart) {
			return result[i].PeriodStart.Before(result[j].PeriodStart)
		}
		return result[i].RepID < result[j].RepID
	})

	return result, nil
}

// copyKPI deep-copies a KPI row including its nullable fields.
func copyKPI(k *domain.RepKPI) *domain.RepKPI {
	kpiCopy := *k
	if k.GRR != nil {
		grr := *k.GRR
		kpiCopy.GRR = &grr
	}
	if k.QuotaAttainment != nil {
		qa := *k.QuotaAttainment
		kpiCopy.QuotaAttainment = &qa
	}
	return &kpiCopy
}

var _ storage.RepKPIStore = (*RepKPIStore)(nil)
