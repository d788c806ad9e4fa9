package memory

import (
	"context"
	"sort"
	"sync"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/storage"
)

// ForecastStore is an in-memory implementation of storage.ForecastStore.
type ForecastStore struct {
	mu         sync.RWMutex
	runs       map[string]*domain.ForecastRun
	segmentIDs map[string]struct{}
}

// NewForecastStore creates a new in-memory forecast store.
func NewForecastStore() *ForecastStore {
	return &ForecastStore{
		runs:       make(map[string]*domain.ForecastRun),
		segmentIDs: make(map[string]struct{}),
	}
}

// InsertRun persists a complete run. Returns ErrDuplicateKey if the run id
// or any segment id exists.
func (s *ForecastStore) InsertRun(_ context.Context, run *domain.ForecastRun) error {
	if run == nil || run.RunID == "" || run.GeneratedAt.IsZero() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	batchIDs := make(map[string]struct{}, len(run.Segments))
	for _, seg := range run.Segments {
		if seg == nil || seg.SegmentID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.segmentIDs[seg.SegmentID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchIDs[seg.SegmentID]; exists {
			return storage.ErrDuplicateKey
		}
		batchIDs[seg.SegmentID] = struct{}{}
	}

	s.runs[run.RunID] = copyRun(run)
	for id := range batchIDs {
		s.segmentIDs[id] = struct{}{}
	}
	return nil
}

// GetRun retrieves a run with all segments and explanations.
func (s *ForecastStore) GetRun(_ context.Context, runID string) (*domain.ForecastRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRun(run), nil
}

// GetLatestRun retrieves the most recently generated run.
func (s *ForecastStore) GetLatestRun(_ context.Context) (*domain.ForecastRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.ForecastRun
	for _, run := range s.runs {
		if latest == nil || run.GeneratedAt.After(latest.GeneratedAt) {
			latest = run
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return copyRun(latest), nil
}

// ListSegmentsByScenario retrieves a run's segments for one scenario,
// ordered by (revenue_type, stage, motion, market).
func (s *ForecastStore) ListSegmentsByScenario(_ context.Context, runID string, scenario domain.ForecastScenario) ([]*domain.ForecastSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	var result []*domain.ForecastSegment
	for _, seg := range run.Segments {
		if seg.Scenario == scenario {
			segCopy := *seg
			result = append(result, &segCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].RevenueType != result[j].RevenueType {
			return result[i].RevenueType < result[j].RevenueType
		}
		if result[i].Stage != result[j].Stage {
			return result[i].Stage < result[j].Stage
		}
		if result[i].Motion != result[j].Motion {
			return result[i].Motion < result[j].Motion
		}
		return result[i].Market < result[j].Market
	})

	return result, nil
}

// copyRun deep-copies a run and its slices.
func copyRun(run *domain.ForecastRun) *domain.ForecastRun {
	runCopy := *run
	runCopy.Segments = make([]*domain.ForecastSegment, len(run.Segments))
	for i, seg := range run.Segments {
		segCopy := *seg
		runCopy.Segments[i] = &segCopy
	}
	runCopy.Explanations = make([]*domain.DealExplanation, len(run.Explanations))
	for i, ex := range run.Explanations {
		exCopy := *ex
		runCopy.Explanations[i] = &exCopy
	}
	return &runCopy
}

var _ storage.ForecastStore = (*ForecastStore)(nil)
