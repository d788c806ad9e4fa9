package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/storage"
)

// AccountScoreStore is an in-memory implementation of
// storage.AccountScoreStore.
type AccountScoreStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AccountScore // keyed by account_id|score_type|score_date
}

// NewAccountScoreStore creates a new in-memory account score store.
func NewAccountScoreStore() *AccountScoreStore {
	return &AccountScoreStore{
		data: make(map[string]*domain.AccountScore),
	}
}

// scoreKey generates a unique key for a score snapshot.
func scoreKey(s *domain.AccountScore) string {
	return fmt.Sprintf("%s|%s|%s", s.AccountID, s.ScoreType, s.ScoreDate.Format("2006-01-02"))
}

// Insert adds a new score snapshot. Returns ErrDuplicateKey if exists.
func (st *AccountScoreStore) Insert(_ context.Context, s *domain.AccountScore) error {
	if s == nil || s.AccountID == "" || s.ScoreType == "" {
		return storage.ErrInvalidInput
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	key := scoreKey(s)
	if _, exists := st.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	scoreCopy := copyScore(s)
	st.data[key] = scoreCopy
	return nil
}

// InsertBulk adds multiple snapshots atomically. Fails entire batch on any
// duplicate.
func (st *AccountScoreStore) InsertBulk(_ context.Context, scores []*domain.AccountScore) error {
	if len(scores) == 0 {
		return nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(scores))
	for _, s := range scores {
		if s == nil || s.AccountID == "" || s.ScoreType == "" {
			return storage.ErrInvalidInput
		}
		key := scoreKey(s)
		if _, exists := st.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, s := range scores {
		st.data[scoreKey(s)] = copyScore(s)
	}
	return nil
}

// GetByType retrieves snapshots of a score type ordered by score_date ASC,
// applying the filter.
func (st *AccountScoreStore) GetByType(_ context.Context, scoreType domain.ScoreType, filter storage.ScoreFilter) ([]*domain.AccountScore, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var result []*domain.AccountScore
	for _, s := range st.data {
		if s.ScoreType != scoreType {
			continue
		}
		if filter.AccountID != "" && s.AccountID != filter.AccountID {
			continue
		}
		if filter.StalledOnly && !s.IsStalled {
			continue
		}
		if !filter.Start.IsZero() && s.ScoreDate.Before(filter.Start) {
			continue
		}
		if !filter.End.IsZero() && s.ScoreDate.After(filter.End) {
			continue
		}
		result = append(result, copyScore(s))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].ScoreDate.Equal(result[j].ScoreDate) {
			return result[i].ScoreDate.Before(result[j].ScoreDate)
		}
		return result[i].AccountID < result[j].AccountID
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// copyScore deep-copies a score including its pointer and slice fields.
func copyScore(s *domain.AccountScore) *domain.AccountScore {
	scoreCopy := *s
	if s.StalledSince != nil {
		since := *s.StalledSince
		scoreCopy.StalledSince = &since
	}
	if s.ContributingFactors != nil {
		scoreCopy.ContributingFactors = append([]string(nil), s.ContributingFactors...)
	}
	return &scoreCopy
}

var _ storage.AccountScoreStore = (*AccountScoreStore)(nil)
