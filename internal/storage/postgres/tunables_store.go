package postgres

import (
	"context"
	"fmt"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/storage"
)

// TunablesStore implements storage.TunablesStore using PostgreSQL. The table
// holds at most one row; Put upserts it.
type TunablesStore struct {
	pool *Pool
}

// NewTunablesStore creates a new Postgres-backed tunables store.
func NewTunablesStore(pool *Pool) *TunablesStore {
	return &TunablesStore{pool: pool}
}

// Get retrieves the stored tunables.
func (s *TunablesStore) Get(ctx context.Context) (*domain.ScenarioTunables, error) {
	query := `
		SELECT high_momentum_threshold, commit_floor, commit_default,
			most_likely_min, most_likely_max, most_likely_default,
			default_grr, horizon_days, top_deals, max_stored_explanations
		FROM scenario_tunables
		WHERE id = 1
	`

	var t domain.ScenarioTunables

	err := s.pool.QueryRow(ctx, query).Scan(
		&t.HighMomentumThreshold,
		&t.CommitFloor,
		&t.CommitDefault,
		&t.MostLikelyMin,
		&t.MostLikelyMax,
		&t.MostLikelyDefault,
		&t.DefaultGRR,
		&t.HorizonDays,
		&t.TopDeals,
		&t.MaxStoredExplanations,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("%w: no tunables stored", storage.ErrNotFound)
		}
		return nil, fmt.Errorf("query scenario tunables: %w", err)
	}

	return &t, nil
}

// Put stores the tunables, replacing any previous value.
func (s *TunablesStore) Put(ctx context.Context, t *domain.ScenarioTunables) error {
	if t == nil {
		return fmt.Errorf("%w: tunables is nil", storage.ErrInvalidInput)
	}

	query := `
		INSERT INTO scenario_tunables (id, high_momentum_threshold, commit_floor, commit_default,
			most_likely_min, most_likely_max, most_likely_default,
			default_grr, horizon_days, top_deals, max_stored_explanations)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			high_momentum_threshold = EXCLUDED.high_momentum_threshold,
			commit_floor = EXCLUDED.commit_floor,
			commit_default = EXCLUDED.commit_default,
			most_likely_min = EXCLUDED.most_likely_min,
			most_likely_max = EXCLUDED.most_likely_max,
			most_likely_default = EXCLUDED.most_likely_default,
			default_grr = EXCLUDED.default_grr,
			horizon_days = EXCLUDED.horizon_days,
			top_deals = EXCLUDED.top_deals,
			max_stored_explanations = EXCLUDED.max_stored_explanations
	`

	_, err := s.pool.Exec(ctx, query,
		t.HighMomentumThreshold,
		t.CommitFloor,
		t.CommitDefault,
		t.MostLikelyMin,
		t.MostLikelyMax,
		t.MostLikelyDefault,
		t.DefaultGRR,
		t.HorizonDays,
		t.TopDeals,
		t.MaxStoredExplanations,
	)
	if err != nil {
		return fmt.Errorf("upsert scenario tunables: %w", err)
	}

	return nil
}

var _ storage.TunablesStore = (*TunablesStore)(nil)
