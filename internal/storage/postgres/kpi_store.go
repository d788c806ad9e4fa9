package postgres

import (
	"context"
	"fmt"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/storage"
)

// RepKPIStore implements storage.RepKPIStore using PostgreSQL.
type RepKPIStore struct {
	pool *Pool
}

// NewRepKPIStore creates a new Postgres-backed rep KPI store.
func NewRepKPIStore(pool *Pool) *RepKPIStore {
	return &RepKPIStore{pool: pool}
}

// Insert stores a single KPI row.
func (s *RepKPIStore) Insert(ctx context.Context, kpi *domain.RepKPI) error {
	if kpi == nil {
		return fmt.Errorf("%w: kpi is nil", storage.ErrInvalidInput)
	}

	query := `
		INSERT INTO rep_kpis (rep_id, role, grr, quota_attainment, period_start)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		kpi.RepID,
		kpi.Role,
		kpi.GRR,
		kpi.QuotaAttainment,
		kpi.PeriodStart,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: kpi for rep %s period %s",
				storage.ErrDuplicateKey, kpi.RepID, kpi.PeriodStart.Format("2006-01-02"))
		}
		return fmt.Errorf("insert rep kpi: %w", err)
	}

	return nil
}

// GetByRole retrieves all KPI rows for a role, ordered by period start.
func (s *RepKPIStore) GetByRole(ctx context.Context, role string) ([]*domain.RepKPI, error) {
	query := `
		SELECT rep_id, role, grr, quota_attainment, period_start
		FROM rep_kpis
		WHERE role = $1
		ORDER BY period_start ASC, rep_id ASC
	`

	rows, err := s.pool.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("query rep kpis: %w", err)
	}
	defer rows.Close()

	var kpis []*domain.RepKPI
	for rows.Next() {
		var kpi domain.RepKPI

		err := rows.Scan(
			&kpi.RepID,
			&kpi.Role,
			&kpi.GRR,
			&kpi.QuotaAttainment,
			&kpi.PeriodStart,
		)
		if err != nil {
			return nil, fmt.Errorf("scan rep kpi: %w", err)
		}

		kpis = append(kpis, &kpi)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rep kpis: %w", err)
	}

	return kpis, nil
}

var _ storage.RepKPIStore = (*RepKPIStore)(nil)
