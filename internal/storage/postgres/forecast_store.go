package postgres

import (
	"context"
	"fmt"
	"time"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/observability"
	"revenue-forecast-lab/internal/storage"
)

// ForecastStore implements storage.ForecastStore using PostgreSQL. A run's
// row, segments, and explanations are written in one transaction.
type ForecastStore struct {
	pool *Pool
}

// NewForecastStore creates a new Postgres-backed forecast store.
func NewForecastStore(pool *Pool) *ForecastStore {
	return &ForecastStore{pool: pool}
}

// InsertRun persists a complete run atomically. The transaction is timed as
// one query since its statement count varies with the run size.
func (s *ForecastStore) InsertRun(ctx context.Context, run *domain.ForecastRun) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "insert_run", time.Since(start).Seconds(), err)
	}()

	if run == nil {
		return fmt.Errorf("%w: run is nil", storage.ErrInvalidInput)
	}
	if run.RunID == "" {
		return fmt.Errorf("%w: run id is empty", storage.ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO forecast_runs (run_id, generated_at) VALUES ($1, $2)`,
		run.RunID, run.GeneratedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: run %s", storage.ErrDuplicateKey, run.RunID)
		}
		return fmt.Errorf("insert forecast run: %w", err)
	}

	segmentQuery := `
		INSERT INTO forecast_segments (segment_id, run_id, scenario, funnel_stage, revenue_type, motion, market,
			projected_revenue, conversion_rate_used, pipeline_included, deal_count, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	for _, seg := range run.Segments {
		if seg == nil {
			return fmt.Errorf("%w: segment is nil", storage.ErrInvalidInput)
		}

		_, err := tx.Exec(ctx, segmentQuery,
			seg.SegmentID,
			run.RunID,
			string(seg.Scenario),
			string(seg.Stage),
			string(seg.RevenueType),
			string(seg.Motion),
			string(seg.Market),
			seg.ProjectedRevenue,
			seg.ConversionRateUsed,
			seg.PipelineIncluded,
			seg.DealCount,
			seg.GeneratedAt,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("%w: segment %s", storage.ErrDuplicateKey, seg.SegmentID)
			}
			return fmt.Errorf("insert forecast segment: %w", err)
		}
	}

	explanationQuery := `
		INSERT INTO deal_explanations (run_id, account_id, explanation, likelihood, generated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, exp := range run.Explanations {
		if exp == nil {
			return fmt.Errorf("%w: explanation is nil", storage.ErrInvalidInput)
		}

		_, err := tx.Exec(ctx, explanationQuery,
			run.RunID,
			exp.AccountID,
			exp.Explanation,
			exp.Likelihood,
			exp.GeneratedAt,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("%w: explanation for account %s in run %s",
					storage.ErrDuplicateKey, exp.AccountID, run.RunID)
			}
			return fmt.Errorf("insert deal explanation: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetRun retrieves a run with all its segments and explanations.
func (s *ForecastStore) GetRun(ctx context.Context, runID string) (*domain.ForecastRun, error) {
	run := &domain.ForecastRun{RunID: runID}

	err := s.pool.QueryRow(ctx,
		`SELECT generated_at FROM forecast_runs WHERE run_id = $1`, runID,
	).Scan(&run.GeneratedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("%w: run %s", storage.ErrNotFound, runID)
		}
		return nil, fmt.Errorf("query forecast run: %w", err)
	}

	run.Segments, err = s.querySegments(ctx, runID, "")
	if err != nil {
		return nil, err
	}

	run.Explanations, err = s.queryExplanations(ctx, runID)
	if err != nil {
		return nil, err
	}

	return run, nil
}

// GetLatestRun retrieves the most recently generated run.
func (s *ForecastStore) GetLatestRun(ctx context.Context) (*domain.ForecastRun, error) {
	var runID string

	err := s.pool.QueryRow(ctx,
		`SELECT run_id FROM forecast_runs ORDER BY generated_at DESC, run_id DESC LIMIT 1`,
	).Scan(&runID)
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("%w: no forecast runs", storage.ErrNotFound)
		}
		return nil, fmt.Errorf("query latest forecast run: %w", err)
	}

	return s.GetRun(ctx, runID)
}

// ListSegmentsByScenario retrieves a run's segments for one scenario.
func (s *ForecastStore) ListSegmentsByScenario(ctx context.Context, runID string, scenario domain.ForecastScenario) ([]*domain.ForecastSegment, error) {
	return s.querySegments(ctx, runID, scenario)
}

func (s *ForecastStore) querySegments(ctx context.Context, runID string, scenario domain.ForecastScenario) ([]*domain.ForecastSegment, error) {
	query := `
		SELECT segment_id, run_id, scenario, funnel_stage, revenue_type, motion, market,
			projected_revenue, conversion_rate_used, pipeline_included, deal_count, generated_at
		FROM forecast_segments
		WHERE run_id = $1
	`
	args := []any{runID}

	if scenario != "" {
		query += " AND scenario = $2"
		args = append(args, string(scenario))
	}

	query += " ORDER BY scenario ASC, revenue_type ASC, funnel_stage ASC, motion ASC, market ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query forecast segments: %w", err)
	}
	defer rows.Close()

	var segments []*domain.ForecastSegment
	for rows.Next() {
		var seg domain.ForecastSegment
		var scenario, stage, revenueType, motion, market string

		err := rows.Scan(
			&seg.SegmentID,
			&seg.RunID,
			&scenario,
			&stage,
			&revenueType,
			&motion,
			&market,
			&seg.ProjectedRevenue,
			&seg.ConversionRateUsed,
			&seg.PipelineIncluded,
			&seg.DealCount,
			&seg.GeneratedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan forecast segment: %w", err)
		}

		seg.Scenario = domain.ForecastScenario(scenario)
		seg.Stage = domain.FunnelStage(stage)
		seg.RevenueType = domain.RevenueType(revenueType)
		seg.Motion = domain.SalesMotion(motion)
		seg.Market = domain.Market(market)
		segments = append(segments, &seg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate forecast segments: %w", err)
	}

	return segments, nil
}

func (s *ForecastStore) queryExplanations(ctx context.Context, runID string) ([]*domain.DealExplanation, error) {
	query := `
		SELECT run_id, account_id, explanation, likelihood, generated_at
		FROM deal_explanations
		WHERE run_id = $1
		ORDER BY likelihood DESC, account_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query deal explanations: %w", err)
	}
	defer rows.Close()

	var explanations []*domain.DealExplanation
	for rows.Next() {
		var exp domain.DealExplanation

		err := rows.Scan(
			&exp.RunID,
			&exp.AccountID,
			&exp.Explanation,
			&exp.Likelihood,
			&exp.GeneratedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan deal explanation: %w", err)
		}

		explanations = append(explanations, &exp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deal explanations: %w", err)
	}

	return explanations, nil
}

var _ storage.ForecastStore = (*ForecastStore)(nil)
