package storage

import (
	"context"
	"time"

	"revenue-forecast-lab/internal/domain"
)

// ObservationFilter narrows funnel observation queries. Zero values mean
// "no filter"; Limit 0 means unlimited.
type ObservationFilter struct {
	Stage  domain.FunnelStage
	Motion domain.SalesMotion
	Market domain.Market
	Limit  int
}

// ScoreFilter narrows account score queries. Zero times leave the range
// open on that side.
type ScoreFilter struct {
	AccountID   string
	StalledOnly bool
	Start       time.Time
	End         time.Time
	Limit       int
}

// FunnelObservationStore provides access to daily funnel observations.
type FunnelObservationStore interface {
	// InsertBulk adds multiple observations. Fails entire batch on
	// duplicate (date, stage, motion, market).
	InsertBulk(ctx context.Context, observations []*domain.FunnelObservation) error

	// GetByDateRange retrieves observations with date in [start, end]
	// (inclusive), ordered by date ASC, applying the filter.
	GetByDateRange(ctx context.Context, start, end time.Time, filter ObservationFilter) ([]*domain.FunnelObservation, error)
}

// AccountScoreStore provides access to account score snapshots.
type AccountScoreStore interface {
	// Insert adds a new score snapshot. Returns ErrDuplicateKey if
	// (account_id, score_type, score_date) exists.
	Insert(ctx context.Context, s *domain.AccountScore) error

	// InsertBulk adds multiple snapshots atomically. Fails entire batch on
	// any duplicate.
	InsertBulk(ctx context.Context, scores []*domain.AccountScore) error

	// GetByType retrieves snapshots of a score type ordered by score_date
	// ASC, applying the filter.
	GetByType(ctx context.Context, scoreType domain.ScoreType, filter ScoreFilter) ([]*domain.AccountScore, error)
}

// RepKPIStore provides access to rep KPI snapshots.
type RepKPIStore interface {
	// Insert adds a KPI row. Returns ErrDuplicateKey if
	// (rep_id, period_start) exists.
	Insert(ctx context.Context, k *domain.RepKPI) error

	// GetByRole retrieves all KPI rows for a role, ordered by period_start
	// ASC then rep_id ASC.
	GetByRole(ctx context.Context, role string) ([]*domain.RepKPI, error)
}

// ForecastStore provides access to persisted forecast runs. A run's
// segments and explanations are written as one atomic unit.
type ForecastStore interface {
	// InsertRun persists a complete run. Returns ErrDuplicateKey if the
	// run id or any segment id exists.
	InsertRun(ctx context.Context, run *domain.ForecastRun) error

	// GetRun retrieves a run with all segments and explanations.
	// Returns ErrNotFound if not exists.
	GetRun(ctx context.Context, runID string) (*domain.ForecastRun, error)

	// GetLatestRun retrieves the most recently generated run.
	// Returns ErrNotFound if no runs exist.
	GetLatestRun(ctx context.Context) (*domain.ForecastRun, error)

	// ListSegmentsByScenario retrieves a run's segments for one scenario,
	// ordered by (revenue_type, motion, market).
	ListSegmentsByScenario(ctx context.Context, runID string, scenario domain.ForecastScenario) ([]*domain.ForecastSegment, error)
}

// TunablesStore provides access to the scenario calibration. Unlike the
// append-only stores above, Put overwrites: tunables are operator config,
// not immutable history.
type TunablesStore interface {
	// Get retrieves the stored tunables. Returns ErrNotFound when none
	// have been put; callers then use domain.DefaultScenarioTunables.
	Get(ctx context.Context) (*domain.ScenarioTunables, error)

	// Put stores the tunables, replacing any previous value.
	Put(ctx context.Context, t *domain.ScenarioTunables) error
}
