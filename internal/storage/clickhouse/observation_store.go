package clickhouse

import (
	"context"
	"fmt"
	"time"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/observability"
	"revenue-forecast-lab/internal/storage"
)

// FunnelObservationStore implements storage.FunnelObservationStore using
// ClickHouse. MergeTree does not enforce uniqueness, so duplicates on
// (date, stage, motion, market) are rejected by explicit checks before insert.
type FunnelObservationStore struct {
	conn *Conn
}

// NewFunnelObservationStore creates a new FunnelObservationStore.
func NewFunnelObservationStore(conn *Conn) *FunnelObservationStore {
	return &FunnelObservationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FunnelObservationStore = (*FunnelObservationStore)(nil)

// InsertBulk adds multiple observations. Fails entire batch on duplicate
// (date, stage, motion, market).
func (s *FunnelObservationStore) InsertBulk(ctx context.Context, observations []*domain.FunnelObservation) error {
	if len(observations) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		date   string
		stage  domain.FunnelStage
		motion domain.SalesMotion
		market domain.Market
	}
	seen := make(map[key]struct{})
	for _, o := range observations {
		k := key{o.Date.UTC().Format("2006-01-02"), o.Stage, o.Motion, o.Market}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, o := range observations {
		exists, err := s.exists(ctx, o)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO funnel_observations (
			date, stage, motion, market, leads_count, conversion_rate, revenue, spend, pipeline_value
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range observations {
		err = batch.Append(
			o.Date.UTC(), string(o.Stage), string(o.Motion), string(o.Market),
			uint32(o.LeadsCount), o.ConversionRate, o.Revenue, o.Spend, o.PipelineValue,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	sendStart := time.Now()
	err = batch.Send()
	observability.RecordDBQuery("clickhouse", "batch_insert", time.Since(sendStart).Seconds(), err)
	if err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByDateRange retrieves observations with date in [start, end] (inclusive),
// ordered by date ASC, applying the filter.
func (s *FunnelObservationStore) GetByDateRange(ctx context.Context, start, end time.Time, filter storage.ObservationFilter) ([]*domain.FunnelObservation, error) {
	query := `
		SELECT date, stage, motion, market, leads_count, conversion_rate, revenue, spend, pipeline_value
		FROM funnel_observations
		WHERE date >= ? AND date <= ?
	`
	args := []any{start.UTC(), end.UTC()}

	if filter.Stage != "" {
		query += " AND stage = ?"
		args = append(args, string(filter.Stage))
	}
	if filter.Motion != "" {
		query += " AND motion = ?"
		args = append(args, string(filter.Motion))
	}
	if filter.Market != "" {
		query += " AND market = ?"
		args = append(args, string(filter.Market))
	}

	query += " ORDER BY date ASC, stage ASC, motion ASC, market ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, uint64(filter.Limit))
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query by date range: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// exists checks if an observation with the same segment key and date exists.
func (s *FunnelObservationStore) exists(ctx context.Context, o *domain.FunnelObservation) (bool, error) {
	query := `
		SELECT count(*) FROM funnel_observations
		WHERE date = ? AND stage = ? AND motion = ? AND market = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query,
		o.Date.UTC(), string(o.Stage), string(o.Motion), string(o.Market),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanObservations scans multiple rows.
func scanObservations(rows chRows) ([]*domain.FunnelObservation, error) {
	var observations []*domain.FunnelObservation

	for rows.Next() {
		var o domain.FunnelObservation
		var stage, motion, market string
		var leadsCount uint32

		err := rows.Scan(
			&o.Date, &stage, &motion, &market,
			&leadsCount, &o.ConversionRate, &o.Revenue, &o.Spend, &o.PipelineValue,
		)
		if err != nil {
			return nil, fmt.Errorf("scan funnel observation row: %w", err)
		}

		o.Stage = domain.FunnelStage(stage)
		o.Motion = domain.SalesMotion(motion)
		o.Market = domain.Market(market)
		o.LeadsCount = int(leadsCount)
		observations = append(observations, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate funnel observation rows: %w", err)
	}

	return observations, nil
}
