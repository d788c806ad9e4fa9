package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/storage"
)

func testObservation(stage domain.FunnelStage, motion domain.SalesMotion, market domain.Market, day int) *domain.FunnelObservation {
	return &domain.FunnelObservation{
		Date:           time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		Stage:          stage,
		Motion:         motion,
		Market:         market,
		LeadsCount:     12,
		ConversionRate: 0.31,
		Revenue:        42000,
		Spend:          8000,
		PipelineValue:  115000,
	}
}

func TestFunnelObservationStore_InsertBulkAndGetByDateRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFunnelObservationStore(conn)

	err := store.InsertBulk(ctx, []*domain.FunnelObservation{
		testObservation(domain.StageCommit, domain.MotionPaidAds, domain.MarketUS, 0),
		testObservation(domain.StageCommit, domain.MotionPaidAds, domain.MarketUS, 1),
		testObservation(domain.StageGrowth, domain.MotionPLG, domain.MarketEMEA, 1),
	})
	require.NoError(t, err)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	observations, err := store.GetByDateRange(ctx, start, end, storage.ObservationFilter{})
	require.NoError(t, err)
	require.Len(t, observations, 3)

	// Ordered by date ASC
	assert.True(t, observations[0].Date.Before(observations[1].Date))

	got := observations[0]
	assert.Equal(t, domain.StageCommit, got.Stage)
	assert.Equal(t, domain.MotionPaidAds, got.Motion)
	assert.Equal(t, domain.MarketUS, got.Market)
	assert.Equal(t, 12, got.LeadsCount)
	assert.InDelta(t, 0.31, got.ConversionRate, 0.0001)
	assert.InDelta(t, 42000, got.Revenue, 0.0001)
	assert.InDelta(t, 8000, got.Spend, 0.0001)
	assert.InDelta(t, 115000, got.PipelineValue, 0.0001)
}

func TestFunnelObservationStore_InsertBulkDuplicateInBatch(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFunnelObservationStore(conn)

	err := store.InsertBulk(ctx, []*domain.FunnelObservation{
		testObservation(domain.StageCommit, domain.MotionPaidAds, domain.MarketUS, 0),
		testObservation(domain.StageCommit, domain.MotionPaidAds, domain.MarketUS, 0),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestFunnelObservationStore_InsertBulkDuplicateAgainstDB(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFunnelObservationStore(conn)

	err := store.InsertBulk(ctx, []*domain.FunnelObservation{
		testObservation(domain.StageCommit, domain.MotionPaidAds, domain.MarketUS, 0),
	})
	require.NoError(t, err)

	err = store.InsertBulk(ctx, []*domain.FunnelObservation{
		testObservation(domain.StageCommit, domain.MotionPaidAds, domain.MarketUS, 0),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestFunnelObservationStore_GetByDateRangeFilters(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFunnelObservationStore(conn)

	err := store.InsertBulk(ctx, []*domain.FunnelObservation{
		testObservation(domain.StageCommit, domain.MotionPaidAds, domain.MarketUS, 0),
		testObservation(domain.StageCommit, domain.MotionInbound, domain.MarketUS, 0),
		testObservation(domain.StageGrowth, domain.MotionPLG, domain.MarketEMEA, 0),
		testObservation(domain.StageCommit, domain.MotionPaidAds, domain.MarketUS, 10),
	})
	require.NoError(t, err)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 30)

	// Stage filter
	observations, err := store.GetByDateRange(ctx, start, end, storage.ObservationFilter{Stage: domain.StageGrowth})
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, domain.MarketEMEA, observations[0].Market)

	// Motion + market filter
	observations, err = store.GetByDateRange(ctx, start, end, storage.ObservationFilter{
		Motion: domain.MotionPaidAds,
		Market: domain.MarketUS,
	})
	require.NoError(t, err)
	assert.Len(t, observations, 2)

	// Range excludes the day-10 row
	observations, err = store.GetByDateRange(ctx, start, start.AddDate(0, 0, 5), storage.ObservationFilter{})
	require.NoError(t, err)
	assert.Len(t, observations, 3)

	// Limit
	observations, err = store.GetByDateRange(ctx, start, end, storage.ObservationFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, observations, 2)
}
