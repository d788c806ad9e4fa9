package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/storage"
)

func day(d int) time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func testObservation(d int, stage domain.FunnelStage, motion domain.SalesMotion, market domain.Market) *domain.FunnelObservation {
	return &domain.FunnelObservation{
		Date:           day(d),
		Stage:          stage,
		Motion:         motion,
		Market:         market,
		LeadsCount:     5,
		ConversionRate: 0.2,
		Revenue:        1000,
		PipelineValue:  8000,
	}
}

func TestFunnelObservationStore_InsertBulkAndQuery(t *testing.T) {
	ctx := context.Background()
	store := NewFunnelObservationStore()

	err := store.InsertBulk(ctx, []*domain.FunnelObservation{
		testObservation(0, domain.StageCommit, domain.MotionOutbound, domain.MarketUS),
		testObservation(1, domain.StageCommit, domain.MotionOutbound, domain.MarketUS),
		testObservation(1, domain.StageGrowth, domain.MotionPLG, domain.MarketEMEA),
	})
	require.NoError(t, err)

	all, err := store.GetByDateRange(ctx, day(0), day(5), storage.ObservationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.True(t, all[0].Date.Before(all[1].Date) || all[0].Date.Equal(all[1].Date))

	filtered, err := store.GetByDateRange(ctx, day(0), day(5), storage.ObservationFilter{Stage: domain.StageGrowth})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, domain.MarketEMEA, filtered[0].Market)
}

func TestFunnelObservationStore_DateRangeExcludesOutside(t *testing.T) {
	ctx := context.Background()
	store := NewFunnelObservationStore()

	require.NoError(t, store.InsertBulk(ctx, []*domain.FunnelObservation{
		testObservation(0, domain.StageCommit, domain.MotionOutbound, domain.MarketUS),
		testObservation(10, domain.StageCommit, domain.MotionOutbound, domain.MarketUS),
	}))

	result, err := store.GetByDateRange(ctx, day(0), day(5), storage.ObservationFilter{})
	require.NoError(t, err)
	require.Len(t, result, 1)
}

func TestFunnelObservationStore_DuplicateRejected(t *testing.T) {
	ctx := context.Background()
	store := NewFunnelObservationStore()

	o := testObservation(0, domain.StageCommit, domain.MotionOutbound, domain.MarketUS)
	require.NoError(t, store.InsertBulk(ctx, []*domain.FunnelObservation{o}))

	err := store.InsertBulk(ctx, []*domain.FunnelObservation{o})
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Intra-batch duplicate also fails the whole batch.
	o2 := testObservation(2, domain.StageCommit, domain.MotionOutbound, domain.MarketUS)
	err = store.InsertBulk(ctx, []*domain.FunnelObservation{o2, o2})
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	all, err := store.GetByDateRange(ctx, day(0), day(30), storage.ObservationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestFunnelObservationStore_Limit(t *testing.T) {
	ctx := context.Background()
	store := NewFunnelObservationStore()

	var observations []*domain.FunnelObservation
	for i := 0; i < 5; i++ {
		observations = append(observations, testObservation(i, domain.StageCommit, domain.MotionOutbound, domain.MarketUS))
	}
	require.NoError(t, store.InsertBulk(ctx, observations))

	result, err := store.GetByDateRange(ctx, day(0), day(30), storage.ObservationFilter{Limit: 3})
	require.NoError(t, err)
	require.Len(t, result, 3)
	// Limit keeps the earliest rows.
	require.Equal(t, day(0), result[0].Date)
}
