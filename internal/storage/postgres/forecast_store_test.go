package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/storage"
)

func testForecastRun(runID string, generatedAt time.Time) *domain.ForecastRun {
	return &domain.ForecastRun{
		RunID:       runID,
		GeneratedAt: generatedAt,
		Segments: []*domain.ForecastSegment{
			{
				SegmentID:          runID + "-seg-1",
				RunID:              runID,
				Scenario:           domain.ScenarioBestCase,
				Stage:              domain.StageCommit,
				RevenueType:        domain.RevenueNewBusiness,
				Motion:             domain.MotionInbound,
				Market:             domain.MarketUS,
				ProjectedRevenue:   257142.86,
				ConversionRateUsed: 0.4,
				PipelineIncluded:   100000,
				DealCount:          10,
				GeneratedAt:        generatedAt,
			},
			{
				SegmentID:          runID + "-seg-2",
				RunID:              runID,
				Scenario:           domain.ScenarioCommit,
				Stage:              domain.StageCommit,
				RevenueType:        domain.RevenueNewBusiness,
				Motion:             domain.MotionInbound,
				Market:             domain.MarketUS,
				ProjectedRevenue:   96428.57,
				ConversionRateUsed: 0.3,
				PipelineIncluded:   50000,
				DealCount:          5,
				GeneratedAt:        generatedAt,
			},
		},
		Explanations: []*domain.DealExplanation{
			{
				AccountID:   "acct-1",
				Explanation: "High momentum (85/100). Expansion conversation in flight.",
				Likelihood:  85,
				RunID:       runID,
				GeneratedAt: generatedAt,
			},
		},
	}
}

func TestForecastStore_InsertAndGetRun(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewForecastStore(pool)

	generatedAt := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	run := testForecastRun("run-1", generatedAt)

	err := store.InsertRun(ctx, run)
	require.NoError(t, err)

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, "run-1", got.RunID)
	assert.True(t, got.GeneratedAt.Equal(generatedAt))

	require.Len(t, got.Segments, 2)
	// Segments come back ordered by scenario.
	assert.Equal(t, domain.ScenarioBestCase, got.Segments[0].Scenario)
	assert.Equal(t, domain.ScenarioCommit, got.Segments[1].Scenario)
	assert.InDelta(t, 257142.86, got.Segments[0].ProjectedRevenue, 0.001)
	assert.InDelta(t, 0.4, got.Segments[0].ConversionRateUsed, 0.0001)
	assert.Equal(t, 10, got.Segments[0].DealCount)
	assert.Equal(t, domain.StageCommit, got.Segments[0].Stage)
	assert.Equal(t, domain.MotionInbound, got.Segments[0].Motion)
	assert.Equal(t, domain.MarketUS, got.Segments[0].Market)

	require.Len(t, got.Explanations, 1)
	assert.Equal(t, "acct-1", got.Explanations[0].AccountID)
	assert.InDelta(t, 85, got.Explanations[0].Likelihood, 0.0001)
}

func TestForecastStore_GetRunNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewForecastStore(pool)

	_, err := store.GetRun(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestForecastStore_InsertDuplicateRun(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewForecastStore(pool)

	generatedAt := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)

	err := store.InsertRun(ctx, testForecastRun("run-1", generatedAt))
	require.NoError(t, err)

	err = store.InsertRun(ctx, testForecastRun("run-1", generatedAt.Add(time.Hour)))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestForecastStore_InsertRunAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewForecastStore(pool)

	generatedAt := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)

	err := store.InsertRun(ctx, testForecastRun("run-1", generatedAt))
	require.NoError(t, err)

	// Second run reusing a segment id from the first must leave no trace.
	bad := testForecastRun("run-2", generatedAt.Add(time.Hour))
	bad.Segments[1].SegmentID = "run-1-seg-1"

	err = store.InsertRun(ctx, bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = store.GetRun(ctx, "run-2")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestForecastStore_GetLatestRun(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewForecastStore(pool)

	_, err := store.GetLatestRun(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	base := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.InsertRun(ctx, testForecastRun("run-1", base)))
	require.NoError(t, store.InsertRun(ctx, testForecastRun("run-2", base.Add(time.Hour))))

	latest, err := store.GetLatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.RunID)
	assert.Len(t, latest.Segments, 2)
}

func TestForecastStore_ListSegmentsByScenario(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewForecastStore(pool)

	generatedAt := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.InsertRun(ctx, testForecastRun("run-1", generatedAt)))

	segments, err := store.ListSegmentsByScenario(ctx, "run-1", domain.ScenarioCommit)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "run-1-seg-2", segments[0].SegmentID)

	segments, err = store.ListSegmentsByScenario(ctx, "run-1", domain.ScenarioMostLikely)
	require.NoError(t, err)
	assert.Empty(t, segments)
}
