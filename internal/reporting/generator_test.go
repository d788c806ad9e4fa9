package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/storage"
	"revenue-forecast-lab/internal/storage/memory"
)

func seedRun(t *testing.T, store *memory.ForecastStore, runID string, generatedAt time.Time) {
	t.Helper()

	run := &domain.ForecastRun{
		RunID:       runID,
		GeneratedAt: generatedAt,
		Segments: []*domain.ForecastSegment{
			{
				SegmentID: runID + "-s1", RunID: runID,
				Scenario: domain.ScenarioMostLikely, Stage: domain.StageCommit, RevenueType: domain.RevenueNewBusiness,
				Motion: domain.MotionPaidAds, Market: domain.MarketUS,
				ProjectedRevenue: 120000, ConversionRateUsed: 0.31,
				PipelineIncluded: 60000, DealCount: 6, GeneratedAt: generatedAt,
			},
			{
				SegmentID: runID + "-s2", RunID: runID,
				Scenario: domain.ScenarioBestCase, Stage: domain.StageCommit, RevenueType: domain.RevenueNewBusiness,
				Motion: domain.MotionPaidAds, Market: domain.MarketUS,
				ProjectedRevenue: 257142.86, ConversionRateUsed: 0.40,
				PipelineIncluded: 100000, DealCount: 10, GeneratedAt: generatedAt,
			},
			{
				SegmentID: runID + "-s3", RunID: runID,
				Scenario: domain.ScenarioBestCase, Stage: domain.StageImpact, RevenueType: domain.RevenueRenewals,
				Motion: domain.MotionInbound, Market: domain.MarketEMEA,
				ProjectedRevenue: 80000, ConversionRateUsed: 0.50,
				PipelineIncluded: 40000, DealCount: 4, GeneratedAt: generatedAt,
			},
		},
		Explanations: []*domain.DealExplanation{
			{AccountID: "acct-2", Explanation: "No champion | stalled.", Likelihood: 35, RunID: runID, GeneratedAt: generatedAt},
			{AccountID: "acct-1", Explanation: "Contract in legal review.", Likelihood: 82, RunID: runID, GeneratedAt: generatedAt},
		},
	}
	require.NoError(t, store.InsertRun(context.Background(), run))
}

func TestGenerator_GenerateLatest(t *testing.T) {
	store := memory.NewForecastStore()
	base := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	seedRun(t, store, "run-1", base)
	seedRun(t, store, "run-2", base.Add(time.Hour))

	rendered := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	g := NewGenerator(store).WithClock(func() time.Time { return rendered })

	report, err := g.Generate(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "run-2", report.RunID)
	assert.True(t, report.RenderedAt.Equal(rendered))
	assert.Equal(t, 3, report.SegmentCount)

	// Scenario summaries in generation order: best_case first.
	require.Len(t, report.ScenarioSummaries, 2)
	assert.Equal(t, "best_case", report.ScenarioSummaries[0].Scenario)
	assert.Equal(t, 2, report.ScenarioSummaries[0].SegmentCount)
	assert.InDelta(t, 337142.86, report.ScenarioSummaries[0].ProjectedRevenue, 0.001)
	assert.Equal(t, "most_likely", report.ScenarioSummaries[1].Scenario)

	// Segments sorted by (scenario, revenue_type, stage, motion, market).
	require.Len(t, report.Segments, 3)
	assert.Equal(t, "new_business", report.Segments[0].RevenueType)
	assert.Equal(t, "renewals", report.Segments[1].RevenueType)
	assert.Equal(t, "most_likely", report.Segments[2].Scenario)

	// Breakdown keeps scenario order, then revenue type order.
	require.Len(t, report.RevenueBreakdown, 3)
	assert.Equal(t, "best_case", report.RevenueBreakdown[0].Scenario)
	assert.Equal(t, "new_business", report.RevenueBreakdown[0].RevenueType)
	assert.Equal(t, "renewals", report.RevenueBreakdown[1].RevenueType)

	// Explanations in likelihood order.
	require.Len(t, report.Explanations, 2)
	assert.Equal(t, "acct-1", report.Explanations[0].AccountID)
}

func TestGenerator_GenerateByRunID(t *testing.T) {
	store := memory.NewForecastStore()
	base := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	seedRun(t, store, "run-1", base)
	seedRun(t, store, "run-2", base.Add(time.Hour))

	g := NewGenerator(store)
	report, err := g.Generate(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", report.RunID)
}

func TestGenerator_NoRuns(t *testing.T) {
	g := NewGenerator(memory.NewForecastStore())
	_, err := g.Generate(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRenderMarkdown(t *testing.T) {
	store := memory.NewForecastStore()
	seedRun(t, store, "run-1", time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC))

	g := NewGenerator(store)
	report, err := g.Generate(context.Background(), "run-1")
	require.NoError(t, err)

	md := RenderMarkdown(report)

	assert.Contains(t, md, "# Revenue Forecast Report")
	assert.Contains(t, md, "Run: run-1")
	assert.Contains(t, md, "| best_case |")
	assert.Contains(t, md, "| paid_ads | us |")
	assert.Contains(t, md, "257142.86")
	// Pipes in explanation text must not break the table.
	assert.Contains(t, md, `No champion \| stalled.`)
}

func TestRenderMarkdown_EmptyRun(t *testing.T) {
	report := &Report{RunID: "run-1"}
	md := RenderMarkdown(report)
	assert.Contains(t, md, "No segments in this run.")
	assert.Contains(t, md, "No deal explanations stored.")
}

func TestRenderCSV(t *testing.T) {
	store := memory.NewForecastStore()
	seedRun(t, store, "run-1", time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC))

	g := NewGenerator(store)
	report, err := g.Generate(context.Background(), "run-1")
	require.NoError(t, err)

	csv := RenderCSV(report.Segments)
	lines := strings.Split(strings.TrimSpace(csv), "\n")

	require.Len(t, lines, 4)
	assert.Equal(t, "scenario,revenue_type,funnel_stage,motion,market,projected_revenue,conversion_rate_used,pipeline_included,deal_count", lines[0])
	assert.Equal(t, "best_case,new_business,commit,paid_ads,us,257142.86,0.4000,100000.00,10", lines[1])
}
