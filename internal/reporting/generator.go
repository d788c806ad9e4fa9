// Package reporting renders stored forecast runs as Markdown and CSV.
package reporting

import (
	"context"
	"sort"
	"time"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/storage"
)

// Generator produces reports from stored forecast runs.
type Generator struct {
	forecastStore storage.ForecastStore
	now           func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(forecastStore storage.ForecastStore) *Generator {
	return &Generator{
		forecastStore: forecastStore,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report for one run. An empty runID selects the latest run.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	var run *domain.ForecastRun
	var err error

	if runID == "" {
		run, err = g.forecastStore.GetLatestRun(ctx)
	} else {
		run, err = g.forecastStore.GetRun(ctx, runID)
	}
	if err != nil {
		return nil, err
	}

	return &Report{
		RunID:             run.RunID,
		GeneratedAt:       run.GeneratedAt,
		RenderedAt:        g.now(),
		SegmentCount:      len(run.Segments),
		ScenarioSummaries: buildScenarioSummaries(run.Segments),
		Segments:          buildSegmentRows(run.Segments),
		RevenueBreakdown:  buildRevenueBreakdown(run.Segments),
		Explanations:      buildExplanationRows(run.Explanations),
	}, nil
}

// buildScenarioSummaries totals segments per scenario, in generation order.
func buildScenarioSummaries(segments []*domain.ForecastSegment) []ScenarioSummaryRow {
	totals := make(map[domain.ForecastScenario]*ScenarioSummaryRow)
	for _, seg := range segments {
		row, ok := totals[seg.Scenario]
		if !ok {
			row = &ScenarioSummaryRow{Scenario: string(seg.Scenario)}
			totals[seg.Scenario] = row
		}
		row.SegmentCount++
		row.ProjectedRevenue += seg.ProjectedRevenue
		row.PipelineIncluded += seg.PipelineIncluded
		row.DealCount += seg.DealCount
	}

	var rows []ScenarioSummaryRow
	for _, scenario := range domain.AllScenarios {
		if row, ok := totals[scenario]; ok {
			rows = append(rows, *row)
		}
	}
	return rows
}

// buildSegmentRows sorts segments by (scenario, revenue_type, stage, motion, market).
func buildSegmentRows(segments []*domain.ForecastSegment) []SegmentRow {
	rows := make([]SegmentRow, len(segments))
	for i, seg := range segments {
		rows[i] = SegmentRow{
			Scenario:           string(seg.Scenario),
			RevenueType:        string(seg.RevenueType),
			Stage:              string(seg.Stage),
			Motion:             string(seg.Motion),
			Market:             string(seg.Market),
			ProjectedRevenue:   seg.ProjectedRevenue,
			ConversionRateUsed: seg.ConversionRateUsed,
			PipelineIncluded:   seg.PipelineIncluded,
			DealCount:          seg.DealCount,
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Scenario != rows[j].Scenario {
			return rows[i].Scenario < rows[j].Scenario
		}
		if rows[i].RevenueType != rows[j].RevenueType {
			return rows[i].RevenueType < rows[j].RevenueType
		}
		if rows[i].Stage != rows[j].Stage {
			return rows[i].Stage < rows[j].Stage
		}
		if rows[i].Motion != rows[j].Motion {
			return rows[i].Motion < rows[j].Motion
		}
		return rows[i].Market < rows[j].Market
	})
	return rows
}

// buildRevenueBreakdown totals (scenario, revenue_type) pairs.
func buildRevenueBreakdown(segments []*domain.ForecastSegment) []RevenueBreakdownRow {
	type key struct {
		scenario    domain.ForecastScenario
		revenueType domain.RevenueType
	}
	totals := make(map[key]float64)
	for _, seg := range segments {
		totals[key{seg.Scenario, seg.RevenueType}] += seg.ProjectedRevenue
	}

	revenueTypes := []domain.RevenueType{
		domain.RevenueNewBusiness,
		domain.RevenueExpansion,
		domain.RevenueRenewals,
	}

	var rows []RevenueBreakdownRow
	for _, scenario := range domain.AllScenarios {
		for _, rt := range revenueTypes {
			if total, ok := totals[key{scenario, rt}]; ok {
				rows = append(rows, RevenueBreakdownRow{
					Scenario:         string(scenario),
					RevenueType:      string(rt),
					ProjectedRevenue: total,
				})
			}
		}
	}
	return rows
}

// buildExplanationRows sorts explanations by likelihood descending.
func buildExplanationRows(explanations []*domain.DealExplanation) []ExplanationRow {
	rows := make([]ExplanationRow, len(explanations))
	for i, exp := range explanations {
		rows[i] = ExplanationRow{
			AccountID:   exp.AccountID,
			Likelihood:  exp.Likelihood,
			Explanation: exp.Explanation,
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Likelihood != rows[j].Likelihood {
			return rows[i].Likelihood > rows[j].Likelihood
		}
		return rows[i].AccountID < rows[j].AccountID
	})
	return rows
}
