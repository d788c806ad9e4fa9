package domain

import "time"

// ForecastScenario is one of the three forecast postures.
type ForecastScenario string

// Scenario constants, in generation order.
const (
	ScenarioBestCase   ForecastScenario = "best_case"
	ScenarioCommit     ForecastScenario = "commit"
	ScenarioMostLikely ForecastScenario = "most_likely"
)

// AllScenarios lists the scenarios in the order segments are generated.
var AllScenarios = []ForecastScenario{ScenarioBestCase, ScenarioCommit, ScenarioMostLikely}

// RevenueType classifies forecasted revenue.
type RevenueType string

// Revenue type constants.
const (
	RevenueNewBusiness RevenueType = "new_business"
	RevenueExpansion   RevenueType = "expansion"
	RevenueRenewals    RevenueType = "renewals"
)

// ConversionStats holds conversion-rate order statistics for one segment.
// All-zero when Count is 0. Median is the true order-statistic median
// (average of the two middle values for even counts); P75 is floor-indexed
// with no interpolation.
type ConversionStats struct {
	Mean   float64
	Median float64
	P75    float64
	Count  int
}

// PipelineAggregate holds pipeline totals for one segment.
type PipelineAggregate struct {
	TotalPipeline float64
	TotalRevenue  float64
	AvgLeads      float64
	Days          int // row count, denominator for the daily run-rate
}

// ForecastSegment is one projected segment for one scenario.
type ForecastSegment struct {
	SegmentID string // deterministic hash, see idhash
	RunID     string

	Scenario    ForecastScenario
	Stage       FunnelStage // source stage; selection and commit both map to new_business
	RevenueType RevenueType
	Motion      SalesMotion
	Market      Market

	ProjectedRevenue   float64 // 90-day projection, rounded to 2dp
	ConversionRateUsed float64 // rounded to 4dp
	PipelineIncluded   float64 // pipeline after multiplier, rounded to 2dp
	DealCount          int

	GeneratedAt time.Time
}

// DealExplanation is a short natural-language rationale for one deal.
// Likelihood equals the raw momentum score when produced by the fallback.
type DealExplanation struct {
	AccountID   string
	Explanation string
	Likelihood  float64 // 0..100
	RunID       string
	GeneratedAt time.Time
}

// ForecastRun is the atomic output of one forecast generation: all segments
// plus the stored explanations, tagged with one shared timestamp.
type ForecastRun struct {
	RunID        string
	GeneratedAt  time.Time
	Segments     []*ForecastSegment
	Explanations []*DealExplanation
}
