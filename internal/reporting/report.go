package reporting

import "time"

// Report is the rendered view of one forecast run.
type Report struct {
	// Metadata
	RunID        string
	GeneratedAt  time.Time
	RenderedAt   time.Time
	SegmentCount int

	// Scenario Summaries (one per scenario, in generation order)
	ScenarioSummaries []ScenarioSummaryRow

	// Segment rows (sorted by scenario, revenue_type, stage, motion, market)
	Segments []SegmentRow

	// Revenue type totals per scenario
	RevenueBreakdown []RevenueBreakdownRow

	// Deal explanations (sorted by likelihood descending)
	Explanations []ExplanationRow
}

// ScenarioSummaryRow totals one scenario across all segments.
type ScenarioSummaryRow struct {
	Scenario         string
	SegmentCount     int
	ProjectedRevenue float64
	PipelineIncluded float64
	DealCount        int
}

// SegmentRow is one projected segment.
type SegmentRow struct {
	Scenario           string
	RevenueType        string
	Stage              string
	Motion             string
	Market             string
	ProjectedRevenue   float64
	ConversionRateUsed float64
	PipelineIncluded   float64
	DealCount          int
}

// RevenueBreakdownRow totals one (scenario, revenue_type) pair.
type RevenueBreakdownRow struct {
	Scenario         string
	RevenueType      string
	ProjectedRevenue float64
}

// ExplanationRow is one deal rationale.
type ExplanationRow struct {
	AccountID   string
	Likelihood  float64
	Explanation string
}
