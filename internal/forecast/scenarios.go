package forecast

import (
	"math"
	"sort"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/observability"
)

// Generator projects forecast segments for all three scenarios.
// It is stateless between calls; every run is a fresh reduction over the
// aggregates passed in, so concurrent runs need no locking.
type Generator struct {
	tunables domain.ScenarioTunables
}

// NewGenerator creates a Generator with the given tunables.
func NewGenerator(tunables domain.ScenarioTunables) *Generator {
	return &Generator{tunables: tunables}
}

// Generate emits one segment per scenario per qualifying segment key.
// Segments whose stage is not forecastable, or that have no matching
// pipeline aggregate, are skipped. Output order is deterministic:
// scenarios in AllScenarios order, keys sorted by (stage, motion, market).
// RunID, SegmentID and GeneratedAt are left for the caller to stamp.
func (g *Generator) Generate(
	conversionRates map[domain.SegmentKey]*domain.ConversionStats,
	pipeline map[domain.SegmentKey]*domain.PipelineAggregate,
	momentumIndex map[string]float64,
	avgGRR float64,
) []*domain.ForecastSegment {
	keys := sortedKeys(conversionRates)

	var segments []*domain.ForecastSegment
	for _, scenario := range domain.AllScenarios {
		for _, key := range keys {
			seg := g.generateSegment(scenario, key, conversionRates[key], pipeline[key], momentumIndex, avgGRR)
			if seg != nil {
				segments = append(segments, seg)
			}
		}
	}
	return segments
}

// generateSegment projects one (scenario, segment) pair, or nil if the
// segment does not forecast.
func (g *Generator) generateSegment(
	scenario domain.ForecastScenario,
	key domain.SegmentKey,
	stats *domain.ConversionStats,
	agg *domain.PipelineAggregate,
	momentumIndex map[string]float64,
	avgGRR float64,
) *domain.ForecastSegment {
	revenueType, ok := RevenueTypeFor(key.Stage)
	if !ok {
		observability.RecordSegmentSkipped("unforecastable_stage")
		return nil
	}
	if agg == nil {
		observability.RecordSegmentSkipped("missing_pipeline")
		return nil
	}

	// Select conversion statistic and pipeline-inclusion multiplier.
	var convRate, multiplier float64
	switch scenario {
	case domain.ScenarioBestCase:
		// Optimistic: p75 conversion, full pipeline.
		convRate = stats.P75
		multiplier = 1.0
	case domain.ScenarioCommit:
		// Conservative: median conversion, high-momentum pipeline only.
		convRate = stats.Median
		multiplier = highMomentumRatio(momentumIndex, g.tunables)
	case domain.ScenarioMostLikely:
		// Balanced: mean conversion, momentum-weighted pipeline.
		convRate = stats.Mean
		multiplier = momentumWeightedRatio(momentumIndex, g.tunables)
	}

	rawRevenue := agg.TotalPipeline * convRate * multiplier

	// Renewal revenue is capped by retention, not by pipeline conversion.
	if revenueType == domain.RevenueRenewals {
		rawRevenue *= avgGRR
	}

	// Normalize onto the common horizon via the observed daily run-rate.
	days := agg.Days
	if days < 1 {
		days = 1
	}
	projected := rawRevenue / float64(days) * float64(g.tunables.HorizonDays)

	return &domain.ForecastSegment{
		Scenario:           scenario,
		Stage:              key.Stage,
		RevenueType:        revenueType,
		Motion:             key.Motion,
		Market:             key.Market,
		ProjectedRevenue:   round2(projected),
		ConversionRateUsed: round4(convRate),
		PipelineIncluded:   round2(agg.TotalPipeline * multiplier),
		DealCount:          int(math.Round(agg.AvgLeads * multiplier)),
	}
}

// sortedKeys returns segment keys in (stage, motion, market) order for
// deterministic output.
func sortedKeys(m map[domain.SegmentKey]*domain.ConversionStats) []domain.SegmentKey {
	keys := make([]domain.SegmentKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Stage != keys[j].Stage {
			return keys[i].Stage < keys[j].Stage
		}
		if keys[i].Motion != keys[j].Motion {
			return keys[i].Motion < keys[j].Motion
		}
		return keys[i].Market < keys[j].Market
	})
	return keys
}

// round2 rounds to 2 decimal places (money).
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// round4 rounds to 4 decimal places (rates).
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
