package forecast

import (
	"math"
	"testing"

	"revenue-forecast-lab/internal/domain"
)

func TestAggregatePipeline_SumsAndAverages(t *testing.T) {
	a := obs(domain.StageCommit, domain.MotionPaidAds, domain.MarketUS, 0, 0.2)
	a.PipelineValue = 5000
	a.Revenue = 1200
	a.LeadsCount = 8
	b := obs(domain.StageCommit, domain.MotionPaidAds, domain.MarketUS, 1, 0.3)
	b.PipelineValue = 7000
	b.Revenue = 800
	b.LeadsCount = 12

	aggs := AggregatePipeline([]*domain.FunnelObservation{a, b})
	key := domain.SegmentKey{Stage: domain.StageCommit, Motion: domain.MotionPaidAds, Market: domain.MarketUS}

	agg, ok := aggs[key]
	if !ok {
		t.Fatal("expected aggregate for segment key")
	}
	if agg.TotalPipeline != 12000 {
		t.Errorf("expected total pipeline 12000, got %f", agg.TotalPipeline)
	}
	if agg.TotalRevenue != 2000 {
		t.Errorf("expected total revenue 2000, got %f", agg.TotalRevenue)
	}
	if math.Abs(agg.AvgLeads-10) > 1e-9 {
		t.Errorf("expected avg leads 10, got %f", agg.AvgLeads)
	}
	if agg.Days != 2 {
		t.Errorf("expected 2 days, got %d", agg.Days)
	}
}

func TestAggregatePipeline_EmptyInput(t *testing.T) {
	aggs := AggregatePipeline(nil)
	if len(aggs) != 0 {
		t.Errorf("expected empty map, got %d entries", len(aggs))
	}
}
