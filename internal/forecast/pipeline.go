package forecast

import "revenue-forecast-lab/internal/domain"

// AggregatePipeline reduces observations into per-segment pipeline totals,
// grouped by the same (stage, motion, market) key as the conversion stats.
// Days is the row count and later serves as the daily run-rate denominator.
func AggregatePipeline(observations []*domain.FunnelObservation) map[domain.SegmentKey]*domain.PipelineAggregate {
	groups := make(map[domain.SegmentKey][]*domain.FunnelObservation)
	for _, o := range observations {
		key := o.Key()
		groups[key] = append(groups[key], o)
	}

	result := make(map[domain.SegmentKey]*domain.PipelineAggregate, len(groups))
	for key, rows := range groups {
		var totalPipeline, totalRevenue, totalLeads float64
		for _, r := range rows {
			totalPipeline += r.PipelineValue
			totalRevenue += r.Revenue
			totalLeads += float64(r.LeadsCount)
		}
		result[key] = &domain.PipelineAggregate{
			TotalPipeline: totalPipeline,
			TotalRevenue:  totalRevenue,
			AvgLeads:      totalLeads / float64(len(rows)),
			Days:          len(rows),
		}
	}
	return result
}
