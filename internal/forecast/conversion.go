// Package forecast implements the revenue forecast scenario engine:
// conversion-rate aggregation → pipeline aggregation → scenario projection.
package forecast

import (
	"sort"

	"revenue-forecast-lab/internal/domain"
)

// ComputeConversionRates reduces observations into per-segment conversion
// statistics, grouped by (stage, motion, market). Pure function of its input.
func ComputeConversionRates(observations []*domain.FunnelObservation) map[domain.SegmentKey]*domain.ConversionStats {
	groups := make(map[domain.SegmentKey][]float64)
	for _, o := range observations {
		key := o.Key()
		groups[key] = append(groups[key], o.ConversionRate)
	}

	result := make(map[domain.SegmentKey]*domain.ConversionStats, len(groups))
	for key, rates := range groups {
		result[key] = computeStats(rates)
	}
	return result
}

// computeStats calculates mean, median and p75 over conversion rates.
// Median is the true order-statistic median (average of the two middle
// values for even counts). P75 uses floor indexing with no interpolation,
// clamped to the last index.
func computeStats(values []float64) *domain.ConversionStats {
	n := len(values)
	if n == 0 {
		return &domain.ConversionStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var median float64
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}

	p75Index := n * 3 / 4
	if p75Index > n-1 {
		p75Index = n - 1
	}

	return &domain.ConversionStats{
		Mean:   mean,
		Median: median,
		P75:    sorted[p75Index],
		Count:  n,
	}
}
