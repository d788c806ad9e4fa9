package forecast

import "revenue-forecast-lab/internal/domain"

// BuildMomentumIndex maps account_id to its deal_momentum score value.
// Only deal_momentum rows contribute. Repeated snapshots for the same
// account overwrite in input order; the index feeds ratio computations
// only, so no per-account recency resolution is needed here (the explainer
// does its own).
func BuildMomentumIndex(scores []*domain.AccountScore) map[string]float64 {
	index := make(map[string]float64)
	for _, s := range scores {
		if s.ScoreType != domain.ScoreTypeDealMomentum {
			continue
		}
		index[s.AccountID] = s.ScoreValue
	}
	return index
}

// highMomentumRatio is the fraction of tracked accounts whose momentum
// exceeds the threshold, floored at CommitFloor. Used by the commit scenario.
func highMomentumRatio(index map[string]float64, t domain.ScenarioTunables) float64 {
	if len(index) == 0 {
		return t.CommitDefault
	}
	high := 0
	for _, score := range index {
		if score > t.HighMomentumThreshold {
			high++
		}
	}
	ratio := float64(high) / float64(len(index))
	if ratio < t.CommitFloor {
		return t.CommitFloor
	}
	return ratio
}

// momentumWeightedRatio is the average momentum score divided by 100,
// clamped to [MostLikelyMin, MostLikelyMax]. Used by the most_likely scenario.
func momentumWeightedRatio(index map[string]float64, t domain.ScenarioTunables) float64 {
	if len(index) == 0 {
		return t.MostLikelyDefault
	}
	sum := 0.0
	for _, score := range index {
		sum += score
	}
	ratio := sum / float64(len(index)) / 100
	if ratio < t.MostLikelyMin {
		return t.MostLikelyMin
	}
	if ratio > t.MostLikelyMax {
		return t.MostLikelyMax
	}
	return ratio
}
