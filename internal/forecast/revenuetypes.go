package forecast

import "revenue-forecast-lab/internal/domain"

// stageToRevenueType maps revenue-producing funnel stages to revenue types:
//   - new_business: selection + commit (pre-close pipeline)
//   - expansion: growth (existing account upsells)
//   - renewals: impact (retention, adjusted by GRR)
//
// Top-of-funnel (awareness, education) and post-revenue (onboarding,
// advocacy) stages are excluded from forecasting entirely.
var stageToRevenueType = map[domain.FunnelStage]domain.RevenueType{
	domain.StageSelection: domain.RevenueNewBusiness,
	domain.StageCommit:    domain.RevenueNewBusiness,
	domain.StageGrowth:    domain.RevenueExpansion,
	domain.StageImpact:    domain.RevenueRenewals,
}

// ForecastableStages lists the stages that contribute to forecasting,
// in lifecycle order.
var ForecastableStages = []domain.FunnelStage{
	domain.StageSelection,
	domain.StageCommit,
	domain.StageImpact,
	domain.StageGrowth,
}

// RevenueTypeFor returns the revenue type a stage forecasts into.
// ok is false for stages outside the forecastable set.
func RevenueTypeFor(stage domain.FunnelStage) (domain.RevenueType, bool) {
	rt, ok := stageToRevenueType[stage]
	return rt, ok
}

// StagesForRevenueType returns all stages mapping to a revenue type,
// in lifecycle order.
func StagesForRevenueType(rt domain.RevenueType) []domain.FunnelStage {
	var stages []domain.FunnelStage
	for _, stage := range ForecastableStages {
		if stageToRevenueType[stage] == rt {
			stages = append(stages, stage)
		}
	}
	return stages
}
