package domain

// ScenarioTunables are the calibration knobs of the scenario generator.
// The multiplier clamp bounds are ad hoc and pending calibration against
// real outcome data, so they live in config rather than in the code.
type ScenarioTunables struct {
	// Commit scenario: pipeline fraction from deals whose momentum score
	// exceeds HighMomentumThreshold, floored at CommitFloor.
	HighMomentumThreshold float64
	CommitFloor           float64
	CommitDefault         float64 // used when no momentum data exists

	// Most-likely scenario: average momentum / 100, clamped.
	MostLikelyMin     float64
	MostLikelyMax     float64
	MostLikelyDefault float64

	// Renewals are discounted by GRR; DefaultGRR applies when no CSM KPI
	// rows carry a retention figure.
	DefaultGRR float64

	// HorizonDays is the forecast horizon the daily run-rate is projected to.
	HorizonDays int

	// TopDeals is how many deals the explainer ranks; MaxStoredExplanations
	// caps how many non-zero-likelihood explanations are persisted per run.
	TopDeals              int
	MaxStoredExplanations int
}

// DefaultScenarioTunables returns the shipped calibration.
func DefaultScenarioTunables() ScenarioTunables {
	return ScenarioTunables{
		HighMomentumThreshold: 70,
		CommitFloor:           0.1,
		CommitDefault:         0.5,
		MostLikelyMin:         0.2,
		MostLikelyMax:         1.0,
		MostLikelyDefault:     0.6,
		DefaultGRR:            0.92,
		HorizonDays:           90,
		TopDeals:              10,
		MaxStoredExplanations: 5,
	}
}
