package domain

import "time"

// ScoreType classifies an account score snapshot.
type ScoreType string

// Score type constants. Only deal_momentum feeds the forecast engine.
const (
	ScoreTypeDealMomentum        ScoreType = "deal_momentum"
	ScoreTypeChurnRisk           ScoreType = "churn_risk"
	ScoreTypeExpansionPropensity ScoreType = "expansion_propensity"
)

// AccountScore is an immutable account health snapshot.
type AccountScore struct {
	AccountID  string
	ScoreType  ScoreType
	ScoreValue float64 // 0..100
	ScoreDate  time.Time
	IsStalled  bool
	// StalledSince is set only when IsStalled is true.
	StalledSince *time.Time
	// ContributingFactors are short signal labels from the scoring job,
	// passed verbatim to the explanation prompt.
	ContributingFactors []string
}
