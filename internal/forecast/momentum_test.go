package forecast

import (
	"math"
	"testing"
	"time"

	"revenue-forecast-lab/internal/domain"
)

func score(accountID string, scoreType domain.ScoreType, value float64) *domain.AccountScore {
	return &domain.AccountScore{
		AccountID:  accountID,
		ScoreType:  scoreType,
		ScoreValue: value,
		ScoreDate:  time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuildMomentumIndex_FiltersScoreType(t *testing.T) {
	scores := []*domain.AccountScore{
		score("acct-1", domain.ScoreTypeDealMomentum, 80),
		score("acct-2", domain.ScoreTypeChurnRisk, 90),
		score("acct-3", domain.ScoreTypeDealMomentum, 30),
	}

	index := BuildMomentumIndex(scores)
	if len(index) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(index))
	}
	if index["acct-1"] != 80 {
		t.Errorf("expected acct-1 score 80, got %f", index["acct-1"])
	}
	if _, ok := index["acct-2"]; ok {
		t.Error("churn_risk score must not enter the momentum index")
	}
}

func TestHighMomentumRatio(t *testing.T) {
	tun := domain.DefaultScenarioTunables()

	// 1 of 4 accounts above 70 → 0.25
	index := map[string]float64{"a": 90, "b": 50, "c": 60, "d": 70}
	if got := highMomentumRatio(index, tun); got != 0.25 {
		t.Errorf("expected 0.25, got %f", got)
	}

	// Score exactly at the threshold does not count as high momentum.
	index = map[string]float64{"a": 70}
	if got := highMomentumRatio(index, tun); got != tun.CommitFloor {
		t.Errorf("expected floor %f, got %f", tun.CommitFloor, got)
	}

	// No momentum data → default.
	if got := highMomentumRatio(nil, tun); got != tun.CommitDefault {
		t.Errorf("expected default %f, got %f", tun.CommitDefault, got)
	}
}

func TestMomentumWeightedRatio(t *testing.T) {
	tun := domain.DefaultScenarioTunables()

	// avg 55 → 0.55
	index := map[string]float64{"a": 40, "b": 70}
	if got := momentumWeightedRatio(index, tun); math.Abs(got-0.55) > 1e-9 {
		t.Errorf("expected 0.55, got %f", got)
	}

	// avg 5 → clamped to min
	index = map[string]float64{"a": 5}
	if got := momentumWeightedRatio(index, tun); got != tun.MostLikelyMin {
		t.Errorf("expected min %f, got %f", tun.MostLikelyMin, got)
	}

	// No momentum data → default.
	if got := momentumWeightedRatio(nil, tun); got != tun.MostLikelyDefault {
		t.Errorf("expected default %f, got %f", tun.MostLikelyDefault, got)
	}
}
