// Package fixtures loads seed data for forecast runs from a JSON file.
// Used by cmd/forecast to exercise the full pipeline without live databases.
package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/storage"
)

const dateLayout = "2006-01-02"

// File is the on-disk fixture format. Dates are "YYYY-MM-DD" strings.
type File struct {
	Observations []ObservationFixture `json:"observations"`
	Scores       []ScoreFixture       `json:"scores"`
	RepKPIs      []RepKPIFixture      `json:"rep_kpis"`
}

// ObservationFixture is one funnel observation row.
type ObservationFixture struct {
	Date           string  `json:"date"`
	Stage          string  `json:"stage"`
	Motion         string  `json:"motion"`
	Market         string  `json:"market"`
	LeadsCount     int     `json:"leads_count"`
	ConversionRate float64 `json:"conversion_rate"`
	Revenue        float64 `json:"revenue"`
	Spend          float64 `json:"spend"`
	PipelineValue  float64 `json:"pipeline_value"`
}

// ScoreFixture is one account score snapshot.
type ScoreFixture struct {
	AccountID           string   `json:"account_id"`
	ScoreType           string   `json:"score_type"`
	ScoreValue          float64  `json:"score_value"`
	ScoreDate           string   `json:"score_date"`
	IsStalled           bool     `json:"is_stalled"`
	StalledSince        *string  `json:"stalled_since"`
	ContributingFactors []string `json:"contributing_factors"`
}

// RepKPIFixture is one rep KPI row.
type RepKPIFixture struct {
	RepID           string   `json:"rep_id"`
	Role            string   `json:"role"`
	GRR             *float64 `json:"grr"`
	QuotaAttainment *float64 `json:"quota_attainment"`
	PeriodStart     string   `json:"period_start"`
}

// Load reads and parses a fixture file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture file: %w", err)
	}
	return &f, nil
}

// Seed inserts fixture data into the given stores. Nil stores are skipped.
func (f *File) Seed(
	ctx context.Context,
	observations storage.FunnelObservationStore,
	scores storage.AccountScoreStore,
	kpis storage.RepKPIStore,
) error {
	if observations != nil && len(f.Observations) > 0 {
		rows, err := f.observationRows()
		if err != nil {
			return err
		}
		if err := observations.InsertBulk(ctx, rows); err != nil {
			return fmt.Errorf("seed observations: %w", err)
		}
	}

	if scores != nil && len(f.Scores) > 0 {
		rows, err := f.scoreRows()
		if err != nil {
			return err
		}
		if err := scores.InsertBulk(ctx, rows); err != nil {
			return fmt.Errorf("seed scores: %w", err)
		}
	}

	if kpis != nil {
		for _, k := range f.RepKPIs {
			row, err := k.row()
			if err != nil {
				return err
			}
			if err := kpis.Insert(ctx, row); err != nil {
				return fmt.Errorf("seed rep kpi %s: %w", k.RepID, err)
			}
		}
	}

	return nil
}

func (f *File) observationRows() ([]*domain.FunnelObservation, error) {
	rows := make([]*domain.FunnelObservation, len(f.Observations))
	for i, o := range f.Observations {
		date, err := time.Parse(dateLayout, o.Date)
		if err != nil {
			return nil, fmt.Errorf("observation %d: parse date %q: %w", i, o.Date, err)
		}
		rows[i] = &domain.FunnelObservation{
			Date:           date,
			Stage:          domain.FunnelStage(o.Stage),
			Motion:         domain.SalesMotion(o.Motion),
			Market:         domain.Market(o.Market),
			LeadsCount:     o.LeadsCount,
			ConversionRate: o.ConversionRate,
			Revenue:        o.Revenue,
			Spend:          o.Spend,
			PipelineValue:  o.PipelineValue,
		}
	}
	return rows, nil
}

func (f *File) scoreRows() ([]*domain.AccountScore, error) {
	rows := make([]*domain.AccountScore, len(f.Scores))
	for i, s := range f.Scores {
		date, err := time.Parse(dateLayout, s.ScoreDate)
		if err != nil {
			return nil, fmt.Errorf("score %d: parse date %q: %w", i, s.ScoreDate, err)
		}
		var stalledSince *time.Time
		if s.StalledSince != nil {
			d, err := time.Parse(dateLayout, *s.StalledSince)
			if err != nil {
				return nil, fmt.Errorf("score %d: parse stalled_since %q: %w", i, *s.StalledSince, err)
			}
			stalledSince = &d
		}
		rows[i] = &domain.AccountScore{
			AccountID:           s.AccountID,
			ScoreType:           domain.ScoreType(s.ScoreType),
			ScoreValue:          s.ScoreValue,
			ScoreDate:           date,
			IsStalled:           s.IsStalled,
			StalledSince:        stalledSince,
			ContributingFactors: s.ContributingFactors,
		}
	}
	return rows, nil
}

func (k *RepKPIFixture) row() (*domain.RepKPI, error) {
	period, err := time.Parse(dateLayout, k.PeriodStart)
	if err != nil {
		return nil, fmt.Errorf("rep kpi %s: parse period_start %q: %w", k.RepID, k.PeriodStart, err)
	}
	return &domain.RepKPI{
		RepID:           k.RepID,
		Role:            k.Role,
		GRR:             k.GRR,
		QuotaAttainment: k.QuotaAttainment,
		PeriodStart:     period,
	}, nil
}
