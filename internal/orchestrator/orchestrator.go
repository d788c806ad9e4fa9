// Package orchestrator coordinates a full forecast run.
// Flow: load inputs → conversion/pipeline aggregation → scenario generation →
// deal explanations → atomic persist.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"revenue-forecast-lab/internal/domain"
	"revenue-forecast-lab/internal/explain"
	"revenue-forecast-lab/internal/forecast"
	"revenue-forecast-lab/internal/idhash"
	"revenue-forecast-lab/internal/observability"
	"revenue-forecast-lab/internal/storage"
)

// Orchestrator runs the forecast end to end. Stores are injected so runs
// work identically against memory fixtures and live databases.
type Orchestrator struct {
	observationStore storage.FunnelObservationStore
	scoreStore       storage.AccountScoreStore
	kpiStore         storage.RepKPIStore
	forecastStore    storage.ForecastStore
	tunablesStore    storage.TunablesStore

	explainer *explain.Explainer

	lookbackDays int
	verbose      bool
	now          func() time.Time
	newRunID     func() string
}

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	ObservationStore storage.FunnelObservationStore
	ScoreStore       storage.AccountScoreStore
	KPIStore         storage.RepKPIStore
	ForecastStore    storage.ForecastStore

	// Optional. When nil, default tunables apply.
	TunablesStore storage.TunablesStore

	// Optional. When nil, no explanations are generated.
	Explainer *explain.Explainer

	// LookbackDays bounds the observation window. Defaults to 90.
	LookbackDays int

	Verbose bool

	// Overridable for tests.
	Now      func() time.Time
	NewRunID func() string
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		observationStore: opts.ObservationStore,
		scoreStore:       opts.ScoreStore,
		kpiStore:         opts.KPIStore,
		forecastStore:    opts.ForecastStore,
		tunablesStore:    opts.TunablesStore,
		explainer:        opts.Explainer,
		lookbackDays:     opts.LookbackDays,
		verbose:          opts.Verbose,
		now:              opts.Now,
		newRunID:         opts.NewRunID,
	}
	if o.lookbackDays <= 0 {
		o.lookbackDays = 90
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newRunID == nil {
		o.newRunID = uuid.NewString
	}
	return o
}

// RunResult contains results from one forecast run.
type RunResult struct {
	RunID               string
	SegmentsCreated     int
	ExplanationsCreated int
	UsedFallback        bool
}

// inputs holds everything loaded before generation.
type inputs struct {
	observations []*domain.FunnelObservation
	scores       []*domain.AccountScore
	csmKPIs      []*domain.RepKPI
}

// Run executes one forecast run.
// Phases:
//  1. Load observations, momentum scores, and CSM KPIs concurrently
//  2. Reduce observations into conversion stats and pipeline aggregates
//  3. Generate segments for all three scenarios
//  4. Generate deal explanations (model with deterministic fallback)
//  5. Persist the run atomically
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	started := o.now()
	result := &RunResult{RunID: o.newRunID()}

	tunables := o.loadTunables(ctx)

	o.log("Phase 1: Loading inputs...")
	in, err := o.loadInputs(ctx)
	if err != nil {
		observability.RecordForecastRun("error", time.Since(started).Seconds())
		return nil, fmt.Errorf("phase 1 (load inputs) failed: %w", err)
	}
	o.log("  %d observations, %d scores, %d csm kpi rows",
		len(in.observations), len(in.scores), len(in.csmKPIs))

	o.log("Phase 2: Aggregating...")
	conversionRates := forecast.ComputeConversionRates(in.observations)
	pipeline := forecast.AggregatePipeline(in.observations)
	momentumIndex := forecast.BuildMomentumIndex(in.scores)
	avgGRR := averageGRR(in.csmKPIs, tunables.DefaultGRR)

	o.log("Phase 3: Generating scenarios...")
	generator := forecast.NewGenerator(tunables)
	segments := generator.Generate(conversionRates, pipeline, momentumIndex, avgGRR)
	generatedAt := o.now()
	for _, seg := range segments {
		seg.RunID = result.RunID
		seg.SegmentID = idhash.ComputeSegmentID(result.RunID, seg.Scenario, seg.Stage, seg.RevenueType, seg.Motion, seg.Market)
		seg.GeneratedAt = generatedAt
	}
	result.SegmentsCreated = len(segments)
	o.log("  Generated %d segments", len(segments))

	o.log("Phase 4: Explaining top deals...")
	explanations := o.runExplanations(ctx, in.scores, tunables, result, generatedAt)
	result.ExplanationsCreated = len(explanations)
	o.log("  Stored %d explanations (fallback=%t)", len(explanations), result.UsedFallback)

	o.log("Phase 5: Persisting run %s...", result.RunID)
	run := &domain.ForecastRun{
		RunID:        result.RunID,
		GeneratedAt:  generatedAt,
		Segments:     segments,
		Explanations: explanations,
	}
	if err := o.forecastStore.InsertRun(ctx, run); err != nil {
		observability.RecordForecastRun("error", time.Since(started).Seconds())
		return nil, fmt.Errorf("phase 5 (persist run) failed: %w", err)
	}

	observability.RecordForecastRun("success", time.Since(started).Seconds())
	observability.RecordSegmentsGenerated(len(segments))
	observability.RecordExplanationsStored(len(explanations))
	observability.DefaultMetrics.LastSuccessfulRun.Set(float64(o.now().Unix()))

	o.log("Run completed: %d segments, %d explanations",
		result.SegmentsCreated, result.ExplanationsCreated)

	return result, nil
}

// loadTunables returns stored tunables, or defaults when none exist or no
// tunables store is wired.
func (o *Orchestrator) loadTunables(ctx context.Context) domain.ScenarioTunables {
	if o.tunablesStore == nil {
		return domain.DefaultScenarioTunables()
	}
	t, err := o.tunablesStore.Get(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			o.log("tunables load failed, using defaults: %v", err)
		}
		return domain.DefaultScenarioTunables()
	}
	return *t
}

// loadInputs loads the three input sets concurrently.
func (o *Orchestrator) loadInputs(ctx context.Context) (*inputs, error) {
	end := o.now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -o.lookbackDays)

	in := &inputs{}
	var wg sync.WaitGroup
	errs := make([]error, 3)

	wg.Add(3)
	go func() {
		defer wg.Done()
		in.observations, errs[0] = o.observationStore.GetByDateRange(ctx, start, end, storage.ObservationFilter{})
	}()
	go func() {
		defer wg.Done()
		in.scores, errs[1] = o.scoreStore.GetByType(ctx, domain.ScoreTypeDealMomentum, storage.ScoreFilter{})
	}()
	go func() {
		defer wg.Done()
		in.csmKPIs, errs[2] = o.kpiStore.GetByRole(ctx, domain.RoleCSM)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return in, nil
}

// runExplanations generates and filters deal explanations. Zero-likelihood
// items are dropped and at most MaxStoredExplanations are kept.
func (o *Orchestrator) runExplanations(
	ctx context.Context,
	scores []*domain.AccountScore,
	tunables domain.ScenarioTunables,
	result *RunResult,
	generatedAt time.Time,
) []*domain.DealExplanation {
	if o.explainer == nil {
		return nil
	}

	all, usedFallback := o.explainer.Explain(ctx, scores, tunables.TopDeals)
	result.UsedFallback = usedFallback
	if usedFallback {
		observability.RecordExplanationFallback()
	}

	var kept []*domain.DealExplanation
	for _, exp := range all {
		if exp.Likelihood <= 0 {
			continue
		}
		exp.RunID = result.RunID
		exp.GeneratedAt = generatedAt
		kept = append(kept, exp)
		if len(kept) >= tunables.MaxStoredExplanations {
			break
		}
	}
	return kept
}

// averageGRR averages the retention figures of CSM KPI rows, falling back
// to the default when no row carries one.
func averageGRR(kpis []*domain.RepKPI, defaultGRR float64) float64 {
	var sum float64
	var n int
	for _, k := range kpis {
		if k.GRR == nil {
			continue
		}
		sum += *k.GRR
		n++
	}
	if n == 0 {
		return defaultGRR
	}
	return sum / float64(n)
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}
