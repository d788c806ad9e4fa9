// Package main runs one forecast end to end.
// Executes: load inputs → aggregate → scenarios → explanations → persist,
// then optionally renders report files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"revenue-forecast-lab/internal/explain"
	"revenue-forecast-lab/internal/fixtures"
	"revenue-forecast-lab/internal/llm"
	"revenue-forecast-lab/internal/orchestrator"
	"revenue-forecast-lab/internal/reporting"
	"revenue-forecast-lab/internal/storage"
	chstore "revenue-forecast-lab/internal/storage/clickhouse"
	"revenue-forecast-lab/internal/storage/memory"
	"revenue-forecast-lab/internal/storage/migrations"
	pgstore "revenue-forecast-lab/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of live databases")
	fixturesPath := flag.String("fixtures", "", "JSON fixture file to seed stores before the run")
	lookbackDays := flag.Int("lookback-days", 90, "Observation window in days")
	anthropicModel := flag.String("anthropic-model", os.Getenv("ANTHROPIC_MODEL"), "Claude model for deal explanations")
	outputDir := flag.String("output-dir", "", "Write report files here after the run (empty: skip)")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stdout, "[forecast] ", log.LstdFlags)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling run...", sig)
		cancel()
	}()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	if *fixturesPath != "" {
		f, err := fixtures.Load(*fixturesPath)
		if err != nil {
			logger.Fatalf("Failed to load fixtures: %v", err)
		}
		if err := f.Seed(ctx, stores.observationStore, stores.scoreStore, stores.kpiStore); err != nil {
			logger.Fatalf("Failed to seed fixtures: %v", err)
		}
		logger.Printf("Seeded %d observations, %d scores, %d kpi rows",
			len(f.Observations), len(f.Scores), len(f.RepKPIs))
	}

	explainer := buildExplainer(*anthropicModel, logger)

	orch := orchestrator.New(orchestrator.Options{
		ObservationStore: stores.observationStore,
		ScoreStore:       stores.scoreStore,
		KPIStore:         stores.kpiStore,
		ForecastStore:    stores.forecastStore,
		TunablesStore:    stores.tunablesStore,
		Explainer:        explainer,
		LookbackDays:     *lookbackDays,
		Verbose:          *verbose,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		logger.Fatalf("Forecast run failed: %v", err)
	}

	fmt.Printf("Forecast run completed:\n")
	fmt.Printf("  Run ID:       %s\n", result.RunID)
	fmt.Printf("  Segments:     %d\n", result.SegmentsCreated)
	fmt.Printf("  Explanations: %d\n", result.ExplanationsCreated)
	if result.UsedFallback {
		fmt.Println("  Explanations came from the deterministic fallback")
	}

	if *outputDir != "" {
		if err := writeReports(ctx, stores.forecastStore, result.RunID, *outputDir); err != nil {
			logger.Fatalf("Failed to write reports: %v", err)
		}
		fmt.Printf("Reports written:\n")
		fmt.Printf("  - %s/FORECAST_REPORT.md\n", *outputDir)
		fmt.Printf("  - %s/forecast_segments.csv\n", *outputDir)
	}
}

// runStores holds the stores one run needs.
type runStores struct {
	observationStore storage.FunnelObservationStore
	scoreStore       storage.AccountScoreStore
	kpiStore         storage.RepKPIStore
	forecastStore    storage.ForecastStore
	tunablesStore    storage.TunablesStore
}

// createStores creates memory or live stores, running migrations for live ones.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*runStores, func(), error) {
	if useMemory {
		stores := &runStores{
			observationStore: memory.NewFunnelObservationStore(),
			scoreStore:       memory.NewAccountScoreStore(),
			kpiStore:         memory.NewRepKPIStore(),
			forecastStore:    memory.NewForecastStore(),
			tunablesStore:    memory.NewTunablesStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := &runStores{
		observationStore: chstore.NewFunnelObservationStore(chConn),
		scoreStore:       pgstore.NewAccountScoreStore(pool),
		kpiStore:         pgstore.NewRepKPIStore(pool),
		forecastStore:    pgstore.NewForecastStore(pool),
		tunablesStore:    pgstore.NewTunablesStore(pool),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// buildExplainer wires the Claude generator when an API key is present,
// otherwise the template-only explainer.
func buildExplainer(model string, logger *log.Logger) *explain.Explainer {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		logger.Println("ANTHROPIC_API_KEY not set, explanations use the deterministic fallback")
		return explain.NewExplainer(nil, logger)
	}

	gen, err := llm.NewClaudeGenerator(llm.ClaudeOptions{APIKey: apiKey, Model: model})
	if err != nil {
		logger.Printf("Claude generator unavailable (%v), using fallback", err)
		return explain.NewExplainer(nil, logger)
	}
	return explain.NewExplainer(gen, logger)
}

// writeReports renders the run to markdown and CSV files.
func writeReports(ctx context.Context, store storage.ForecastStore, runID, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	report, err := reporting.NewGenerator(store).Generate(ctx, runID)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	mdPath := filepath.Join(outputDir, "FORECAST_REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}

	csvPath := filepath.Join(outputDir, "forecast_segments.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.Segments)), 0644); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	return nil
}
