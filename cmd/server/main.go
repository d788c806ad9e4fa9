// Package main provides the scheduled forecast service:
// - Forecast runs (scheduled): load inputs → scenarios → explanations → persist
// - Reporting (scheduled): FORECAST_REPORT.md + forecast_segments.csv
// - HTTP: /healthz, /metrics, /status
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"revenue-forecast-lab/internal/explain"
	"revenue-forecast-lab/internal/llm"
	"revenue-forecast-lab/internal/observability"
	"revenue-forecast-lab/internal/orchestrator"
	"revenue-forecast-lab/internal/reporting"
	"revenue-forecast-lab/internal/storage"
	chstore "revenue-forecast-lab/internal/storage/clickhouse"
	"revenue-forecast-lab/internal/storage/memory"
	"revenue-forecast-lab/internal/storage/migrations"
	pgstore "revenue-forecast-lab/internal/storage/postgres"
)

// Server holds all components of the forecast service.
type Server struct {
	// Configuration
	outputDir        string
	forecastInterval time.Duration
	reportInterval   time.Duration
	lookbackDays     int

	// Stores
	stores *serverStores

	// Components
	explainer *explain.Explainer
	logger    *log.Logger

	// State
	mu              sync.Mutex
	lastForecastRun time.Time
	lastReportRun   time.Time
	lastRunID       string
	forecastRunning bool
	reportRunning   bool
	started         time.Time

	// Stats
	forecastRuns int
	reportRuns   int
}

// serverStores holds all storage implementations.
type serverStores struct {
	observationStore storage.FunnelObservationStore
	scoreStore       storage.AccountScoreStore
	kpiStore         storage.RepKPIStore
	forecastStore    storage.ForecastStore
	tunablesStore    storage.TunablesStore
}

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of live databases")
	anthropicModel := flag.String("anthropic-model", os.Getenv("ANTHROPIC_MODEL"), "Claude model for deal explanations")
	outputDir := flag.String("output-dir", "output", "Output directory for reports")
	forecastInterval := flag.Duration("forecast-interval", 6*time.Hour, "Forecast run interval")
	reportInterval := flag.Duration("report-interval", 6*time.Hour, "Report generation interval")
	lookbackDays := flag.Int("lookback-days", 90, "Observation window in days")
	httpAddr := flag.String("http-addr", ":9090", "HTTP address for health/metrics/status")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	server := &Server{
		outputDir:        *outputDir,
		forecastInterval: *forecastInterval,
		reportInterval:   *reportInterval,
		lookbackDays:     *lookbackDays,
		stores:           stores,
		explainer:        buildExplainer(*anthropicModel, logger),
		logger:           logger,
		started:          time.Now(),
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Start HTTP server
	go server.startHTTPServer(*httpAddr)

	// Run the service
	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates memory or live stores, running migrations for live ones.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*serverStores, func(), error) {
	if useMemory {
		stores := &serverStores{
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

	stores := &serverStores{
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

// Run starts the schedulers and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting forecast service...")

	// Uptime counter
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.DefaultMetrics.UptimeSeconds.Inc()
			}
		}
	}()

	errCh := make(chan error, 2)

	// Start forecast scheduler in background
	go func() {
		err := s.runForecastScheduler(ctx)
		if err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("forecast scheduler: %w", err)
		}
	}()

	// Start report scheduler in background
	go func() {
		err := s.runReportScheduler(ctx)
		if err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("report scheduler: %w", err)
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// runForecastScheduler runs forecasts on schedule.
func (s *Server) runForecastScheduler(ctx context.Context) error {
	s.logger.Printf("Starting forecast scheduler (interval: %v)...", s.forecastInterval)

	// Run immediately on start
	s.runForecast(ctx)

	ticker := time.NewTicker(s.forecastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runForecast(ctx)
		}
	}
}

// runForecast executes one forecast run.
func (s *Server) runForecast(ctx context.Context) {
	s.mu.Lock()
	if s.forecastRunning {
		s.mu.Unlock()
		s.logger.Println("Forecast already running, skipping...")
		return
	}
	s.forecastRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.forecastRunning = false
		s.lastForecastRun = time.Now()
		s.forecastRuns++
		s.mu.Unlock()
	}()

	s.logger.Println("Running forecast...")
	start := time.Now()

	orch := orchestrator.New(orchestrator.Options{
		ObservationStore: s.stores.observationStore,
		ScoreStore:       s.stores.scoreStore,
		KPIStore:         s.stores.kpiStore,
		ForecastStore:    s.stores.forecastStore,
		TunablesStore:    s.stores.tunablesStore,
		Explainer:        s.explainer,
		LookbackDays:     s.lookbackDays,
		Verbose:          true,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		s.logger.Printf("Forecast error: %v", err)
		return
	}

	s.mu.Lock()
	s.lastRunID = result.RunID
	s.mu.Unlock()

	s.logger.Printf("Forecast completed in %v: run %s, %d segments, %d explanations (fallback=%t)",
		time.Since(start), result.RunID, result.SegmentsCreated, result.ExplanationsCreated, result.UsedFallback)
}

// runReportScheduler runs report generation on schedule.
func (s *Server) runReportScheduler(ctx context.Context) error {
	s.logger.Printf("Starting report scheduler (interval: %v)...", s.reportInterval)

	// Let the first forecast land before rendering anything
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(1 * time.Minute):
	}

	s.runReport(ctx)

	ticker := time.NewTicker(s.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runReport(ctx)
		}
	}
}

// runReport renders the latest run to the output directory.
func (s *Server) runReport(ctx context.Context) {
	s.mu.Lock()
	if s.reportRunning {
		s.mu.Unlock()
		s.logger.Println("Report generation already running, skipping...")
		return
	}
	s.reportRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.reportRunning = false
		s.lastReportRun = time.Now()
		s.reportRuns++
		s.mu.Unlock()
	}()

	s.logger.Println("Generating reports...")
	start := time.Now()

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		s.logger.Printf("Failed to create output directory: %v", err)
		return
	}

	report, err := reporting.NewGenerator(s.stores.forecastStore).Generate(ctx, "")
	if err != nil {
		s.logger.Printf("Report generation error: %v", err)
		return
	}

	mdPath := filepath.Join(s.outputDir, "FORECAST_REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
		s.logger.Printf("Failed to write markdown report: %v", err)
		return
	}

	csvPath := filepath.Join(s.outputDir, "forecast_segments.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.Segments)), 0644); err != nil {
		s.logger.Printf("Failed to write csv report: %v", err)
		return
	}

	s.logger.Printf("Reports for run %s generated in %v to %s/", report.RunID, time.Since(start), s.outputDir)
}

// startHTTPServer starts the HTTP server for health/metrics/status.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status          string    `json:"status"`
	Uptime          string    `json:"uptime"`
	LastForecastRun time.Time `json:"last_forecast_run,omitempty"`
	LastReportRun   time.Time `json:"last_report_run,omitempty"`
	LastRunID       string    `json:"last_run_id,omitempty"`
	ForecastRuns    int       `json:"forecast_runs"`
	ReportRuns      int       `json:"report_runs"`
	ForecastRunning bool      `json:"forecast_running"`
	ReportRunning   bool      `json:"report_running"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.started).String(),
		LastForecastRun: s.lastForecastRun,
		LastReportRun:   s.lastReportRun,
		LastRunID:       s.lastRunID,
		ForecastRuns:    s.forecastRuns,
		ReportRuns:      s.reportRuns,
		ForecastRunning: s.forecastRunning,
		ReportRunning:   s.reportRunning,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
