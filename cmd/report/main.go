// Package main renders stored forecast runs to Markdown and CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"revenue-forecast-lab/internal/reporting"
	pgstore "revenue-forecast-lab/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	runID := flag.String("run-id", "", "Forecast run to render (empty = latest)")
	outputDir := flag.String("output-dir", "output", "Output directory for reports")
	format := flag.String("format", "all", "Report format: markdown, csv, or all")
	flag.Parse()

	logger := log.New(os.Stdout, "[report] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}
	if *format != "markdown" && *format != "csv" && *format != "all" {
		logger.Fatalf("unknown format %q (expected markdown, csv, or all)", *format)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	report, err := reporting.NewGenerator(pgstore.NewForecastStore(pool)).Generate(ctx, *runID)
	if err != nil {
		logger.Fatalf("Failed to generate report: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		logger.Fatalf("Failed to create output directory: %v", err)
	}

	if *format == "markdown" || *format == "all" {
		path := filepath.Join(*outputDir, "FORECAST_REPORT.md")
		if err := os.WriteFile(path, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
			logger.Fatalf("Failed to write markdown report: %v", err)
		}
		fmt.Printf("Wrote %s\n", path)
	}

	if *format == "csv" || *format == "all" {
		path := filepath.Join(*outputDir, "forecast_segments.csv")
		if err := os.WriteFile(path, []byte(reporting.RenderCSV(report.Segments)), 0644); err != nil {
			logger.Fatalf("Failed to write csv report: %v", err)
		}
		fmt.Printf("Wrote %s\n", path)
	}

	logger.Printf("Report for run %s (%d segments) rendered", report.RunID, report.SegmentCount)
}
