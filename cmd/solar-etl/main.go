package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"pvplant/internal/config"
	"pvplant/internal/log"
	"pvplant/internal/metrics"
	"pvplant/internal/pipeline"
	"pvplant/internal/quality"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (default $PVPLANT_CONFIG or built-in)")
	dataDir := flag.String("data-dir", "", "override directory holding the source CSV files")
	outputDir := flag.String("output-dir", "", "override output directory")
	logLevel := flag.String("log-level", "", "override log level (debug, info, warn, error)")
	withSQLite := flag.Bool("sqlite", false, "also write a SQLite database")
	withXLSX := flag.Bool("xlsx", false, "also write an XLSX workbook of daily aggregates")
	withMetrics := flag.Bool("metrics", false, "write run metrics to metrics.prom in the output directory")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := log.Ctx(ctx)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	cfg.Output.Formats.SQLite = cfg.Output.Formats.SQLite || *withSQLite
	cfg.Output.Formats.XLSX = cfg.Output.Formats.XLSX || *withXLSX
	cfg.Output.MetricsTextfile = cfg.Output.MetricsTextfile || *withMetrics
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	log.SetDefaultLogLevel(level)

	res, err := pipeline.Run(ctx, cfg, metrics.NewRun())
	if err != nil {
		fmt.Fprintf(os.Stderr, "solar-etl: %v\n", err)
		os.Exit(1)
	}

	printSummary(res)
}

func printSummary(res pipeline.Result) {
	rep := res.Bundle.Report

	fmt.Println()
	fmt.Println("PV Plant ETL")
	fmt.Printf("  Run: %s\n", res.RunID)
	fmt.Println()

	fmt.Printf("   %-22s │ %-10s │ %-11s │ %8s\n", "Source", "Kind", "Dates", "Rows")
	fmt.Printf("  ────────────────────────┼────────────┼─────────────┼─────────\n")
	for _, s := range rep.Sources {
		fmt.Printf("   %-22s │ %-10s │ %-11s │ %8d\n", s.Name, s.Kind, s.Dates, s.Rows)
	}
	fmt.Println()

	fmt.Printf("  Joined:  %d rows   Dropped (no weather): %d   Unified: %d\n", rep.Join.Joined, rep.Join.Dropped, rep.UnifiedRows)
	fmt.Printf("  Daily:   %d rows x %d columns\n", rep.DailyRows, len(rep.DailyColumns))
	fmt.Println()

	if len(rep.AnomalyCount) > 0 {
		fmt.Println("  Anomalies:")
		kinds := make([]quality.Kind, 0, len(rep.AnomalyCount))
		for k := range rep.AnomalyCount {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
		for _, k := range kinds {
			fmt.Printf("    %-22s %5d\n", k, rep.AnomalyCount[k])
		}
		fmt.Println()
	}

	fmt.Println("  Files:")
	for _, f := range res.Files {
		fmt.Printf("    %s\n", f)
	}
	fmt.Println()
}
