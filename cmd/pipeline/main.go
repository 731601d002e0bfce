// Package main runs the full synthetic pipeline:
// generate → label → split → score → aggregate → simulate → report
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"credit-risk-lab/internal/config"
	"credit-risk-lab/internal/observability"
	"credit-risk-lab/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	outputDir := flag.String("output-dir", config.DefaultOutputDir, "Output directory for generated files")
	seed := flag.Uint64("seed", config.DefaultSeed, "Random seed")
	applicants := flag.Int("n", config.DefaultApplicants, "Number of synthetic applicants")
	trials := flag.Int("trials", 0, "Monte Carlo trials (0 keeps config value)")
	workers := flag.Int("workers", 0, "Monte Carlo workers (0 keeps config value)")
	modelRef := flag.String("model", config.DefaultModel, "Model reference: surrogate or coefficients YAML path")
	stratify := flag.Bool("stratify", false, "Stratify the train/test split by default label")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL DSN for applicant and scored storage (optional)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse DSN for simulation runs (optional)")
	pushgateway := flag.String("pushgateway", "", "Prometheus Pushgateway URL (optional)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (text, json)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags given explicitly override file values
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output-dir":
			cfg.OutputDir = *outputDir
		case "seed":
			cfg.Seed = *seed
		case "n":
			cfg.Generation.Applicants = *applicants
		case "trials":
			cfg.Simulation.Trials = *trials
		case "workers":
			cfg.Simulation.Workers = *workers
		case "model":
			cfg.Model = *modelRef
		case "stratify":
			cfg.Split.Stratify = *stratify
		case "postgres-dsn":
			cfg.Storage.PostgresDSN = *postgresDSN
		case "clickhouse-dsn":
			cfg.Storage.ClickhouseDSN = *clickhouseDSN
		case "pushgateway":
			cfg.Metrics.PushgatewayURL = *pushgateway
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-format":
			cfg.Logging.Format = *logFormat
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.WithField("signal", sig.String()).Warn("cancelling pipeline")
		cancel()
	}()

	stores, err := pipeline.OpenStores(ctx, cfg.Storage, logger)
	if err != nil {
		logger.WithError(err).Error("open storage")
		os.Exit(1)
	}
	defer stores.Close()

	metrics := observability.NewMetrics(observability.DefaultNamespace)
	res, runErr := pipeline.NewSyntheticPipeline(cfg, stores, logger).WithMetrics(metrics).Run(ctx)

	if cfg.Metrics.PushgatewayURL != "" {
		instance := ""
		if res != nil {
			instance = res.ExecutionID
		}
		if err := metrics.Push(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, instance); err != nil {
			logger.WithError(err).Warn("push metrics")
		}
	}

	if runErr != nil {
		logger.WithError(runErr).Error("pipeline failed")
		stores.Close()
		os.Exit(1)
	}

	fmt.Printf("Pipeline %s completed:\n", res.ExecutionID)
	fmt.Printf("  Applicants: %d (train %d, test %d)\n", len(res.Applicants), len(res.Partition.Train), len(res.Partition.Test))
	fmt.Printf("  Dataset: %s\n", res.DatasetHash)
	fmt.Printf("  Simulation run: %s\n", res.Run.RunID)
	for _, t := range res.Run.Tail {
		fmt.Printf("  VaR %.4g: %.2f  ES: %.2f\n", t.Confidence, t.VaR, t.ES)
	}
	fmt.Println("Files:")
	for _, f := range res.Files {
		fmt.Printf("  - %s\n", f)
	}
}
