// Package main scores an applicant CSV against a PD model and prints the portfolio summary.
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
	input := flag.String("input", "", "Applicant CSV to score (required)")
	output := flag.String("output", "scored_applications.csv", "Scored CSV output path")
	modelRef := flag.String("model", config.DefaultModel, "Model reference: surrogate or coefficients YAML path")
	configPath := flag.String("config", "", "Path to YAML config file for label weights, storage and logging (optional)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL DSN to persist the scored batch (optional)")
	pushgateway := flag.String("pushgateway", "", "Prometheus Pushgateway URL (optional)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: -input is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *pushgateway != "" {
		cfg.Metrics.PushgatewayURL = *pushgateway
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := observability.NewMetrics(observability.DefaultNamespace)
	scorer := pipeline.NewBatchScorer(logger).
		WithLabelWeights(cfg.Labels).
		WithMetrics(metrics)

	// Scored rows only; simulation storage is not used here
	cfg.Storage.ClickhouseDSN = ""
	var stores *pipeline.Stores
	if cfg.Storage.PostgresDSN != "" {
		stores, err = pipeline.OpenStores(ctx, cfg.Storage, logger)
		if err != nil {
			logger.WithError(err).Error("open storage")
			os.Exit(1)
		}
		scorer = scorer.WithStore(stores.Scored, stores.TabularBackend)
	}

	res, runErr := scorer.Run(ctx, *input, *output, *modelRef)
	if stores != nil {
		stores.Close()
	}

	if cfg.Metrics.PushgatewayURL != "" {
		instance := ""
		if res != nil {
			instance = res.BatchID
		}
		if err := metrics.Push(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, instance); err != nil {
			logger.WithError(err).Warn("push metrics")
		}
	}

	if runErr != nil {
		logger.WithError(runErr).Error("scoring failed")
		cancel()
		os.Exit(1)
	}

	fmt.Printf("\nScored %d applications -> %s (batch %s)\n", len(res.Scored), *output, res.BatchID)
}
