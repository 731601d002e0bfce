// Package main runs the Monte Carlo loss simulation over a scored CSV.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"credit-risk-lab/internal/config"
	"credit-risk-lab/internal/dataset"
	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/montecarlo"
	"credit-risk-lab/internal/observability"
	"credit-risk-lab/internal/pipeline"
	"credit-risk-lab/internal/portfolio"
	"credit-risk-lab/internal/reporting"
	"credit-risk-lab/internal/scorecard"
	"credit-risk-lab/internal/storage"
)

func main() {
	input := flag.String("input", "", "Scored CSV produced by score or pipeline (required)")
	trials := flag.Int("trials", montecarlo.DefaultTrials, "Number of Monte Carlo trials")
	confidence := flag.String("confidence", "0.95,0.99", "Comma-separated confidence levels in (0,1)")
	seed := flag.Uint64("seed", montecarlo.DefaultSeed, "Random seed")
	workers := flag.Int("workers", 0, "Concurrent batches (0 = GOMAXPROCS)")
	batchSize := flag.Int("batch-size", montecarlo.DefaultBatchSize, "Trials per random substream")
	reportPath := flag.String("report", "", "Write a Markdown report to this path (optional)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse DSN to persist the run (optional)")
	pushgateway := flag.String("pushgateway", "", "Prometheus Pushgateway URL (optional)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: -input is required")
		flag.Usage()
		os.Exit(2)
	}

	logger, err := observability.NewLogger(observability.LogConfig{Level: *logLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	levels, err := parseLevels(*confidence)
	if err != nil {
		logger.WithError(err).Error("invalid -confidence")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := observability.NewMetrics(observability.DefaultNamespace)
	cfg := montecarlo.Config{
		Trials:           *trials,
		ConfidenceLevels: levels,
		Seed:             *seed,
		Workers:          *workers,
		BatchSize:        *batchSize,
	}
	run, err := simulate(ctx, logger, metrics, cfg, *input, *reportPath, *clickhouseDSN)

	if *pushgateway != "" {
		instance := ""
		if run != nil {
			instance = run.RunID
		}
		if err := metrics.Push(*pushgateway, config.DefaultJob, instance); err != nil {
			logger.WithError(err).Warn("push metrics")
		}
	}

	if err != nil {
		logger.WithError(err).Error("simulation failed")
		cancel()
		os.Exit(1)
	}

	fmt.Printf("Run %s (%d trials, %d applicants)\n", run.RunID, run.Trials, run.ApplicantCount)
	fmt.Printf("  Expected loss (closed form): %.2f\n", run.ExpectedLoss)
	fmt.Printf("  Mean simulated loss:         %.2f\n", run.MeanLoss)
	fmt.Printf("  Std dev:                     %.2f\n", run.StdDevLoss)
	for _, t := range run.Tail {
		fmt.Printf("  VaR %-6g %12.2f   ES %12.2f\n", t.Confidence, t.VaR, t.ES)
	}
}

func simulate(
	ctx context.Context,
	logger logrus.FieldLogger,
	metrics *observability.Metrics,
	cfg montecarlo.Config,
	input, reportPath, clickhouseDSN string,
) (*domain.SimulationRun, error) {
	start := time.Now()

	scored, err := dataset.ReadScored(input)
	if err != nil {
		return nil, err
	}

	// The scored file carries no LGD; re-derive the band from prob_default.
	sc := scorecard.Default()
	for _, s := range scored {
		if err := sc.Reconcile(s); err != nil {
			return nil, err
		}
	}

	engine, err := montecarlo.NewEngine(cfg, logger)
	if err != nil {
		return nil, err
	}
	run, err := engine.SimulateScored(ctx, scored)
	if err != nil {
		return nil, err
	}
	metrics.RecordSimulation(run, time.Since(start))

	if clickhouseDSN != "" {
		stores, err := pipeline.OpenStores(ctx, config.StorageConfig{ClickhouseDSN: clickhouseDSN}, logger)
		if err != nil {
			return nil, err
		}
		defer stores.Close()

		insertStart := time.Now()
		err = stores.Runs.Insert(ctx, run)
		metrics.RecordDBQuery(stores.SimulationBackend, "insert_run", time.Since(insertStart), err)
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("persist run: %w", err)
		}
	}

	if reportPath != "" {
		breakdown, err := portfolio.Aggregate(scored)
		if err != nil {
			return nil, err
		}
		report, err := reporting.Build(breakdown, run, sc)
		if err != nil {
			return nil, err
		}
		report.GeneratedAt = time.Now().UTC()
		report.Metadata = reporting.Metadata{Seed: cfg.Seed}
		if err := os.WriteFile(reportPath, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
			return nil, fmt.Errorf("write report: %w", err)
		}
		metrics.ReportsGenerated.Inc()
	}

	return run, nil
}

func parseLevels(s string) ([]float64, error) {
	var levels []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("confidence %q: %w", part, err)
		}
		levels = append(levels, v)
	}
	return levels, nil
}
