// Package main generates a synthetic labeled applicant dataset and optionally splits it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"credit-risk-lab/internal/config"
	"credit-risk-lab/internal/dataset"
	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/idhash"
	"credit-risk-lab/internal/observability"
	"credit-risk-lab/internal/partition"
	"credit-risk-lab/internal/pipeline"
	"credit-risk-lab/internal/synth"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	n := flag.Int("n", 0, "Number of applicants (0 keeps config value)")
	seed := flag.Uint64("seed", config.DefaultSeed, "Random seed")
	output := flag.String("output", "applicants.csv", "Output CSV path for the full dataset")
	unlabeled := flag.Bool("unlabeled", false, "Omit the default column")
	split := flag.Bool("split", false, "Also write train.csv and test.csv next to -output")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL DSN to persist the dataset (optional)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
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
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			cfg.Seed = *seed
		}
	})
	if *n != 0 {
		cfg.Generation.Applicants = *n
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	applicants, err := synth.NewFeatureSynthesizer(cfg.Generation.Features, cfg.Seed).Generate(cfg.Generation.Applicants)
	if err != nil {
		logger.WithError(err).Error("generate")
		os.Exit(1)
	}
	draws, err := synth.NewLabeler(cfg.Labels, cfg.Seed).Label(applicants)
	if err != nil {
		logger.WithError(err).Error("label")
		os.Exit(1)
	}

	defaults := 0
	for _, d := range draws {
		if d.Default {
			defaults++
		}
	}
	datasetID := idhash.ComputeDatasetHash(applicants)
	logger.WithField("stage", "generate").
		WithField("applicants", len(applicants)).
		WithField("defaults", defaults).
		WithField("dataset_id", datasetID).
		WithField("duration", time.Since(start)).
		Info("dataset generated")

	if err := dataset.WriteApplicants(*output, applicants, !*unlabeled); err != nil {
		logger.WithError(err).Error("write dataset")
		os.Exit(1)
	}
	written := []string{*output}

	if *split {
		part, err := partition.Split(applicants, cfg.PartitionOptions())
		if err != nil {
			logger.WithError(err).Error("split")
			os.Exit(1)
		}
		dir := filepath.Dir(*output)
		subsets := []struct {
			name string
			rows []*domain.Applicant
		}{
			{pipeline.TrainFile, part.Train},
			{pipeline.TestFile, part.Test},
		}
		for _, sub := range subsets {
			path := filepath.Join(dir, sub.name)
			if err := dataset.WriteApplicants(path, sub.rows, !*unlabeled); err != nil {
				logger.WithError(err).Error("write split")
				os.Exit(1)
			}
			written = append(written, path)
		}
	}

	if cfg.Storage.PostgresDSN != "" {
		ctx := context.Background()
		stores, err := pipeline.OpenStores(ctx, config.StorageConfig{PostgresDSN: cfg.Storage.PostgresDSN}, logger)
		if err != nil {
			logger.WithError(err).Error("open storage")
			os.Exit(1)
		}
		count, err := stores.Applicants.Count(ctx, datasetID)
		if err == nil && count == 0 {
			err = stores.Applicants.InsertBulk(ctx, datasetID, applicants)
		}
		stores.Close()
		if err != nil {
			logger.WithError(err).Error("persist dataset")
			os.Exit(1)
		}
	}

	fmt.Printf("Generated %d applicants (%d defaults, %.2f%%), dataset %s\n",
		len(applicants), defaults, 100*float64(defaults)/float64(len(applicants)), datasetID)
	for _, p := range written {
		fmt.Printf("  - %s\n", p)
	}
}
