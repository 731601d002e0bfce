// Package config loads the optional YAML run configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/montecarlo"
	"credit-risk-lab/internal/observability"
	"credit-risk-lab/internal/partition"
	"credit-risk-lab/internal/synth"
)

// Defaults
const (
	DefaultApplicants = 10000
	DefaultSeed       = 42
	DefaultModel      = "surrogate"
	DefaultOutputDir  = "output"
	DefaultJob        = "credit_risk_lab"
)

// Config is the full run configuration. Every section has usable defaults.
type Config struct {
	Seed      uint64 `yaml:"seed"`
	OutputDir string `yaml:"output_dir"`
	Model     string `yaml:"model"` // "surrogate" or a coefficients file path

	Generation GenerationConfig        `yaml:"generation"`
	Labels     synth.LabelWeights      `yaml:"labels"`
	Split      SplitConfig             `yaml:"split"`
	Simulation SimulationConfig        `yaml:"simulation"`
	Storage    StorageConfig           `yaml:"storage"`
	Logging    observability.LogConfig `yaml:"logging"`
	Metrics    MetricsConfig           `yaml:"metrics"`
}

// GenerationConfig controls the synthetic dataset.
type GenerationConfig struct {
	Applicants int                 `yaml:"applicants"`
	Features   synth.FeatureParams `yaml:"features"`
}

// SplitConfig controls the train/test partition.
type SplitConfig struct {
	TrainFraction float64 `yaml:"train_fraction"`
	Stratify      bool    `yaml:"stratify"`
}

// SimulationConfig controls the Monte Carlo engine.
type SimulationConfig struct {
	Trials           int       `yaml:"trials"`
	ConfidenceLevels []float64 `yaml:"confidence_levels"`
	Workers          int       `yaml:"workers"`    // 0 means GOMAXPROCS
	BatchSize        int       `yaml:"batch_size"` // 0 means default
}

// StorageConfig selects optional persistent stores. Empty DSNs mean in-memory.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// MetricsConfig configures the Pushgateway. An empty URL disables pushing.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Seed:      DefaultSeed,
		OutputDir: DefaultOutputDir,
		Model:     DefaultModel,
		Generation: GenerationConfig{
			Applicants: DefaultApplicants,
			Features:   synth.DefaultFeatureParams(),
		},
		Labels: synth.DefaultLabelWeights(),
		Split: SplitConfig{
			TrainFraction: partition.DefaultTrainFraction,
		},
		Simulation: SimulationConfig{
			Trials:           montecarlo.DefaultTrials,
			ConfidenceLevels: append([]float64(nil), montecarlo.DefaultConfidenceLevels...),
			BatchSize:        montecarlo.DefaultBatchSize,
		},
		Logging: observability.LogConfig{Level: "info", Format: observability.FormatText},
		Metrics: MetricsConfig{Job: DefaultJob},
	}
}

// Load reads a YAML file over the defaults and validates the result.
// Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: config file %s", domain.ErrMissingResource, path)
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parse yaml: %v", domain.ErrInvalidArgument, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no stage could run with.
func (c *Config) Validate() error {
	if c.Generation.Applicants <= 0 {
		return invalid("generation.applicants must be positive, got %d", c.Generation.Applicants)
	}
	if !(c.Split.TrainFraction > 0 && c.Split.TrainFraction < 1) {
		return invalid("split.train_fraction must be in (0,1), got %v", c.Split.TrainFraction)
	}
	if c.Model == "" {
		return invalid("model is required")
	}
	if c.Labels.NoiseStdDev < 0 {
		return invalid("labels.noise_stddev must be non-negative, got %v", c.Labels.NoiseStdDev)
	}
	if err := c.MonteCarlo().Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if c.Metrics.PushgatewayURL != "" && c.Metrics.Job == "" {
		return invalid("metrics.job is required when pushgateway_url is set")
	}
	return nil
}

// MonteCarlo converts the simulation section into an engine config.
func (c *Config) MonteCarlo() montecarlo.Config {
	return montecarlo.Config{
		Trials:           c.Simulation.Trials,
		ConfidenceLevels: append([]float64(nil), c.Simulation.ConfidenceLevels...),
		Seed:             c.Seed,
		Workers:          c.Simulation.Workers,
		BatchSize:        c.Simulation.BatchSize,
	}
}

// PartitionOptions converts the split section into partition options.
func (c *Config) PartitionOptions() partition.Options {
	return partition.Options{
		TrainFraction: c.Split.TrainFraction,
		Seed:          c.Seed,
		Stratify:      c.Split.Stratify,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidArgument}, args...)...)
}
