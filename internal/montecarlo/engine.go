// Package montecarlo estimates the portfolio loss distribution by simulating
// independent Bernoulli defaults per exposure.
package montecarlo

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/idhash"
	"credit-risk-lab/internal/rng"
	"credit-risk-lab/internal/stats"
)

// Defaults for Config fields left at zero.
const (
	DefaultTrials    = 10000
	DefaultSeed      = 42
	DefaultBatchSize = 1000
)

// DefaultConfidenceLevels are the tail levels reported when none are configured.
var DefaultConfidenceLevels = []float64{0.95, 0.99}

// DistributionGrid is the fixed percentile grid kept in every run summary.
var DistributionGrid = []float64{0.01, 0.05, 0.10, 0.25, 0.50, 0.75, 0.90, 0.95, 0.99, 0.999}

// Exposure is one loan as seen by the simulator.
type Exposure struct {
	CustomerID int64
	PD         float64 // [0,1]
	LGD        float64 // >= 0
	EAD        float64 // >= 0
}

// Config controls a simulation.
type Config struct {
	Trials           int
	ConfidenceLevels []float64
	Seed             uint64
	Workers          int // concurrent batches; does not affect results
	BatchSize        int // trials per random substream; part of the reproducibility contract
}

// DefaultConfig returns a config with default values.
func DefaultConfig() Config {
	return Config{
		Trials:           DefaultTrials,
		ConfidenceLevels: append([]float64(nil), DefaultConfidenceLevels...),
		Seed:             DefaultSeed,
		Workers:          runtime.GOMAXPROCS(0),
		BatchSize:        DefaultBatchSize,
	}
}

// Validate checks the config. Zero Workers/BatchSize are filled by NewEngine.
func (c Config) Validate() error {
	if c.Trials < 1 {
		return fmt.Errorf("%w: trials must be >= 1, got %d", domain.ErrInvalidArgument, c.Trials)
	}
	if len(c.ConfidenceLevels) == 0 {
		return fmt.Errorf("%w: at least one confidence level required", domain.ErrInvalidArgument)
	}
	for _, a := range c.ConfidenceLevels {
		if math.IsNaN(a) || a <= 0 || a >= 1 {
			return fmt.Errorf("%w: confidence level %v outside (0,1)", domain.ErrInvalidArgument, a)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", domain.ErrInvalidArgument, c.Workers)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("%w: batch size must be >= 0, got %d", domain.ErrInvalidArgument, c.BatchSize)
	}
	return nil
}

// Engine runs simulations. Safe for concurrent use; each call owns its state.
type Engine struct {
	cfg    Config
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewEngine validates cfg and returns an engine.
func NewEngine(cfg Config, logger logrus.FieldLogger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	levels := append([]float64(nil), cfg.ConfidenceLevels...)
	sort.Float64s(levels)
	cfg.ConfidenceLevels = levels

	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	return &Engine{cfg: cfg, logger: logger, now: time.Now}, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	cfg := e.cfg
	cfg.ConfidenceLevels = append([]float64(nil), e.cfg.ConfidenceLevels...)
	return cfg
}

// ExposuresFromScored converts scored applications into exposures with EAD = loan amount.
func ExposuresFromScored(scored []*domain.ScoredApplication) ([]Exposure, error) {
	out := make([]Exposure, len(scored))
	for i, s := range scored {
		if s == nil {
			return nil, fmt.Errorf("%w: nil scored application at index %d", domain.ErrInvalidArgument, i)
		}
		out[i] = Exposure{
			CustomerID: s.CustomerID,
			PD:         s.ProbDefault,
			LGD:        s.LGD,
			EAD:        s.LoanAmount,
		}
	}
	return out, nil
}

// SimulateScored runs the simulation over a scored batch.
func (e *Engine) SimulateScored(ctx context.Context, scored []*domain.ScoredApplication) (*domain.SimulationRun, error) {
	exposures, err := ExposuresFromScored(scored)
	if err != nil {
		return nil, err
	}
	return e.Simulate(ctx, exposures)
}

// Simulate runs the configured number of trials and summarises the loss distribution.
// The result is identical for any worker count. Cancellation returns ctx.Err() and no run.
func (e *Engine) Simulate(ctx context.Context, exposures []Exposure) (*domain.SimulationRun, error) {
	if err := validateExposures(exposures); err != nil {
		return nil, err
	}

	start := e.now()
	log := e.logger.WithFields(logrus.Fields{
		"stage":      "simulate",
		"applicants": len(exposures),
		"trials":     e.cfg.Trials,
		"workers":    e.cfg.Workers,
	})
	log.Debug("simulation started")

	losses, err := e.Losses(ctx, exposures)
	if err != nil {
		return nil, err
	}

	run := e.summarise(exposures, losses)
	run.CreatedAt = e.now().UTC()

	log.WithFields(logrus.Fields{
		"duration":      time.Since(start),
		"expected_loss": run.ExpectedLoss,
		"mean_loss":     run.MeanLoss,
	}).Info("simulation finished")

	return run, nil
}

// Losses returns the simulated loss for every trial, sorted ascending.
func (e *Engine) Losses(ctx context.Context, exposures []Exposure) ([]float64, error) {
	if err := validateExposures(exposures); err != nil {
		return nil, err
	}

	pd, severity := splitExposures(exposures)
	trials := e.cfg.Trials
	batch := e.cfg.BatchSize
	batches := (trials + batch - 1) / batch

	losses := make([]float64, trials)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for b := 0; b < batches; b++ {
		if gctx.Err() != nil {
			break
		}
		lo := b * batch
		hi := min(lo+batch, trials)
		idx := uint64(b)
		g.Go(func() error {
			return runBatch(gctx, e.cfg.Seed, idx, pd, severity, losses[lo:hi])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Float64s(losses)
	return losses, nil
}

// runBatch fills out with one loss per trial from the batch's own substream.
func runBatch(ctx context.Context, seed, index uint64, pd, severity []float64, out []float64) error {
	r := rand.New(rng.NewSub(seed, rng.StreamSimulation, index))
	for t := range out {
		if t%64 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		loss := 0.0
		for i, p := range pd {
			if r.Float64() < p {
				loss += severity[i]
			}
		}
		out[t] = loss
	}
	return nil
}

func (e *Engine) summarise(exposures []Exposure, sorted []float64) *domain.SimulationRun {
	n := len(sorted)
	mean := stats.Mean(sorted)

	expected := 0.0
	ids := make([]int64, len(exposures))
	pd := make([]float64, len(exposures))
	lgd := make([]float64, len(exposures))
	ead := make([]float64, len(exposures))
	for i, x := range exposures {
		expected += x.PD * x.LGD * x.EAD
		ids[i], pd[i], lgd[i], ead[i] = x.CustomerID, x.PD, x.LGD, x.EAD
	}

	tail := make([]domain.TailMetric, len(e.cfg.ConfidenceLevels))
	for i, a := range e.cfg.ConfidenceLevels {
		v := stats.Quantile(sorted, a)
		tail[i] = domain.TailMetric{Confidence: a, VaR: v, ES: stats.TailMean(sorted, v)}
	}

	dist := make([]domain.DistributionPoint, len(DistributionGrid))
	for i, p := range DistributionGrid {
		dist[i] = domain.DistributionPoint{Percentile: p, Loss: stats.Quantile(sorted, p)}
	}

	return &domain.SimulationRun{
		RunID: idhash.ComputeRunID(
			idhash.ComputeExposureHash(ids, pd, lgd, ead),
			e.cfg.Seed, e.cfg.Trials, e.cfg.BatchSize, e.cfg.ConfidenceLevels,
		),
		Trials:         e.cfg.Trials,
		Workers:        e.cfg.Workers,
		BatchSize:      e.cfg.BatchSize,
		Seed:           e.cfg.Seed,
		ApplicantCount: len(exposures),
		ExpectedLoss:   expected,
		MeanLoss:       mean,
		StdDevLoss:     stats.Stddev(sorted, mean),
		MinLoss:        sorted[0],
		MaxLoss:        sorted[n-1],
		Tail:           tail,
		Distribution:   dist,
	}
}

func splitExposures(exposures []Exposure) (pd, severity []float64) {
	pd = make([]float64, len(exposures))
	severity = make([]float64, len(exposures))
	for i, x := range exposures {
		pd[i] = x.PD
		severity[i] = x.LGD * x.EAD
	}
	return pd, severity
}

func validateExposures(exposures []Exposure) error {
	if len(exposures) == 0 {
		return fmt.Errorf("%w: no exposures to simulate", domain.ErrInvalidArgument)
	}
	for _, x := range exposures {
		if math.IsNaN(x.PD) || x.PD < 0 || x.PD > 1 {
			return fmt.Errorf("%w: customer %d: pd %v outside [0,1]", domain.ErrInvalidArgument, x.CustomerID, x.PD)
		}
		if math.IsNaN(x.LGD) || x.LGD < 0 {
			return fmt.Errorf("%w: customer %d: negative lgd %v", domain.ErrInvalidArgument, x.CustomerID, x.LGD)
		}
		if math.IsNaN(x.EAD) || x.EAD < 0 {
			return fmt.Errorf("%w: customer %d: negative ead %v", domain.ErrInvalidArgument, x.CustomerID, x.EAD)
		}
	}
	return nil
}
