package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"credit-risk-lab/internal/config"
	"credit-risk-lab/internal/dataset"
	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/idhash"
	"credit-risk-lab/internal/model"
	"credit-risk-lab/internal/montecarlo"
	"credit-risk-lab/internal/observability"
	"credit-risk-lab/internal/partition"
	"credit-risk-lab/internal/portfolio"
	"credit-risk-lab/internal/reporting"
	"credit-risk-lab/internal/scorecard"
	"credit-risk-lab/internal/storage"
	"credit-risk-lab/internal/synth"
)

// Output file names written by SyntheticPipeline.
const (
	TrainFile    = "train.csv"
	TestFile     = "test.csv"
	ScoredFile   = "scored_applications.csv"
	ReportFile   = "REPORT.md"
	TierFile     = "tier_breakdown.csv"
	PurposesFile = "purpose_breakdown.csv"
)

// SyntheticPipeline runs the full synthetic flow: generate, label, split,
// score the test split, aggregate, simulate, persist and report.
type SyntheticPipeline struct {
	cfg       *config.Config
	stores    *Stores
	scorecard *scorecard.Scorecard
	metrics   *observability.Metrics // optional
	logger    logrus.FieldLogger
	clock     func() time.Time
	newID     func() string
}

// SyntheticResult is the outcome of one pipeline execution.
type SyntheticResult struct {
	ExecutionID string
	DatasetHash string
	Applicants  []*domain.Applicant
	Partition   *partition.Partition
	Scored      []*domain.ScoredApplication
	Breakdown   *portfolio.Breakdown
	Run         *domain.SimulationRun
	Report      *reporting.Report
	Files       []string // written paths, in write order
}

// NewSyntheticPipeline creates a pipeline. A nil stores bundle uses memory stores.
func NewSyntheticPipeline(cfg *config.Config, stores *Stores, logger logrus.FieldLogger) *SyntheticPipeline {
	if stores == nil {
		stores = NewMemoryStores()
	}
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &SyntheticPipeline{
		cfg:       cfg,
		stores:    stores,
		scorecard: scorecard.Default(),
		logger:    logger,
		clock:     func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// WithMetrics records stage metrics.
func (p *SyntheticPipeline) WithMetrics(m *observability.Metrics) *SyntheticPipeline {
	p.metrics = m
	return p
}

// WithClock sets a custom clock function for deterministic output.
func (p *SyntheticPipeline) WithClock(clock func() time.Time) *SyntheticPipeline {
	p.clock = clock
	return p
}

// Run executes every stage. Any failure aborts the run.
func (p *SyntheticPipeline) Run(ctx context.Context) (*SyntheticResult, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(p.cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	res := &SyntheticResult{ExecutionID: p.newID()}
	modelName := p.cfg.Model
	log := p.logger.WithField("execution_id", res.ExecutionID)
	log.WithFields(logrus.Fields{"seed": p.cfg.Seed, "applicants": p.cfg.Generation.Applicants}).Info("pipeline started")

	// 1. Generate and label
	err := p.stage(log, "generate", func() error {
		gen := synth.NewFeatureSynthesizer(p.cfg.Generation.Features, p.cfg.Seed)
		applicants, err := gen.Generate(p.cfg.Generation.Applicants)
		if err != nil {
			return err
		}
		if _, err := synth.NewLabeler(p.cfg.Labels, p.cfg.Seed).Label(applicants); err != nil {
			return err
		}
		res.Applicants = applicants
		res.DatasetHash = idhash.ComputeDatasetHash(applicants)
		if p.metrics != nil {
			p.metrics.RecordGenerated(applicants)
		}
		return p.storeApplicants(ctx, log, res.DatasetHash, applicants)
	})
	if err != nil {
		return nil, err
	}

	// 2. Split and export
	err = p.stage(log, "split", func() error {
		part, err := partition.Split(res.Applicants, p.cfg.PartitionOptions())
		if err != nil {
			return err
		}
		res.Partition = part

		trainPath := p.path(TrainFile)
		if err := dataset.WriteApplicants(trainPath, part.Train, true); err != nil {
			return err
		}
		testPath := p.path(TestFile)
		if err := dataset.WriteApplicants(testPath, part.Test, true); err != nil {
			return err
		}
		res.Files = append(res.Files, trainPath, testPath)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 3. Score the held-out split
	err = p.stage(log, "score", func() error {
		m, err := model.Load(p.cfg.Model, p.cfg.Labels)
		if err != nil {
			return err
		}
		modelName = model.Describe(m, p.cfg.Model)
		scored, err := p.scorecard.ScoreAll(ctx, res.Partition.Test, m)
		if err != nil {
			return err
		}
		res.Scored = scored

		scoredPath := p.path(ScoredFile)
		if err := dataset.WriteScored(scoredPath, scored); err != nil {
			return err
		}
		res.Files = append(res.Files, scoredPath)

		if err := p.timedQuery(p.stores.TabularBackend, "insert_scored", func() error {
			return p.stores.Scored.InsertBulk(ctx, res.ExecutionID, scored)
		}); err != nil {
			return fmt.Errorf("persist scored batch: %w", err)
		}
		if p.metrics != nil {
			p.metrics.RecordScored(scored)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 4. Aggregate
	err = p.stage(log, "aggregate", func() error {
		b, err := portfolio.Aggregate(res.Scored)
		res.Breakdown = b
		return err
	})
	if err != nil {
		return nil, err
	}

	// 5. Simulate
	err = p.stage(log, "simulate", func() error {
		engine, err := montecarlo.NewEngine(p.cfg.MonteCarlo(), log)
		if err != nil {
			return err
		}
		start := time.Now()
		run, err := engine.SimulateScored(ctx, res.Scored)
		if err != nil {
			return err
		}
		res.Run = run
		if p.metrics != nil {
			p.metrics.RecordSimulation(run, time.Since(start))
		}
		return p.storeRun(ctx, log, run)
	})
	if err != nil {
		return nil, err
	}

	// 6. Report from the persisted batch
	err = p.stage(log, "report", func() error {
		gen := reporting.NewGenerator(p.stores.Scored, p.stores.Runs).
			WithClock(p.clock).
			WithScorecard(p.scorecard)
		report, err := gen.Generate(ctx, res.ExecutionID, res.Run.RunID)
		if err != nil {
			return err
		}
		report.Metadata = reporting.Metadata{
			BatchID:     res.ExecutionID,
			ExecutionID: res.ExecutionID,
			DatasetHash: res.DatasetHash,
			Model:       modelName,
			Seed:        p.cfg.Seed,
			Generated:   len(res.Applicants),
			TrainCount:  len(res.Partition.Train),
			TestCount:   len(res.Partition.Test),
		}
		res.Report = report

		outputs := []struct {
			name    string
			content string
		}{
			{ReportFile, reporting.RenderMarkdown(report)},
			{TierFile, reporting.RenderTierCSV(report)},
			{PurposesFile, reporting.RenderPurposeCSV(report)},
		}
		for _, o := range outputs {
			path := p.path(o.name)
			if err := os.WriteFile(path, []byte(o.content), 0644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			res.Files = append(res.Files, path)
		}
		if p.metrics != nil {
			p.metrics.ReportsGenerated.Inc()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithField("files", len(res.Files)).Info("pipeline complete")
	return res, nil
}

// stage runs one named step with logging and phase metrics.
func (p *SyntheticPipeline) stage(log logrus.FieldLogger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	if p.metrics != nil {
		p.metrics.RecordPipelineRun(name, err, elapsed)
	}

	entry := log.WithFields(logrus.Fields{"stage": name, "duration": elapsed})
	if err != nil {
		entry.WithError(err).Error("stage failed")
		return fmt.Errorf("%s: %w", name, err)
	}
	entry.Info("stage complete")
	return nil
}

// storeApplicants persists the generated dataset once per content hash.
func (p *SyntheticPipeline) storeApplicants(ctx context.Context, log logrus.FieldLogger, datasetID string, applicants []*domain.Applicant) error {
	existing, err := p.stores.Applicants.Count(ctx, datasetID)
	if err != nil {
		return fmt.Errorf("count dataset %s: %w", datasetID, err)
	}
	if existing > 0 {
		log.WithField("dataset_id", datasetID).Info("dataset already stored")
		return nil
	}
	return p.timedQuery(p.stores.TabularBackend, "insert_applicants", func() error {
		return p.stores.Applicants.InsertBulk(ctx, datasetID, applicants)
	})
}

// storeRun persists a run. Run ids are content hashes, so an existing id holds the same result.
func (p *SyntheticPipeline) storeRun(ctx context.Context, log logrus.FieldLogger, run *domain.SimulationRun) error {
	err := p.timedQuery(p.stores.SimulationBackend, "insert_run", func() error {
		return p.stores.Runs.Insert(ctx, run)
	})
	if errors.Is(err, storage.ErrDuplicateKey) {
		log.WithField("run_id", run.RunID).Info("simulation run already stored")
		return nil
	}
	return err
}

func (p *SyntheticPipeline) timedQuery(backend, op string, fn func() error) error {
	start := time.Now()
	err := fn()
	if p.metrics != nil {
		p.metrics.RecordDBQuery(backend, op, time.Since(start), err)
	}
	return err
}

func (p *SyntheticPipeline) path(name string) string {
	return filepath.Join(p.cfg.OutputDir, name)
}
