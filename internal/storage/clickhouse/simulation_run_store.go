package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"credit-risk-lab/internal/domain"
	"credit-risk-lab/internal/storage"
)

// SimulationRunStore implements storage.SimulationRunStore using ClickHouse.
type SimulationRunStore struct {
	conn *Conn
}

// NewSimulationRunStore creates a new SimulationRunStore.
func NewSimulationRunStore(conn *Conn) *SimulationRunStore {
	return &SimulationRunStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SimulationRunStore = (*SimulationRunStore)(nil)

const runColumns = `
	run_id, trials, workers, batch_size, seed, applicant_count,
	expected_loss, mean_loss, stddev_loss, min_loss, max_loss,
	tail_confidence, tail_var, tail_es,
	dist_percentile, dist_loss,
	created_at`

// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
func (s *SimulationRunStore) Insert(ctx context.Context, run *domain.SimulationRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	// ReplacingMergeTree would silently replace; keep append-only semantics.
	exists, err := s.exists(ctx, run.RunID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	conf := make([]float64, len(run.Tail))
	vars := make([]float64, len(run.Tail))
	es := make([]float64, len(run.Tail))
	for i, t := range run.Tail {
		conf[i], vars[i], es[i] = t.Confidence, t.VaR, t.ES
	}
	pct := make([]float64, len(run.Distribution))
	loss := make([]float64, len(run.Distribution))
	for i, p := range run.Distribution {
		pct[i], loss[i] = p.Percentile, p.Loss
	}

	query := `INSERT INTO simulation_runs (` + runColumns + `) VALUES (
		?, ?, ?, ?, ?, ?,
		?, ?, ?, ?, ?,
		?, ?, ?,
		?, ?,
		?
	)`

	err = s.conn.Exec(ctx, query,
		run.RunID, uint32(run.Trials), uint32(run.Workers), uint32(run.BatchSize), run.Seed, uint32(run.ApplicantCount),
		run.ExpectedLoss, run.MeanLoss, run.StdDevLoss, run.MinLoss, run.MaxLoss,
		conf, vars, es,
		pct, loss,
		run.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert simulation run: %w", err)
	}
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *SimulationRunStore) GetByID(ctx context.Context, runID string) (*domain.SimulationRun, error) {
	query := `SELECT` + runColumns + `
		FROM simulation_runs FINAL
		WHERE run_id = ?
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query simulation run: %w", err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, storage.ErrNotFound
	}
	return runs[0], nil
}

// GetAll retrieves all runs, ordered by created_at ASC, run_id ASC.
func (s *SimulationRunStore) GetAll(ctx context.Context) ([]*domain.SimulationRun, error) {
	query := `SELECT` + runColumns + `
		FROM simulation_runs FINAL
		ORDER BY created_at ASC, run_id ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query simulation runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

func (s *SimulationRunStore) exists(ctx context.Context, runID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count() FROM simulation_runs WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRuns(rows rowScanner) ([]*domain.SimulationRun, error) {
	var result []*domain.SimulationRun
	for rows.Next() {
		var (
			run                                domain.SimulationRun
			trials, workers, batch, applicants uint32
			conf, vars, es, pct, loss          []float64
			created                            time.Time
		)
		err := rows.Scan(
			&run.RunID, &trials, &workers, &batch, &run.Seed, &applicants,
			&run.ExpectedLoss, &run.MeanLoss, &run.StdDevLoss, &run.MinLoss, &run.MaxLoss,
			&conf, &vars, &es,
			&pct, &loss,
			&created,
		)
		if err != nil {
			return nil, fmt.Errorf("scan simulation run: %w", err)
		}
		if len(conf) != len(vars) || len(conf) != len(es) || len(pct) != len(loss) {
			return nil, errors.New("scan simulation run: array length mismatch")
		}

		run.Trials = int(trials)
		run.Workers = int(workers)
		run.BatchSize = int(batch)
		run.ApplicantCount = int(applicants)
		run.CreatedAt = created.UTC()

		run.Tail = make([]domain.TailMetric, len(conf))
		for i := range conf {
			run.Tail[i] = domain.TailMetric{Confidence: conf[i], VaR: vars[i], ES: es[i]}
		}
		run.Distribution = make([]domain.DistributionPoint, len(pct))
		for i := range pct {
			run.Distribution[i] = domain.DistributionPoint{Percentile: pct[i], Loss: loss[i]}
		}

		result = append(result, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate simulation runs: %w", err)
	}
	return result, nil
}
