package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"credit-risk-lab/internal/config"
	"credit-risk-lab/internal/storage"
	chstore "credit-risk-lab/internal/storage/clickhouse"
	"credit-risk-lab/internal/storage/memory"
	"credit-risk-lab/internal/storage/migrations"
	pgstore "credit-risk-lab/internal/storage/postgres"
)

// Storage backend names, used as the database label on query metrics.
const (
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendClickhouse = "clickhouse"
)

// Stores bundles the persistence used by a pipeline run.
type Stores struct {
	Applicants storage.ApplicantStore
	Scored     storage.ScoredApplicationStore
	Runs       storage.SimulationRunStore

	// Backend names per store, for logging and metrics.
	TabularBackend    string
	SimulationBackend string

	closers []func()
}

// NewMemoryStores returns in-memory stores.
func NewMemoryStores() *Stores {
	return &Stores{
		Applicants:        memory.NewApplicantStore(),
		Scored:            memory.NewScoredApplicationStore(),
		Runs:              memory.NewSimulationRunStore(),
		TabularBackend:    BackendMemory,
		SimulationBackend: BackendMemory,
	}
}

// OpenStores connects the configured backends and applies migrations.
// Applicants and scored rows go to Postgres, simulation runs to ClickHouse;
// any backend without a DSN falls back to memory.
func OpenStores(ctx context.Context, cfg config.StorageConfig, logger logrus.FieldLogger) (*Stores, error) {
	s := NewMemoryStores()

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)

		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		logger.WithField("migrations", applied).Info("postgres ready")

		s.Applicants = pgstore.NewApplicantStore(pool)
		s.Scored = pgstore.NewScoredApplicationStore(pool)
		s.TabularBackend = BackendPostgres
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		s.closers = append(s.closers, func() { _ = conn.Close() })
		logger.Info("clickhouse ready")

		s.Runs = chstore.NewSimulationRunStore(conn)
		s.SimulationBackend = BackendClickhouse
	}

	return s, nil
}

// Close releases backend connections in reverse order of opening.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
