// Package observability provides logging setup and Prometheus metrics for batch runs.
package observability

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"credit-risk-lab/internal/domain"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "credit_risk_lab"

// Metrics holds all Prometheus metrics for a batch run on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// Generation metrics
	ApplicantsGenerated prometheus.Counter
	DefaultsLabeled     prometheus.Counter

	// Scoring metrics
	ApplicationsScored *prometheus.CounterVec
	ScoringErrors      prometheus.Counter

	// Simulation metrics
	TrialsSimulated    prometheus.Counter
	SimulationDuration prometheus.Histogram
	ExpectedLoss       prometheus.Gauge
	ValueAtRisk        *prometheus.GaugeVec
	ExpectedShortfall  *prometheus.GaugeVec

	// Pipeline metrics
	PipelineRunsTotal      *prometheus.CounterVec
	PipelineDuration       *prometheus.HistogramVec
	ReportsGenerated       prometheus.Counter
	LastSuccessfulPipeline prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with all metrics registered on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ApplicantsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "applicants_total",
			Help:      "Total number of synthetic applicants generated",
		}),
		DefaultsLabeled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "defaults_total",
			Help:      "Total number of applicants labeled as defaulted",
		}),

		ApplicationsScored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "applications_total",
			Help:      "Total number of applications scored by risk tier",
		}, []string{"tier"}),
		ScoringErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "errors_total",
			Help:      "Total number of scoring batches aborted by an error",
		}),

		TrialsSimulated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trials_total",
			Help:      "Total number of Monte Carlo trials run",
		}),
		SimulationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "duration_seconds",
			Help:      "Monte Carlo run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
		ExpectedLoss: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "expected_loss",
			Help:      "Closed-form expected loss of the last simulated portfolio",
		}),
		ValueAtRisk: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "value_at_risk",
			Help:      "Simulated value at risk by confidence level",
		}, []string{"confidence"}),
		ExpectedShortfall: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "expected_shortfall",
			Help:      "Simulated expected shortfall by confidence level",
		}, []string{"confidence"}),

		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"phase", "status"}),
		PipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline phase duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"phase"}),
		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),
		LastSuccessfulPipeline: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Registry exposes the private registry, e.g. for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordGenerated counts a generated, labeled batch.
func (m *Metrics) RecordGenerated(applicants []*domain.Applicant) {
	m.ApplicantsGenerated.Add(float64(len(applicants)))
	defaults := 0
	for _, a := range applicants {
		if a.Default {
			defaults++
		}
	}
	m.DefaultsLabeled.Add(float64(defaults))
}

// RecordScored counts scored applications per tier.
func (m *Metrics) RecordScored(scored []*domain.ScoredApplication) {
	for _, s := range scored {
		m.ApplicationsScored.WithLabelValues(s.RiskTier.String()).Inc()
	}
}

// RecordSimulation records a finished Monte Carlo run.
func (m *Metrics) RecordSimulation(run *domain.SimulationRun, elapsed time.Duration) {
	m.TrialsSimulated.Add(float64(run.Trials))
	m.SimulationDuration.Observe(elapsed.Seconds())
	m.ExpectedLoss.Set(run.ExpectedLoss)
	for _, t := range run.Tail {
		label := strconv.FormatFloat(t.Confidence, 'f', -1, 64)
		m.ValueAtRisk.WithLabelValues(label).Set(t.VaR)
		m.ExpectedShortfall.WithLabelValues(label).Set(t.ES)
	}
}

// RecordPipelineRun records a pipeline phase outcome.
func (m *Metrics) RecordPipelineRun(phase string, err error, elapsed time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.PipelineRunsTotal.WithLabelValues(phase, status).Inc()
	m.PipelineDuration.WithLabelValues(phase).Observe(elapsed.Seconds())
	if err == nil {
		m.LastSuccessfulPipeline.SetToCurrentTime()
	}
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, elapsed time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(elapsed.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// Push sends the registry to a Prometheus Pushgateway under job, grouped by instance.
func (m *Metrics) Push(gatewayURL, job, instance string) error {
	pusher := push.New(gatewayURL, job).Gatherer(m.registry)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	if err := pusher.Push(); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
