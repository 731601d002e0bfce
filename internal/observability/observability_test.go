package observability

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-lab/internal/domain"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(LogConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("stage", "generate").Info("done")
	assert.Contains(t, buf.String(), `"stage":"generate"`)

	_, err = newLogger(LogConfig{Level: "chatty"}, &buf)
	assert.Error(t, err)
	_, err = newLogger(LogConfig{Format: "xml"}, &buf)
	assert.Error(t, err)

	logger, err = newLogger(LogConfig{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics("")

	m.RecordGenerated([]*domain.Applicant{{Default: true}, {}, {Default: true}})
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ApplicantsGenerated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DefaultsLabeled))

	m.RecordScored([]*domain.ScoredApplication{{RiskTier: domain.TierHigh}, {RiskTier: domain.TierHigh}})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ApplicationsScored.WithLabelValues("High Risk")))

	m.RecordSimulation(&domain.SimulationRun{
		Trials:       500,
		ExpectedLoss: 750,
		Tail:         []domain.TailMetric{{Confidence: 0.99, VaR: 1500, ES: 1500}},
	}, time.Second)
	assert.Equal(t, 500.0, testutil.ToFloat64(m.TrialsSimulated))
	assert.Equal(t, 750.0, testutil.ToFloat64(m.ExpectedLoss))
	assert.Equal(t, 1500.0, testutil.ToFloat64(m.ValueAtRisk.WithLabelValues("0.99")))

	m.RecordPipelineRun("score", errors.New("boom"), time.Millisecond)
	m.RecordPipelineRun("score", nil, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PipelineRunsTotal.WithLabelValues("score", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PipelineRunsTotal.WithLabelValues("score", "success")))
	assert.Greater(t, testutil.ToFloat64(m.LastSuccessfulPipeline), 0.0)
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := NewMetrics("x")
	b := NewMetrics("x")
	a.ApplicantsGenerated.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ApplicantsGenerated))
}

func TestMetrics_Push(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMetrics("")
	m.ReportsGenerated.Inc()
	require.NoError(t, m.Push(srv.URL, "credit_pipeline", "run-1"))
	assert.Equal(t, "/metrics/job/credit_pipeline/instance/run-1", gotPath)
	assert.Equal(t, http.MethodPut, gotMethod)
}

func TestMetrics_PushFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewMetrics("").Push(srv.URL, "credit_pipeline", "")
	assert.Error(t, err)
}
