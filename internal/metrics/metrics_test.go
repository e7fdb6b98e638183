package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/liao/quimicai/internal/corpus"
)

func TestObserveAsk(t *testing.T) {
	m := New()

	m.ObserveAsk(OutcomeOK, 2*time.Second, 4)
	m.ObserveAsk(OutcomeOK, time.Second, 0)
	m.ObserveAsk(OutcomeRejected, 0, 0)
	m.EmptyContext()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.asks.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.asks.WithLabelValues(OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.emptyContext))
}

func TestSetCorpus(t *testing.T) {
	m := New()
	m.SetCorpus([]corpus.Unit{
		{Metadata: corpus.Metadata{Kind: corpus.KindInventory}},
		{Metadata: corpus.Metadata{Kind: corpus.KindInventory}},
		{Metadata: corpus.Metadata{Kind: corpus.KindGuardrail}},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.corpusUnits.WithLabelValues("inventario")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.corpusUnits.WithLabelValues("receta")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.corpusUnits.WithLabelValues("guardrail")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAsk(OutcomeFailed, time.Second, 1)
		m.EmptyContext()
		m.SetCorpus(nil)
		m.IndexBuild(IndexBuilt)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.IndexBuild(IndexCached)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `quimicai_index_builds_total{result="cached"} 1`)
}
