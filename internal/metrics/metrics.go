package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/liao/quimicai/internal/corpus"
)

const namespace = "quimicai"

// 问答结果标签
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// 索引构建结果标签
const (
	IndexBuilt  = "built"
	IndexCached = "cached"
	IndexFailed = "failed"
)

// Metrics 应用指标。所有方法对 nil 接收者安全，未启用指标时直接传 nil
type Metrics struct {
	registry     *prometheus.Registry
	asks         *prometheus.CounterVec
	askDuration  prometheus.Histogram
	retrieved    prometheus.Histogram
	emptyContext prometheus.Counter
	corpusUnits  *prometheus.GaugeVec
	indexBuilds  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		asks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asks_total",
			Help:      "Questions answered, by outcome.",
		}, []string{"outcome"}),
		askDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ask_duration_seconds",
			Help:      "End-to-end retrieve-then-generate latency.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		retrieved: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieved_units",
			Help:      "Corpus units retrieved per question.",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 12, 16},
		}),
		emptyContext: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "empty_context_total",
			Help:      "Questions answered with an empty retrieval context.",
		}),
		corpusUnits: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_units",
			Help:      "Corpus units in the active knowledge base, by kind.",
		}, []string{"kind"}),
		indexBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_builds_total",
			Help:      "Vector index preparations, by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: namespace}),
		prometheus.NewGoCollector(),
		m.asks, m.askDuration, m.retrieved, m.emptyContext, m.corpusUnits, m.indexBuilds,
	)
	return m
}

// Handler /metrics 端点
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) ObserveAsk(outcome string, d time.Duration, retrieved int) {
	if m == nil {
		return
	}
	m.asks.WithLabelValues(outcome).Inc()
	if outcome == OutcomeRejected {
		return
	}
	m.askDuration.Observe(d.Seconds())
	m.retrieved.Observe(float64(retrieved))
}

func (m *Metrics) EmptyContext() {
	if m == nil {
		return
	}
	m.emptyContext.Inc()
}

// SetCorpus 按类别记录语料规模
func (m *Metrics) SetCorpus(units []corpus.Unit) {
	if m == nil {
		return
	}
	counts := map[corpus.Kind]int{
		corpus.KindInventory: 0,
		corpus.KindRecipe:    0,
		corpus.KindGuardrail: 0,
	}
	for _, u := range units {
		counts[u.Metadata.Kind]++
	}
	for k, n := range counts {
		m.corpusUnits.WithLabelValues(string(k)).Set(float64(n))
	}
}

func (m *Metrics) IndexBuild(result string) {
	if m == nil {
		return
	}
	m.indexBuilds.WithLabelValues(result).Inc()
}
