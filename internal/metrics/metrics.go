package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sendii"

// Metrics groups the agent's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	indexerFetches  *prometheus.CounterVec
	indexerDuration *prometheus.HistogramVec
	flows           *prometheus.CounterVec
	flowDuration    prometheus.Histogram
	rampSubmissions *prometheus.CounterVec
	settlement      prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		indexerFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "indexer_fetches_total",
				Help:      "Balance fetches by source and outcome.",
			},
			[]string{"source", "kind", "outcome"},
		),
		indexerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "indexer_fetch_duration_seconds",
				Help:      "Balance fetch latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		flows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "consolidation_flows_total",
				Help:      "Consolidation flows by outcome.",
			},
			[]string{"outcome"},
		),
		flowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "consolidation_duration_seconds",
			Help:      "Wall time from consolidate to confirmable send.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}),
		rampSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ramp_submissions_total",
				Help:      "Ramp confirmations by kind, provider and outcome.",
			},
			[]string{"kind", "provider", "outcome"},
		),
		settlement: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ramp_settlement_duration_seconds",
			Help:      "Time spent waiting on the settler.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.indexerFetches,
		m.indexerDuration,
		m.flows,
		m.flowDuration,
		m.rampSubmissions,
		m.settlement,
	)
	return m
}

func (m *Metrics) IndexerFetch(source, kind string, err error, seconds float64) {
	if m == nil {
		return
	}
	m.indexerFetches.WithLabelValues(source, kind, outcome(err)).Inc()
	m.indexerDuration.WithLabelValues(source).Observe(seconds)
}

// IndexerCacheHit counts a fetch served from cache.
func (m *Metrics) IndexerCacheHit(kind string) {
	if m == nil {
		return
	}
	m.indexerFetches.WithLabelValues("cache", kind, "hit").Inc()
}

func (m *Metrics) Flow(result string, seconds float64) {
	if m == nil {
		return
	}
	m.flows.WithLabelValues(result).Inc()
	if seconds > 0 {
		m.flowDuration.Observe(seconds)
	}
}

func (m *Metrics) RampSubmission(kind, provider string, err error, seconds float64) {
	if m == nil {
		return
	}
	m.rampSubmissions.WithLabelValues(kind, provider, outcome(err)).Inc()
	m.settlement.Observe(seconds)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
