package metrics

import (
	"net/http"
	"time"

	"ratesync-service/internal/application"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ratesync"

// Metrics implements application.Observer on a private registry.
type Metrics struct {
	reg      *prometheus.Registry
	fetches  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rate     *prometheus.GaugeVec
	sessions prometheus.Gauge
}

var _ application.Observer = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Rate fetch attempts by outcome.",
		}, []string{"pair", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Rate source latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"pair"}),
		rate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate",
			Help:      "Last successfully fetched rate.",
		}, []string{"pair"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_open",
			Help:      "Open storefront sessions.",
		}),
	}
	m.reg.MustRegister(
		m.fetches, m.duration, m.rate, m.sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) FetchObserved(pair string, outcome application.FetchOutcome, took time.Duration) {
	m.fetches.WithLabelValues(pair, string(outcome)).Inc()
	if outcome == application.FetchSuccess || outcome == application.FetchFailure {
		m.duration.WithLabelValues(pair).Observe(took.Seconds())
	}
}

func (m *Metrics) RateObserved(pair string, rate float64) { m.rate.WithLabelValues(pair).Set(rate) }

func (m *Metrics) SetSessions(n int) { m.sessions.Set(float64(n)) }

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
