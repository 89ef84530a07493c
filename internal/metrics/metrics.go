// Package metrics exposes prometheus collectors for the fetch pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "producthot"

// Fetch outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeCache    = "cache"
	OutcomeMock     = "mock"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

type Metrics struct {
	fetches   *prometheus.CounterVec
	duration  prometheus.Histogram
	retries   prometheus.Counter
	redirects prometheus.Counter
	refreshes *prometheus.CounterVec
	items     prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "news_fetches_total",
			Help:      "News fetches by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "news_fetch_duration_seconds",
			Help:      "Duration of news fetches including retries.",
			Buckets:   prometheus.DefBuckets,
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "news_fetch_retries_total",
			Help:      "Retried news fetch attempts.",
		}),
		redirects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "news_redirects_followed_total",
			Help:      "307 redirects followed transparently.",
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "State refreshes by result.",
		}, []string{"result"}),
		items: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "news_items",
			Help:      "Normalized items held after the last refresh.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.fetches, m.duration, m.retries, m.redirects, m.refreshes, m.items)
	return m
}

// ObserveFetch records one completed fetch.
func (m *Metrics) ObserveFetch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

func (m *Metrics) AddRedirects(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.redirects.Add(float64(n))
}

// ObserveRefresh records a refresh result (ok, error or stale) and the item count on success.
func (m *Metrics) ObserveRefresh(result string, items int) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
	if result == "ok" {
		m.items.Set(float64(items))
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
