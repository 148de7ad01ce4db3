// Package metrics provides Prometheus metrics collection for warsztat.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/artpar/warsztat/core/schema"
	"github.com/artpar/warsztat/ports"
)

const namespace = "warsztat"

// Collector holds all Prometheus metrics. It implements ports.Observer.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Core metrics
	MutationsTotal   *prometheus.CounterVec
	PersistDuration  *prometheus.HistogramVec
	PersistBytes     prometheus.Gauge
	SearchesTotal    *prometheus.CounterVec
	SearchHits       prometheus.Histogram
	NavigationsTotal *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a collector registered with the default Prometheus registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
		MutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Total number of attempted state mutations",
			},
			[]string{"op", "partition", "result"},
		),
		PersistDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "persist_duration_seconds",
				Help:      "Time spent flushing the state document",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, 1},
			},
			[]string{"result"},
		),
		PersistBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "state_document_bytes",
				Help:      "Size of the last flushed state document",
			},
		),
		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Total number of quick searches by outcome",
			},
			[]string{"status"},
		),
		SearchHits: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_hits",
				Help:      "Number of hits returned per search",
				Buckets:   []float64{0, 1, 2, 5, 10, 20},
			},
		),
		NavigationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "navigations_total",
				Help:      "Total number of route transitions by route",
			},
			[]string{"route"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// Mutation counts an attempted mutation. Module slugs are collapsed into
// "module" to keep label cardinality bounded.
func (c *Collector) Mutation(op, partition string, err error) {
	c.MutationsTotal.WithLabelValues(op, PartitionLabel(partition), result(err)).Inc()
}

// Persisted records one flush of the state document.
func (c *Collector) Persisted(d time.Duration, bytes int, err error) {
	c.PersistDuration.WithLabelValues(result(err)).Observe(d.Seconds())
	if err == nil {
		c.PersistBytes.Set(float64(bytes))
	}
}

// Searched records one quick search.
func (c *Collector) Searched(status string, hits int) {
	c.SearchesTotal.WithLabelValues(status).Inc()
	c.SearchHits.Observe(float64(hits))
}

// Navigated records one route transition.
func (c *Collector) Navigated(route string) {
	c.NavigationsTotal.WithLabelValues(route).Inc()
}

// ConfigReloaded records a config reload attempt.
func (c *Collector) ConfigReloaded(err error) {
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.SetToCurrentTime()
}

// PartitionLabel maps a partition to its metric label.
func PartitionLabel(partition string) string {
	switch {
	case partition == "":
		return "state"
	case schema.IsBuiltIn(partition):
		return partition
	}
	return "module"
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var _ ports.Observer = (*Collector)(nil)
