// Package metrics exports run statistics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wpcheck/plugin-check/internal/checker"
	"github.com/wpcheck/plugin-check/internal/preparation"
)

const namespace = "plugincheck"

// Collector records runner events. It implements checker.Observer.
type Collector struct {
	registry *prometheus.Registry

	checksTotal       *prometheus.CounterVec
	preparationsTotal *prometheus.CounterVec
	runsTotal         *prometheus.CounterVec
	runDuration       prometheus.Histogram
	checkDuration     *prometheus.HistogramVec
	runsInProgress    prometheus.Gauge
}

var _ checker.Observer = (*Collector)(nil)

// NewCollector registers the plugin-check metrics on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		checksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Checks run, by check slug and outcome.",
		}, []string{"check", "outcome"}),
		preparationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preparations_total",
			Help:      "Preparations set up, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs, by outcome.",
		}, []string{"outcome"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a whole run.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		}),
		checkDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Wall time of a single check.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"check"}),
		runsInProgress: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_progress",
			Help:      "Runs currently executing.",
		}),
	}
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RunStarted() {
	c.runsInProgress.Inc()
}

func (c *Collector) RunFinished(elapsed time.Duration, err error) {
	c.runsInProgress.Dec()
	c.runDuration.Observe(elapsed.Seconds())
	c.runsTotal.WithLabelValues(outcome(err)).Inc()
}

func (c *Collector) PreparationFinished(kind preparation.Kind, err error) {
	c.preparationsTotal.WithLabelValues(string(kind), outcome(err)).Inc()
}

func (c *Collector) CheckFinished(slug string, o checker.Outcome, elapsed time.Duration) {
	c.checksTotal.WithLabelValues(slug, string(o)).Inc()
	c.checkDuration.WithLabelValues(slug).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
