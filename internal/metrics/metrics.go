// Package metrics exposes Prometheus counters for quantity resolution,
// exports and command runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vk/musicscripts/internal/registry"
	"github.com/vk/musicscripts/internal/resolve"
)

const namespace = "musicscripts"

// Metrics holds the collectors of one process. The zero value is not usable,
// build it with New.
type Metrics struct {
	registry    *prometheus.Registry
	resolutions *prometheus.CounterVec
	exports     *prometheus.CounterVec
	commands    *prometheus.HistogramVec
	failures    *prometheus.CounterVec
}

var _ resolve.Observer = (*Metrics)(nil)

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Quantity resolutions by kind, name and origin (handler or default).",
		}, []string{"kind", "name", "origin"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Exported tables by format.",
		}, []string{"format"}),
		commands: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command run time.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"command"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_failures_total",
			Help:      "Failed command runs.",
		}, []string{"command"}),
	}
	m.registry.MustRegister(
		m.resolutions, m.exports, m.commands, m.failures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Resolved implements resolve.Observer.
func (m *Metrics) Resolved(kind registry.Kind, name string, handled bool) {
	origin := "default"
	if handled {
		origin = "handler"
	}
	m.resolutions.WithLabelValues(kind.String(), name, origin).Inc()
}

// Exported counts one exported table.
func (m *Metrics) Exported(format string) {
	m.exports.WithLabelValues(format).Inc()
}

// ObserveCommand records the duration and outcome of a command.
func (m *Metrics) ObserveCommand(command string, d time.Duration, err error) {
	m.commands.WithLabelValues(command).Observe(d.Seconds())
	if err != nil {
		m.failures.WithLabelValues(command).Inc()
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
