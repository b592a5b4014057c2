// Package metrics exposes Prometheus counters for locker operations and
// logins on a dedicated registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values.
const (
	ViewViewer = "viewer"
	ViewAdmin  = "admin"

	EntryDropdown = "dropdown"
	EntryRow      = "row"

	LoginSucceeded = "succeeded"
	LoginFailed    = "failed"
	LoginThrottled = "throttled"
)

type Metrics struct {
	registry *prometheus.Registry

	registrations    *prometheus.CounterVec
	releases         *prometheus.CounterVec
	validationErrors prometheus.Counter
	logins           *prometheus.CounterVec
}

// New registers the locker metrics. activeSessions is sampled on every
// scrape for the sessions_active gauge; nil leaves the gauge out.
func New(activeSessions func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lockers_registrations_total",
			Help: "Lockers assigned to a student, by view.",
		}, []string{"view"}),
		releases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lockers_releases_total",
			Help: "Locker occupants removed, by entry point.",
		}, []string{"entrypoint"}),
		validationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lockers_validation_errors_total",
			Help: "Registrations rejected for missing student id or name.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts, by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(m.registrations, m.releases, m.validationErrors, m.logins)

	if activeSessions != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Visitor sessions held in memory.",
		}, func() float64 { return float64(activeSessions()) }))
	}

	return m
}

func (m *Metrics) Registered(view string) {
	m.registrations.WithLabelValues(view).Inc()
}

func (m *Metrics) Released(entrypoint string) {
	m.releases.WithLabelValues(entrypoint).Inc()
}

func (m *Metrics) ValidationFailed() {
	m.validationErrors.Inc()
}

func (m *Metrics) Login(result string) {
	m.logins.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
