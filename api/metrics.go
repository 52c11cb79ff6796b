/*
metrics.go - Prometheus instrumentation

PURPOSE:
  Counts the engine's externally interesting events: check-ins by outcome,
  registrations, absence alerts, and warning sweeps. Exposed on /metrics.

DESIGN:
  Metrics live on a struct (not package globals) so tests can build an
  isolated registry and the server can wire a single instance through the
  handler and monitor.
*/
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	registry *prometheus.Registry

	CheckinsRecorded  *prometheus.CounterVec
	CheckinsDuplicate prometheus.Counter
	Registrations     prometheus.Counter
	AbsenceAlerts     prometheus.Counter
	WarningSweeps     prometheus.Counter
}

// NewMetrics creates and registers all metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		CheckinsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_checkins_total",
			Help: "Accepted check-ins, partitioned by lateness.",
		}, []string{"late"}),
		CheckinsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_checkins_duplicate_total",
			Help: "Check-in attempts rejected because a record already existed.",
		}),
		Registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_registrations_total",
			Help: "Identities registered in the directory.",
		}),
		AbsenceAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_absence_alerts_total",
			Help: "Identities flagged by absence polls.",
		}),
		WarningSweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_warning_sweeps_total",
			Help: "Background warning sweeps completed.",
		}),
	}
	reg.MustRegister(m.CheckinsRecorded, m.CheckinsDuplicate,
		m.Registrations, m.AbsenceAlerts, m.WarningSweeps)
	return m
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CheckinRecorded counts one accepted check-in.
func (m *Metrics) CheckinRecorded(late bool) {
	if m == nil {
		return
	}
	label := "false"
	if late {
		label = "true"
	}
	m.CheckinsRecorded.WithLabelValues(label).Inc()
}

// CheckinDuplicate counts one rejected duplicate attempt.
func (m *Metrics) CheckinDuplicate() {
	if m == nil {
		return
	}
	m.CheckinsDuplicate.Inc()
}

// IdentityRegistered counts one directory registration.
func (m *Metrics) IdentityRegistered() {
	if m == nil {
		return
	}
	m.Registrations.Inc()
}

// AbsencesFlagged counts identities flagged by one absence poll.
func (m *Metrics) AbsencesFlagged(n int) {
	if m == nil {
		return
	}
	m.AbsenceAlerts.Add(float64(n))
}

// WarningSweepDone counts one completed background sweep.
func (m *Metrics) WarningSweepDone() {
	if m == nil {
		return
	}
	m.WarningSweeps.Inc()
}
