package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the alert lifecycle counters. A nil *Metrics is valid and
// records nothing, so tests and tools can skip wiring it.
type Metrics struct {
	reg *prometheus.Registry

	AlertsCreated      prometheus.Counter
	AlertsAcknowledged *prometheus.CounterVec // label: path=existing|synthesized
	AlertsNotFound     prometheus.Counter
	TaskLogFailures    prometheus.Counter
	SnapshotsWritten   prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		AlertsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alertledger",
			Name:      "alerts_created_total",
			Help:      "Alerts created or re-raised.",
		}),
		AlertsAcknowledged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alertledger",
			Name:      "alerts_acknowledged_total",
			Help:      "Acknowledgements persisted, by branch.",
		}, []string{"path"}),
		AlertsNotFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alertledger",
			Name:      "alerts_not_found_total",
			Help:      "Lookups for alert ids that are not stored.",
		}),
		TaskLogFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alertledger",
			Name:      "tasklog_failures_total",
			Help:      "Task log writes that failed after the alert was persisted.",
		}),
		SnapshotsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alertledger",
			Name:      "snapshots_written_total",
			Help:      "Alert snapshots written to the cache directory.",
		}),
	}
	reg.MustRegister(
		m.AlertsCreated,
		m.AlertsAcknowledged,
		m.AlertsNotFound,
		m.TaskLogFailures,
		m.SnapshotsWritten,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Created() {
	if m != nil {
		m.AlertsCreated.Inc()
	}
}

func (m *Metrics) Acknowledged(synthesized bool) {
	if m == nil {
		return
	}
	path := "existing"
	if synthesized {
		path = "synthesized"
	}
	m.AlertsAcknowledged.WithLabelValues(path).Inc()
}

func (m *Metrics) NotFound() {
	if m != nil {
		m.AlertsNotFound.Inc()
	}
}

func (m *Metrics) TaskLogFailed() {
	if m != nil {
		m.TaskLogFailures.Inc()
	}
}

func (m *Metrics) SnapshotWritten() {
	if m != nil {
		m.SnapshotsWritten.Inc()
	}
}
