package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Request outcome label values.
const (
	OutcomeOK             = "ok"
	OutcomeInvalidInput   = "invalid_input"
	OutcomeForecastFailed = "forecast_failed"
	OutcomePersistFailed  = "persist_failed"
)

// Metrics holds the Prometheus counters for the alert pipeline.
type Metrics struct {
	AlertRequests       *prometheus.CounterVec // labels: outcome={ok,invalid_input,forecast_failed,persist_failed}
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
	ProviderFailures    prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		AlertRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "delivery_alerts",
			Name:      "alert_requests_total",
			Help:      "Alert requests evaluated, by outcome.",
		}, []string{"outcome"}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "delivery_alerts",
			Name:      "notifications_sent_total",
			Help:      "Adverse-weather emails successfully handed to the SMTP transport.",
		}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "delivery_alerts",
			Name:      "notifications_failed_total",
			Help:      "Adverse-weather emails the SMTP transport rejected.",
		}),
		ProviderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "delivery_alerts",
			Name:      "provider_failures_total",
			Help:      "Weather provider calls that did not yield a usable forecast.",
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AlertRequests,
		m.NotificationsSent,
		m.NotificationsFailed,
		m.ProviderFailures,
	)
	return m
}

// NewMetricsForTesting creates Metrics registered in a private registry so
// counters are observable in tests without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		m.AlertRequests,
		m.NotificationsSent,
		m.NotificationsFailed,
		m.ProviderFailures,
	)
	return m
}
