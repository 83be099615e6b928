package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus instrumentation for the core connection and
// command dispatch.
type Metrics struct {
	CommandsTotal    *prometheus.CounterVec
	HandlerDuration  *prometheus.HistogramVec
	ResponsesDropped prometheus.Counter
	Reconnects       prometheus.Counter
	ConnectFailures  prometheus.Counter
	SessionUp        prometheus.Gauge
}

// NewMetrics registers and returns the client metrics. If registry is nil,
// the default Prometheus registerer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seabird_radio",
			Name:      "commands_total",
			Help:      "Command invocations by command name and response status",
		}, []string{"command", "status"}),

		HandlerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "seabird_radio",
			Name:      "handler_duration_seconds",
			Help:      "Command handler execution time in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),

		ResponsesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "seabird_radio",
			Name:      "responses_dropped_total",
			Help:      "Responses dropped because their session was gone by completion",
		}),

		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "seabird_radio",
			Name:      "reconnects_total",
			Help:      "Successful reconnections after a session loss",
		}),

		ConnectFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "seabird_radio",
			Name:      "connect_failures_total",
			Help:      "Failed connection attempts, fatal auth rejections excluded",
		}),

		SessionUp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "seabird_radio",
			Name:      "session_up",
			Help:      "1 while an authenticated core session is live",
		}),
	}
}
