package radio

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks upstream fetch behavior. All collectors are registered on
// construction; a nil registry falls back to the default registerer.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
	RateLimited      prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seabird_radio",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Upstream HTTP fetches by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		UpstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "seabird_radio",
			Subsystem: "upstream",
			Name:      "latency_seconds",
			Help:      "Upstream fetch latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seabird_radio",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache hits by endpoint.",
		}, []string{"endpoint"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seabird_radio",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache misses by endpoint.",
		}, []string{"endpoint"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "seabird_radio",
			Subsystem: "upstream",
			Name:      "rate_limited_total",
			Help:      "Fetches rejected because the limiter wait budget was exceeded.",
		}),
	}
}
