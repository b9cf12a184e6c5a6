package http

import "github.com/prometheus/client_golang/prometheus"

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_state_requests_total",
			Help: "Total number of requests to the state API",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_state_request_duration_seconds",
			Help:    "Duration of state API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	eventStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_state_event_streams",
			Help: "Open change stream connections",
		},
	)
)

func init() {
	prometheus.MustRegister(requestCounter, requestLatency, eventStreams)
}
