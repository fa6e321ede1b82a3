package nexio

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes recorded in nexio_requests_total.
const (
	outcomeSuccess         = "success"
	outcomeFailure         = "failure" // 2xx answered but not a success, e.g. declined
	outcomeHTTPError       = "http_error"
	outcomeNetworkError    = "network_error"
	outcomeInvalidResponse = "invalid_response"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexio_requests_total",
			Help: "Outbound Nexio API requests by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nexio_request_duration_seconds",
			Help:    "Latency of outbound Nexio API requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)
)

// GetRequestsTotal exposes the request counter for tests and dashboards wiring.
func GetRequestsTotal() *prometheus.CounterVec { return requestsTotal }

// GetRequestDuration exposes the latency histogram.
func GetRequestDuration() *prometheus.HistogramVec { return requestDuration }
