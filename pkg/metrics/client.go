package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Refresh outcomes recorded by the API client.
const (
	RefreshSuccess = "success"
	RefreshFailure = "failure"
	RefreshSkipped = "no_refresh_token"
)

// APIClientMetrics records commerce API calls and token refreshes.
type APIClientMetrics struct {
	duration  *prometheus.HistogramVec
	requests  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
}

// NewAPIClientMetrics registers the API client metrics on the provided registerer.
func NewAPIClientMetrics(reg prometheus.Registerer) *APIClientMetrics {
	if reg == nil {
		return &APIClientMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_api_request_duration_seconds",
		Help:    "Duration of commerce API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_api_requests_total",
		Help: "Commerce API requests by response status.",
	}, []string{"method", "endpoint", "status"})
	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_api_token_refresh_total",
		Help: "Access token refresh attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, requests, refreshes)
	return &APIClientMetrics{
		duration:  duration,
		requests:  requests,
		refreshes: refreshes,
	}
}

// ObserveRequest records one transport round trip. A zero status means no response arrived.
func (m *APIClientMetrics) ObserveRequest(method, endpoint string, status int, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	method = normalizeLabel(method)
	endpoint = normalizeLabel(endpoint)
	m.duration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	m.requests.WithLabelValues(method, endpoint, statusLabel(status)).Inc()
}

// IncRefresh counts a refresh attempt with the given outcome.
func (m *APIClientMetrics) IncRefresh(outcome string) {
	if m == nil || m.refreshes == nil {
		return
	}
	m.refreshes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func statusLabel(status int) string {
	if status <= 0 {
		return "network_error"
	}
	return strconv.Itoa(status)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
