// Package metrics provides Prometheus metrics for the browse gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	browseRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pastq_browse_requests_total",
			Help: "Total number of browse requests by content type and status code",
		},
		[]string{"type", "status"},
	)

	browseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pastq_browse_duration_seconds",
			Help:    "Browse request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	gatewayCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pastq_gateway_cache_lookups_total",
			Help: "Gateway listing cache lookups",
		},
		[]string{"result"},
	)

	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pastq_provider_requests_total",
			Help: "Storage provider list calls",
		},
		[]string{"op", "status"},
	)

	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pastq_provider_request_duration_seconds",
			Help:    "Storage provider list call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pastq_rate_limited_requests_total",
			Help: "Requests rejected by the local server rate limiter",
		},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordBrowse records one browse request.
func RecordBrowse(contentType string, status int, duration time.Duration) {
	browseRequestsTotal.WithLabelValues(contentType, strconv.Itoa(status)).Inc()
	browseDuration.WithLabelValues(contentType).Observe(duration.Seconds())
}

// RecordCacheLookup records a gateway cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		gatewayCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	gatewayCacheLookups.WithLabelValues("miss").Inc()
}

// RecordProviderCall records one provider list call.
func RecordProviderCall(op string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	providerRequestsTotal.WithLabelValues(op, status).Inc()
	providerRequestDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited() {
	rateLimitedTotal.Inc()
}
