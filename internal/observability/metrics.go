package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	requestsTotal         *prometheus.CounterVec
	latencySeconds        *prometheus.HistogramVec
	errorsTotal           *prometheus.CounterVec
	listingsServedTotal   *prometheus.CounterVec
	markAllReadTotal      *prometheus.CounterVec
	activityEventsTotal   *prometheus.CounterVec
	listingCacheHitsTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the forum API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_requests_total",
			Help: "Total number of forum API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forum_latency_seconds",
			Help:    "Latency distribution for forum API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_errors_total",
			Help: "Total number of error responses returned by forum endpoints.",
		}, []string{"method", "route", "status"})

		listingsServedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_listings_served_total",
			Help: "Discussion listings served, labelled by whether the read filter ran.",
		}, []string{"read_filter"})

		markAllReadTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_mark_all_read_total",
			Help: "Mark-all-read operations, labelled by strategy (filtered or watermark).",
		}, []string{"strategy"})

		activityEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_activity_events_total",
			Help: "Discussion activity events published for external consumers.",
		}, []string{"type"})

		listingCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forum_listing_cache_hits_total",
			Help: "Anonymous listing responses served from the redis cache.",
		})

		prometheus.MustRegister(
			requestsTotal,
			latencySeconds,
			errorsTotal,
			listingsServedTotal,
			markAllReadTotal,
			activityEventsTotal,
			listingCacheHitsTotal,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// ListingsServed exposes the counter for served discussion listings.
func ListingsServed() *prometheus.CounterVec {
	RegisterMetrics()
	return listingsServedTotal
}

// MarkAllReadTotal exposes the counter for mark-all-read operations.
func MarkAllReadTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return markAllReadTotal
}

// ActivityEvents exposes the counter for published activity events.
func ActivityEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return activityEventsTotal
}

// ListingCacheHits exposes the counter for listing cache hits.
func ListingCacheHits() prometheus.Counter {
	RegisterMetrics()
	return listingCacheHitsTotal
}
