// Package metrics holds the Prometheus collectors shared by the notification
// list client and the notification API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ScrollTriggers *prometheus.CounterVec
	PageFetches    *prometheus.CounterVec
	FetchDuration  prometheus.Histogram
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	EventsConsumed *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. A nil reg skips
// registration, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ScrollTriggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notification_feed",
			Name:      "scroll_triggers_total",
			Help:      "Scroll-near-end callbacks by outcome.",
		}, []string{"outcome"}),
		PageFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notification_feed",
			Name:      "page_fetches_total",
			Help:      "Completed page fetches by result.",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "notification_feed",
			Name:      "page_fetch_duration_seconds",
			Help:      "Latency of page fetches.",
			Buckets:   prometheus.DefBuckets,
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notification_api",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "notification_api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		EventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notification_api",
			Name:      "events_consumed_total",
			Help:      "Notification events taken from the queue by result.",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ScrollTriggers,
			m.PageFetches,
			m.FetchDuration,
			m.HTTPRequests,
			m.HTTPDuration,
			m.EventsConsumed,
		)
	}
	return m
}

func (m *Metrics) ObserveTrigger(outcome string) {
	if m == nil {
		return
	}
	m.ScrollTriggers.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFetch(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PageFetches.WithLabelValues(result).Inc()
	m.FetchDuration.Observe(elapsed.Seconds())
}

// ObserveDuplicatePage counts pages dropped because their cursor was already
// fetched, which means the server handed out a stale continuation cursor.
func (m *Metrics) ObserveDuplicatePage() {
	if m == nil {
		return
	}
	m.PageFetches.WithLabelValues("duplicate").Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveEvent(err error) {
	if m == nil {
		return
	}
	result := "stored"
	if err != nil {
		result = "failed"
	}
	m.EventsConsumed.WithLabelValues(result).Inc()
}
