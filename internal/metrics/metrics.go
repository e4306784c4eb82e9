// Package metrics exposes Prometheus counters for the public intake paths
// and admin logins.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services and middleware depend on.
type Recorder interface {
	RecordInquiry(outcome string)
	RecordUpload(bucket, outcome string)
	RecordLogin(outcome string)
	RecordNotificationFailure(channel string)
	RecordHTTPRequest(method, route string, status int, d time.Duration)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	inquiries    *prometheus.CounterVec
	uploads      *prometheus.CounterVec
	logins       *prometheus.CounterVec
	notifyFailed *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// NewCollector builds a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		inquiries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "theta_inquiries_total",
			Help: "Inquiry submissions by outcome.",
		}, []string{"outcome"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "theta_uploads_total",
			Help: "Attachment uploads by bucket and outcome.",
		}, []string{"bucket", "outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "theta_admin_logins_total",
			Help: "Admin login attempts by outcome.",
		}, []string{"outcome"}),
		notifyFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "theta_notification_failures_total",
			Help: "Best-effort notification deliveries that failed.",
		}, []string{"channel"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "theta_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "theta_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.inquiries,
		c.uploads,
		c.logins,
		c.notifyFailed,
		c.httpRequests,
		c.httpLatency,
	)
	return c
}

func (c *Collector) RecordInquiry(outcome string) {
	c.inquiries.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordUpload(bucket, outcome string) {
	c.uploads.WithLabelValues(bucket, outcome).Inc()
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordNotificationFailure(channel string) {
	c.notifyFailed.WithLabelValues(channel).Inc()
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordInquiry(string)                                 {}
func (Nop) RecordUpload(string, string)                          {}
func (Nop) RecordLogin(string)                                   {}
func (Nop) RecordNotificationFailure(string)                     {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
