package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fliphawk/backend/internal/domain"
)

const namespace = "fliphawk"

// Collector records scan and HTTP metrics into its own registry
type Collector struct {
	registry *prometheus.Registry

	scansTotal        *prometheus.CounterVec
	scanDuration      *prometheus.HistogramVec
	scanOpportunities prometheus.Histogram
	listingsDropped   *prometheus.CounterVec
	fetchErrors       *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// NewCollector creates a collector and registers every metric plus the
// standard Go and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		scansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scan_total",
				Help:      "Finished scans by terminal status",
			},
			[]string{"status"},
		),
		scanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scan_duration_seconds",
				Help:      "Wall time of finished scans",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"status"},
		),
		scanOpportunities: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scan_opportunities",
				Help:      "Ranked opportunities returned per scan",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
			},
		),
		listingsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "listings_dropped_total",
				Help:      "Raw listings rejected during normalization",
			},
			[]string{"marketplace"},
		),
		fetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_errors_total",
				Help:      "Failed marketplace fetches",
			},
			[]string{"marketplace"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route and status code",
			},
			[]string{"method", "route", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	c.registry.MustRegister(
		c.scansTotal,
		c.scanDuration,
		c.scanOpportunities,
		c.listingsDropped,
		c.fetchErrors,
		c.httpRequests,
		c.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordScan implements domain.ScanMetrics
func (c *Collector) RecordScan(status domain.ScanStatus, duration time.Duration, opportunities int) {
	c.scansTotal.WithLabelValues(string(status)).Inc()
	c.scanDuration.WithLabelValues(string(status)).Observe(duration.Seconds())
	if status == domain.ScanCompleted || status == domain.ScanCompletedNoResults {
		c.scanOpportunities.Observe(float64(opportunities))
	}
}

// RecordDropped implements domain.ScanMetrics
func (c *Collector) RecordDropped(marketplace string, count int) {
	if count <= 0 {
		return
	}
	c.listingsDropped.WithLabelValues(strings.ToLower(marketplace)).Add(float64(count))
}

// RecordFetchError implements domain.ScanMetrics
func (c *Collector) RecordFetchError(marketplace string) {
	c.fetchErrors.WithLabelValues(strings.ToLower(marketplace)).Inc()
}

// ObserveRequest records one served HTTP request
func (c *Collector) ObserveRequest(method, route string, code int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
