package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     prometheus.CounterVec
	HTTPRequestDuration   prometheus.HistogramVec
	HTTPActiveConnections prometheus.GaugeVec

	// Upstream gateway metrics (moex, dividends)
	GatewayRequestsTotal   prometheus.CounterVec
	GatewayRequestDuration prometheus.HistogramVec

	// Quote cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Portfolio refresh scans
	RefreshScansTotal prometheus.CounterVec
	RefreshScanRows   prometheus.HistogramVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the metric registry, creating and registering it on first use
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of HTTP requests currently being served",
				},
				[]string{"method", "path"},
			),
			GatewayRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "gateway_requests_total",
					Help: "Total upstream gateway requests",
				},
				[]string{"gateway", "status"},
			),
			GatewayRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "gateway_request_duration_seconds",
					Help:    "Upstream gateway latency in seconds",
					Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
				},
				[]string{"gateway"},
			),
			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total cache hits",
				},
				[]string{"cache"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total cache misses",
				},
				[]string{"cache"},
			),
			RefreshScansTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "portfolio_refresh_scans_total",
					Help: "Total portfolio refresh scans",
				},
				[]string{"trigger"},
			),
			RefreshScanRows: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "portfolio_refresh_scan_rows",
					Help:    "Rows visited per refresh scan",
					Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
				},
				[]string{"trigger"},
			),
		}
	})
	return instance
}

// RecordGatewayRequest records one upstream call with its outcome
func RecordGatewayRequest(gateway string, duration time.Duration, err error) {
	m := Get()
	status := "success"
	if err != nil {
		status = "error"
	}
	m.GatewayRequestsTotal.WithLabelValues(gateway, status).Inc()
	m.GatewayRequestDuration.WithLabelValues(gateway).Observe(duration.Seconds())
}
