package prometheus

import (
	"time"

	"vendor-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Vendor metrics
	VendorOperationsCounter prometheus.CounterVec

	// Purchase order metrics
	PurchaseOrderOperationsCounter prometheus.CounterVec

	// Performance recalculation metrics
	RecalculationDuration prometheus.Histogram
	RecalculationErrors   prometheus.Counter
	PerformanceSnapshots  prometheus.Counter

	// Total vendors tracked by the service
	VendorsGauge prometheus.Gauge
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Vendor metrics
	VendorOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_vendor_operations_total",
			Help: "Total number of vendor operations",
		},
		[]string{"operation"},
	)

	// Purchase order metrics
	PurchaseOrderOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_purchase_order_operations_total",
			Help: "Total number of purchase order operations",
		},
		[]string{"operation"},
	)

	// Performance recalculation metrics
	RecalculationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_recalculation_duration_seconds",
			Help:    "Duration of vendor performance recalculations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecalculationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_recalculation_errors_total",
			Help: "Total number of failed vendor performance recalculations",
		},
	)

	PerformanceSnapshots = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_performance_snapshots_total",
			Help: "Total number of historical performance snapshots appended",
		},
	)

	// Total vendors tracked by the service
	VendorsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_vendors",
			Help: "Number of vendors tracked by the vendor service",
		},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordVendorOperation increments the counter for vendor operations
func RecordVendorOperation(operation string) {
	VendorOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordPurchaseOrderOperation increments the counter for purchase order operations
func RecordPurchaseOrderOperation(operation string) {
	PurchaseOrderOperationsCounter.WithLabelValues(operation).Inc()
}

// UpdateVendorCount updates the vendors gauge
func UpdateVendorCount(count int) {
	VendorsGauge.Set(float64(count))
}
