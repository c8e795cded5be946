package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TheFlashe/diplom-neto/pkg/config"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthErrorsCounter prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Feed import metrics
	ImportRunsCounter  prometheus.CounterVec
	ImportGoodsCounter prometheus.CounterVec

	// Basket and order metrics
	BasketOperationsCounter prometheus.CounterVec
	OrderStatusCounter      prometheus.CounterVec

	// Notification metrics
	NotificationsCounter prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(cfg *config.Config) {
	prefix := cfg.Metrics.Prefix

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthErrorsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"reason"},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	ImportRunsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_import_runs_total",
			Help: "Total number of feed import runs",
		},
		[]string{"result"},
	)

	ImportGoodsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_import_goods_total",
			Help: "Total number of goods processed by feed imports",
		},
		[]string{"outcome"},
	)

	BasketOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_basket_operations_total",
			Help: "Total number of basket operations",
		},
		[]string{"operation"},
	)

	OrderStatusCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_order_status_transitions_total",
			Help: "Total number of order status transitions",
		},
		[]string{"status"},
	)

	NotificationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_notifications_total",
			Help: "Total number of status-change notifications",
		},
		[]string{"result"},
	)
}

// GetPrometheusHandler returns the HTTP handler for the metrics endpoint
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordAuthError increments the auth error counter for a failure reason
func RecordAuthError(reason string) {
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// RecordImportRun increments the import run counter with its result
func RecordImportRun(result string) {
	ImportRunsCounter.WithLabelValues(result).Inc()
}

// RecordImportGoods adds processed good counts for an import run
func RecordImportGoods(succeeded, failed int) {
	ImportGoodsCounter.WithLabelValues("succeeded").Add(float64(succeeded))
	ImportGoodsCounter.WithLabelValues("failed").Add(float64(failed))
}

// RecordBasketOperation increments the counter for basket operations
func RecordBasketOperation(operation string) {
	BasketOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordOrderStatus increments the counter for a status transition
func RecordOrderStatus(status string) {
	OrderStatusCounter.WithLabelValues(status).Inc()
}

// RecordNotification increments the notification counter with its result
func RecordNotification(result string) {
	NotificationsCounter.WithLabelValues(result).Inc()
}
