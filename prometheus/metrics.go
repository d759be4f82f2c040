package prometheus

import (
	"strconv"
	"time"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec
	HttpStatusCategory  *prometheus.CounterVec

	// Authentication metrics
	AuthAttemptsCounter *prometheus.CounterVec
	AuthErrorsCounter   *prometheus.CounterVec

	// Route gate decisions
	RouteDecisionsCounter *prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Domain operation metrics
	ProductOperationsCounter  *prometheus.CounterVec
	StoreOperationsCounter    *prometheus.CounterVec
	EmployeeOperationsCounter *prometheus.CounterVec
	ImageUploadsCounter       prometheus.Counter

	// Push metrics
	PushSubscriptionsCounter *prometheus.CounterVec
	PushDeliveriesCounter    *prometheus.CounterVec
)

// Unregistered defaults keep the Record helpers usable before InitMetrics
func init() {
	build(promauto.With(nil), "storefront")
}

// InitMetrics rebuilds the collectors with the configured prefix and
// registers them with the default registry
func InitMetrics(config *config.Config) {
	build(promauto.With(prometheus.DefaultRegisterer), config.Metrics.Prefix)
}

func build(factory promauto.Factory, prefix string) {
	HttpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HttpStatusCategory = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_status_category_total",
			Help: "Total number of responses by status category (2xx, 3xx, 4xx, 5xx)",
		},
		[]string{"category"},
	)

	AuthAttemptsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of login and registration attempts",
		},
		[]string{"kind"},
	)

	AuthErrorsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors by reason",
		},
		[]string{"reason"},
	)

	RouteDecisionsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_route_decisions_total",
			Help: "Page route gate decisions",
		},
		[]string{"route", "decision"},
	)

	DbOperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	ProductOperationsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_product_operations_total",
			Help: "Total number of product operations",
		},
		[]string{"operation"},
	)

	StoreOperationsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_store_operations_total",
			Help: "Total number of store operations",
		},
		[]string{"operation"},
	)

	EmployeeOperationsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_employee_operations_total",
			Help: "Total number of employee operations",
		},
		[]string{"operation"},
	)

	ImageUploadsCounter = factory.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_image_uploads_total",
			Help: "Total number of product images uploaded",
		},
	)

	PushSubscriptionsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_push_subscriptions_total",
			Help: "Push subscription changes",
		},
		[]string{"operation"},
	)

	PushDeliveriesCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_push_deliveries_total",
			Help: "Push notification deliveries by result",
		},
		[]string{"result"},
	)
}

// MetricsMiddleware records request count, duration and status category
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)
		if err != nil {
			// Let echo write the error response so the status is final
			c.Error(err)
		}

		duration := time.Since(start).Seconds()
		method := c.Request().Method
		path := c.Path()
		status := c.Response().Status
		statusStr := strconv.Itoa(status)

		HttpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
		HttpRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)
		if category := statusCategory(status); category != "" {
			HttpStatusCategory.WithLabelValues(category).Inc()
		}

		return nil
	}
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordAuthAttempt increments the login/registration attempt counter
func RecordAuthAttempt(kind string) {
	AuthAttemptsCounter.WithLabelValues(kind).Inc()
}

// RecordAuthError increments the auth error counter for a reason
func RecordAuthError(reason string) {
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// RecordRouteDecision counts a page route gate outcome
func RecordRouteDecision(route, decision string) {
	RouteDecisionsCounter.WithLabelValues(route, decision).Inc()
}

// RecordProductOperation increments the counter for product operations
func RecordProductOperation(operation string) {
	ProductOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordStoreOperation increments the counter for store operations
func RecordStoreOperation(operation string) {
	StoreOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordEmployeeOperation increments the counter for employee operations
func RecordEmployeeOperation(operation string) {
	EmployeeOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordPushSubscription counts subscribe/unsubscribe/expired events
func RecordPushSubscription(operation string) {
	PushSubscriptionsCounter.WithLabelValues(operation).Inc()
}

// RecordPushDelivery counts a push delivery result
func RecordPushDelivery(result string) {
	PushDeliveriesCounter.WithLabelValues(result).Inc()
}
