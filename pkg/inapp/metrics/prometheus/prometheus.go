package prommetrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements inapp.Metrics using Prometheus.
type Metrics struct {
	fetchTotal         *prometheus.CounterVec
	fetchProducts      *prometheus.HistogramVec
	purchaseTotal      *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	validationTotal    *prometheus.CounterVec
	storageOpsDuration *prometheus.HistogramVec
	storageOpsErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Prometheus metrics implementation.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		fetchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_fetch_total",
			Help:      "Total number of product catalog fetches.",
		}, []string{"platform", "success"}),

		fetchProducts: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "product_fetch_size",
			Help:      "Distribution of product counts returned per fetch.",
			Buckets:   []float64{1, 5, 10, 20, 50, 100},
		}, []string{"platform"}),

		purchaseTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchase_total",
			Help:      "Total number of purchase lifecycle events.",
		}, []string{"platform", "product_id", "outcome"}),

		validationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "receipt_validation_duration_seconds",
			Help:      "Latency of receipt validation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"platform"}),

		validationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_validation_total",
			Help:      "Total number of receipt validations.",
		}, []string{"platform", "accepted"}),

		storageOpsDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_operation_duration_seconds",
			Help:      "Latency of key-value store operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		storageOpsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_operation_errors_total",
			Help:      "Total number of key-value store operation errors.",
		}, []string{"operation"}),
	}
}

func (m *Metrics) RecordFetch(platform string, products int, success bool) {
	m.fetchTotal.WithLabelValues(platform, strconv.FormatBool(success)).Inc()
	if success {
		m.fetchProducts.WithLabelValues(platform).Observe(float64(products))
	}
}

func (m *Metrics) RecordPurchase(platform, productID, outcome string) {
	m.purchaseTotal.WithLabelValues(platform, productID, outcome).Inc()
}

func (m *Metrics) RecordValidation(platform string, duration time.Duration, accepted bool) {
	m.validationDuration.WithLabelValues(platform).Observe(duration.Seconds())
	m.validationTotal.WithLabelValues(platform, strconv.FormatBool(accepted)).Inc()
}

func (m *Metrics) RecordStoreOperation(operation string, duration time.Duration, err error) {
	m.storageOpsDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.storageOpsErrors.WithLabelValues(operation).Inc()
	}
}

// DefaultMetrics returns a Metrics implementation using the default Prometheus registerer.
func DefaultMetrics(namespace string) *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer, namespace)
}
