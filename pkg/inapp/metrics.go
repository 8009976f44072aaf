package inapp

import "time"

// Metrics defines the interface for tracking store operations.
type Metrics interface {
	// RecordFetch records a completed product fetch and how many products
	// it returned.
	RecordFetch(platform string, products int, success bool)

	// RecordPurchase records a purchase lifecycle event. Outcome is one of
	// "started", "completed" or "failed".
	RecordPurchase(platform, productID, outcome string)

	// RecordValidation records a receipt validation decision and its latency.
	RecordValidation(platform string, duration time.Duration, accepted bool)

	// RecordStoreOperation records the duration and status of a key-value
	// store operation.
	RecordStoreOperation(operation string, duration time.Duration, err error)
}

// Purchase outcomes reported to Metrics.RecordPurchase.
const (
	PurchaseOutcomeStarted   = "started"
	PurchaseOutcomeCompleted = "completed"
	PurchaseOutcomeFailed    = "failed"
)

// NoopMetrics is a no-op implementation of the Metrics interface.
type NoopMetrics struct{}

func (n *NoopMetrics) RecordFetch(platform string, products int, success bool)                 {}
func (n *NoopMetrics) RecordPurchase(platform, productID, outcome string)                     {}
func (n *NoopMetrics) RecordValidation(platform string, duration time.Duration, accepted bool) {}
func (n *NoopMetrics) RecordStoreOperation(operation string, duration time.Duration, err error) {
}
