package prommetrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPrometheusMetrics_NewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	if metrics == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestPrometheusMetrics_RecordFetch(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordFetch("googleplay", 12, true)
	metrics.RecordFetch("googleplay", 0, false)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Error("Expected fetch metrics to be recorded")
	}
}

func TestPrometheusMetrics_RecordPurchase(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordPurchase("googleplay", "coins", "started")
	metrics.RecordPurchase("googleplay", "coins", "completed")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	var purchase *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "test_purchase_total" {
			purchase = f
		}
	}
	if purchase == nil {
		t.Fatal("purchase_total not registered")
	}
	if len(purchase.GetMetric()) != 2 {
		t.Errorf("expected 2 labeled series, got %d", len(purchase.GetMetric()))
	}
}

func TestPrometheusMetrics_RecordValidation(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordValidation("amazon", 80*time.Millisecond, true)
	metrics.RecordValidation("amazon", 120*time.Millisecond, false)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Error("Expected validation metrics to be recorded")
	}
}

func TestPrometheusMetrics_RecordStoreOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordStoreOperation("set", 5*time.Millisecond, nil)
	metrics.RecordStoreOperation("set", 5*time.Millisecond, errors.New("disk full"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	var errCount float64
	for _, f := range families {
		if f.GetName() == "test_storage_operation_errors_total" {
			for _, m := range f.GetMetric() {
				errCount += m.GetCounter().GetValue()
			}
		}
	}
	if errCount != 1 {
		t.Errorf("expected 1 storage error, got %v", errCount)
	}
}
