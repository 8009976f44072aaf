package inapp_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mihaimyh/goinapp/pkg/inapp"
	"github.com/mihaimyh/goinapp/storage/memory"
)

func newRemoteCore(t *testing.T, verifyURL string) *inapp.Core {
	t.Helper()
	core, err := inapp.NewCore(inapp.PlatformGooglePlay, inapp.Config{
		Store:     memory.New(),
		BundleID:  "com.example.app",
		APIKey:    "test-key",
		VerifyURL: verifyURL,
	})
	if err != nil {
		t.Fatalf("NewCore: %v", err)
	}
	t.Cleanup(func() { core.Close() })
	core.SetRemoteValidationHandler()
	return core
}

func validateSync(t *testing.T, core *inapp.Core, receipt, productID string) *inapp.Error {
	t.Helper()
	result := make(chan *inapp.Error, 1)
	core.Validate(receipt, productID, inapp.NewValidationCompletion(func(err *inapp.Error) {
		result <- err
	}))
	select {
	case err := <-result:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("validation did not complete")
		return nil
	}
}

func TestRemoteValidation_Accepts(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": 0,
			"orders": []map[string]string{{"productId": "coins"}},
		})
	}))
	defer srv.Close()

	core := newRemoteCore(t, srv.URL)
	if err := validateSync(t, core, "receipt-data", "coins"); err != nil {
		t.Fatalf("expected accept, got %v", err)
	}

	if gotBody["os"] != float64(1) {
		t.Errorf("os = %v, want 1", gotBody["os"])
	}
	if gotBody["api_key"] != "test-key" {
		t.Errorf("api_key = %v", gotBody["api_key"])
	}
	if gotBody["bundleId"] != "com.example.app" {
		t.Errorf("bundleId = %v", gotBody["bundleId"])
	}
	if gotBody["data"] != "receipt-data" {
		t.Errorf("data = %v", gotBody["data"])
	}
}

func TestRemoteValidation_RejectsServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":       3,
			"errorMessage": "signature mismatch",
		})
	}))
	defer srv.Close()

	err := validateSync(t, newRemoteCore(t, srv.URL), "receipt-data", "coins")
	if err == nil {
		t.Fatal("expected rejection")
	}
	if err.Code != 3 || err.Message != "signature mismatch" {
		t.Fatalf("got (%d, %q)", err.Code, err.Message)
	}
}

func TestRemoteValidation_RejectsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := validateSync(t, newRemoteCore(t, srv.URL), "receipt-data", "coins")
	if err == nil {
		t.Fatal("expected rejection")
	}
	if err.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d, want 500", err.Code)
	}
}

func TestRemoteValidation_RejectsWrongProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": 0,
			"orders": []map[string]string{{"productId": "gems"}},
		})
	}))
	defer srv.Close()

	if err := validateSync(t, newRemoteCore(t, srv.URL), "receipt-data", "coins"); err == nil {
		t.Fatal("an order for a different product must not validate")
	}
}

func TestRemoteValidation_RejectsEmptyOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": 0})
	}))
	defer srv.Close()

	if err := validateSync(t, newRemoteCore(t, srv.URL), "receipt-data", "coins"); err == nil {
		t.Fatal("a response without orders must not validate")
	}
}

func TestRemoteValidation_RejectsUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	if err := validateSync(t, newRemoteCore(t, srv.URL), "receipt-data", "coins"); err == nil {
		t.Fatal("transport failure must reject")
	}
}
