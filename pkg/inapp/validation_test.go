package inapp_test

import (
	"testing"

	"github.com/mihaimyh/goinapp/pkg/inapp"
)

func TestValidationCompletion_FinishOnce(t *testing.T) {
	calls := 0
	var got *inapp.Error
	c := inapp.NewValidationCompletion(func(err *inapp.Error) {
		calls++
		got = err
	})

	c.Finish(nil)
	c.Finish(inapp.Errorf("late rejection"))

	if calls != 1 {
		t.Fatalf("completion ran %d times, want 1", calls)
	}
	if got != nil {
		t.Fatalf("first decision was accept, got %v", got)
	}
}

func TestValidationHandlerFunc(t *testing.T) {
	var gotReceipt, gotProduct string
	h := inapp.ValidationHandlerFunc(func(receipt, productID string, completion *inapp.ValidationCompletion) {
		gotReceipt, gotProduct = receipt, productID
		completion.Finish(nil)
	})

	done := false
	h.Validate("receipt-data", "coins", inapp.NewValidationCompletion(func(err *inapp.Error) {
		done = err == nil
	}))

	if !done {
		t.Fatal("completion did not run")
	}
	if gotReceipt != "receipt-data" || gotProduct != "coins" {
		t.Fatalf("handler got (%q, %q)", gotReceipt, gotProduct)
	}
}
