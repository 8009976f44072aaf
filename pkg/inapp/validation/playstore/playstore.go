// Package playstore validates Google Play purchases directly against the
// Android Publisher API, for backends that hold service-account
// credentials and do not want to depend on a hosted verification service.
package playstore

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/api/androidpublisher/v3"
	"google.golang.org/api/option"

	"github.com/mihaimyh/goinapp/pkg/inapp"
)

// purchasedState is the PurchaseState value of a completed purchase;
// anything else is canceled or pending.
const purchasedState = 0

var _ inapp.ValidationHandler = (*Validator)(nil)

// Validator checks purchase tokens with the Android Publisher API. It
// implements inapp.ValidationHandler.
type Validator struct {
	ctx         context.Context
	svc         *androidpublisher.Service
	packageName string
}

// New builds a Validator from service-account credentials JSON.
func New(ctx context.Context, packageName string, credentialsJSON []byte) (*Validator, error) {
	svc, err := androidpublisher.NewService(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("create androidpublisher client: %w", err)
	}
	return &Validator{ctx: ctx, svc: svc, packageName: packageName}, nil
}

// receiptDocument is the subset of the raw purchase document the
// publisher API lookup needs.
type receiptDocument struct {
	ProductID     string `json:"productId"`
	PackageName   string `json:"packageName"`
	PurchaseToken string `json:"purchaseToken"`
}

// Validate looks the purchase token up with the publisher API on a
// background goroutine and accepts only purchases in the purchased state.
func (v *Validator) Validate(receipt, productID string, completion *inapp.ValidationCompletion) {
	go func() {
		completion.Finish(v.verify(receipt, productID))
	}()
}

func (v *Validator) verify(receipt, productID string) *inapp.Error {
	var doc receiptDocument
	if err := json.Unmarshal([]byte(receipt), &doc); err != nil {
		return inapp.WrapError(err)
	}
	if doc.PurchaseToken == "" {
		return inapp.Errorf("receipt has no purchase token")
	}
	pkg := doc.PackageName
	if pkg == "" {
		pkg = v.packageName
	}

	purchase, err := v.svc.Purchases.Products.Get(pkg, productID, doc.PurchaseToken).Context(v.ctx).Do()
	if err != nil {
		return inapp.WrapError(err)
	}
	if purchase.PurchaseState != purchasedState {
		return inapp.Errorf("purchase is in state %d, not purchased", purchase.PurchaseState)
	}
	return nil
}
