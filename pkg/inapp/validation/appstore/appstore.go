// Package appstorevalidate validates Apple App Store receipts with
// Apple's verifyReceipt endpoint.
package appstorevalidate

import (
	"context"

	"github.com/awa/go-iap/appstore"

	"github.com/mihaimyh/goinapp/pkg/inapp"
)

var _ inapp.ValidationHandler = (*Validator)(nil)

// Validator checks base64 receipt data with Apple. It implements
// inapp.ValidationHandler.
type Validator struct {
	ctx          context.Context
	client       *appstore.Client
	sharedSecret string
}

// New builds a Validator. sharedSecret is the app-specific shared secret
// from App Store Connect; sandbox routes verification to Apple's sandbox
// environment.
func New(ctx context.Context, sharedSecret string, sandbox bool) *Validator {
	client := appstore.New()
	if sandbox {
		client.ProductionURL = client.SandboxURL
	}
	return &Validator{ctx: ctx, client: client, sharedSecret: sharedSecret}
}

// verifyResult decodes only the fields the decision needs.
type verifyResult struct {
	Status  int `json:"status"`
	Receipt struct {
		InApp []struct {
			ProductID string `json:"product_id"`
		} `json:"in_app"`
	} `json:"receipt"`
}

// Validate verifies the receipt with Apple on a background goroutine and
// accepts it only when Apple confirms a transaction for the expected
// product.
func (v *Validator) Validate(receipt, productID string, completion *inapp.ValidationCompletion) {
	go func() {
		completion.Finish(v.verify(receipt, productID))
	}()
}

func (v *Validator) verify(receipt, productID string) *inapp.Error {
	req := appstore.IAPRequest{
		ReceiptData:            receipt,
		Password:               v.sharedSecret,
		ExcludeOldTransactions: true,
	}
	var result verifyResult
	if err := v.client.Verify(v.ctx, req, &result); err != nil {
		return inapp.WrapError(err)
	}
	if result.Status != 0 {
		return inapp.NewError(result.Status, "receipt rejected by the app store")
	}
	for _, tx := range result.Receipt.InApp {
		if tx.ProductID == productID {
			return nil
		}
	}
	return inapp.Errorf("no app store transaction for product %q", productID)
}
