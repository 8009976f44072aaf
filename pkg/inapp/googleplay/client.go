package googleplay

import "context"

// productTypeInApp is the only product type this service trades in;
// subscriptions go through their own vendor surface.
const productTypeInApp = "inapp"

// SkuDetails is product metadata as returned by the billing service.
type SkuDetails struct {
	ProductID         string `json:"productId"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Price             string `json:"price"`
	PriceAmountMicros int64  `json:"price_amount_micros"`
	PriceCurrencyCode string `json:"price_currency_code"`
}

// PurchaseData is the decoded INAPP_PURCHASE_DATA document attached to a
// completed or owned purchase.
type PurchaseData struct {
	OrderID          string `json:"orderId"`
	PackageName      string `json:"packageName"`
	ProductID        string `json:"productId"`
	PurchaseTime     int64  `json:"purchaseTime"`
	PurchaseState    int    `json:"purchaseState"`
	DeveloperPayload string `json:"developerPayload"`
	PurchaseToken    string `json:"purchaseToken"`
}

// SignedPurchase pairs a raw purchase document with its store signature.
// The document stays raw so signatures keep verifying byte for byte.
type SignedPurchase struct {
	Data      string
	Signature string
}

// PurchasesPage is one page of the user's owned purchases. A non-empty
// ContinuationToken means more pages follow.
type PurchasesPage struct {
	Purchases         []SignedPurchase
	ContinuationToken string
}

// ActivityResult is the buy-flow outcome delivered back from the store
// dialog.
type ActivityResult struct {
	ResponseCode int
	PurchaseData string
	Signature    string
}

// BillingClient is the transport to the Google Play billing service.
// Implementations bridge to the platform binding in use; tests substitute
// a fake. Calls may block and are always made off the main context.
type BillingClient interface {
	// Connect binds to the billing service.
	Connect(ctx context.Context) error

	// Disconnect releases the billing service binding.
	Disconnect() error

	// IsBillingSupported reports whether in-app billing is available for
	// the product type.
	IsBillingSupported(ctx context.Context, productType string) error

	// GetSkuDetails fetches metadata for up to 20 skus.
	GetSkuDetails(ctx context.Context, productType string, skus []string) ([]SkuDetails, error)

	// LaunchBuyIntent starts the store purchase dialog for one sku. The
	// outcome arrives through Service.HandleActivityResult.
	LaunchBuyIntent(ctx context.Context, productType, sku, developerPayload string) error

	// GetPurchases returns one page of the user's owned purchases.
	GetPurchases(ctx context.Context, productType, continuationToken string) (*PurchasesPage, error)

	// ConsumePurchase consumes an owned purchase by its token.
	ConsumePurchase(ctx context.Context, purchaseToken string) error
}
