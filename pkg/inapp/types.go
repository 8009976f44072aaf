package inapp

import "time"

// Platform identifies the vendor store behind a Service.
type Platform int

const (
	// PlatformUnknown is the zero value.
	PlatformUnknown Platform = iota
	// PlatformAppStore is the Apple App Store.
	PlatformAppStore
	// PlatformGooglePlay is Google Play billing.
	PlatformGooglePlay
	// PlatformAmazon is the Amazon Appstore.
	PlatformAmazon
)

func (p Platform) String() string {
	switch p {
	case PlatformAppStore:
		return "appstore"
	case PlatformGooglePlay:
		return "googleplay"
	case PlatformAmazon:
		return "amazon"
	default:
		return "unknown"
	}
}

// Product describes a purchasable item as reported by the vendor store.
// Products are immutable once fetched; a new fetch replaces any cached
// entry with the same id wholesale.
type Product struct {
	ProductID      string  `json:"productId"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Price          float64 `json:"price"`
	LocalizedPrice string  `json:"localizedPrice"`
	Currency       string  `json:"currency,omitempty"`
}

// Purchase is a single completed store transaction. It is created when a
// vendor purchase callback is parsed and never mutated afterwards; only
// its effect on stock is persisted.
type Purchase struct {
	TransactionID string    `json:"transactionId"`
	ProductID     string    `json:"productId"`
	PurchaseDate  time.Time `json:"purchaseDate"`
	Quantity      int       `json:"quantity"`

	// Vendor extension fields, kept for re-validation and consumption.
	Signature        string `json:"-"`
	PurchaseData     string `json:"-"`
	PurchaseToken    string `json:"-"`
	DeveloperPayload string `json:"-"`
	PurchaseState    int    `json:"-"`
}

// InitCallback reports service initialization.
type InitCallback func(err *Error)

// FetchCallback reports a completed product fetch.
type FetchCallback func(products []Product, err *Error)

// PurchaseCallback reports the terminal outcome of a purchase flow.
type PurchaseCallback func(purchase *Purchase, err *Error)

// ConsumeCallback reports how many units the vendor confirmed as consumed.
type ConsumeCallback func(consumed int, err *Error)

// RestoreCallback reports completion of a restore-purchases run. It fires
// only after every restored purchase has finished validation.
type RestoreCallback func(err *Error)
