package amazon

import (
	"fmt"
	"time"
)

// RequestStatus is the outcome code attached to every Amazon Appstore
// response.
type RequestStatus int

const (
	StatusSuccessful RequestStatus = iota
	StatusFailed
	StatusInvalidSKU
	StatusAlreadyPurchased
	StatusNotSupported
)

func (s RequestStatus) String() string {
	switch s {
	case StatusSuccessful:
		return "successful"
	case StatusFailed:
		return "failed"
	case StatusInvalidSKU:
		return "invalid sku"
	case StatusAlreadyPurchased:
		return "already purchased"
	case StatusNotSupported:
		return "not supported"
	default:
		return fmt.Sprintf("unknown status %d", int(s))
	}
}

// UserData identifies the store account a response belongs to.
type UserData struct {
	UserID      string
	Marketplace string
}

// ProductData is catalog metadata for one sku. Price is the localized
// display string; Amazon does not expose a numeric amount.
type ProductData struct {
	SKU         string
	Title       string
	Description string
	Price       string
}

// Receipt is one granted entitlement or consumable purchase.
type Receipt struct {
	ReceiptID    string
	SKU          string
	PurchaseDate time.Time
	Canceled     bool
}

// ProductDataResponse answers a GetProductData request.
type ProductDataResponse struct {
	RequestID       string
	Status          RequestStatus
	Products        []ProductData
	UnavailableSKUs []string
}

// PurchaseResponse answers a Purchase request.
type PurchaseResponse struct {
	RequestID string
	Status    RequestStatus
	UserData  UserData
	Receipt   Receipt
}

// PurchaseUpdatesResponse answers one page of a GetPurchaseUpdates
// request. HasMore means another GetPurchaseUpdates call continues the
// walk under a new request id.
type PurchaseUpdatesResponse struct {
	RequestID string
	Status    RequestStatus
	UserData  UserData
	Receipts  []Receipt
	HasMore   bool
}

// PurchasingListener receives the asynchronous responses of the Amazon
// purchasing service. The store invokes it from its own threads; the
// Service implementation hops to the main context before touching state.
type PurchasingListener interface {
	OnProductDataResponse(resp ProductDataResponse)
	OnPurchaseResponse(resp PurchaseResponse)
	OnPurchaseUpdatesResponse(resp PurchaseUpdatesResponse)
}

// PurchasingClient is the transport to the Amazon purchasing service.
// Every call returns immediately with a request id; the matching response
// arrives later through the registered PurchasingListener. Tests
// substitute a fake.
type PurchasingClient interface {
	// RegisterListener installs the response listener. Must be called
	// before any request.
	RegisterListener(l PurchasingListener)

	// GetProductData requests catalog metadata for the given skus.
	GetProductData(skus []string) (requestID string, err error)

	// Purchase starts the store purchase dialog for one sku.
	Purchase(sku string) (requestID string, err error)

	// GetPurchaseUpdates walks the user's purchase history. With reset the
	// walk restarts from the beginning; otherwise it continues from the
	// last delivered page. The pagination cursor is shared by all walks,
	// so the adapter runs at most one at a time.
	GetPurchaseUpdates(reset bool) (requestID string, err error)

	// NotifyFulfillment marks a consumable receipt as fulfilled so the
	// store will sell the sku again.
	NotifyFulfillment(receiptID string) error
}
