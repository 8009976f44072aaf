package inapp

// Service is the single entry point for in-app purchases, implemented
// once per vendor store. All asynchronous results are delivered through
// callbacks on the service's main context; no method ever blocks on the
// vendor or the network.
type Service interface {
	// Init connects to the vendor store where the store requires it and
	// reports readiness through the callback.
	Init(cb InitCallback)

	// FetchProducts retrieves metadata for the given product ids from the
	// vendor and merges the result into the product cache.
	FetchProducts(productIDs []string, cb FetchCallback)

	// Products returns the locally cached product catalog.
	Products() []Product

	// ProductForID returns the cached product with the given id, or nil.
	ProductForID(productID string) *Product

	// IsPurchased reports whether the local stock of productID is positive.
	IsPurchased(productID string) bool

	// StockOf returns the locally cached stock count for productID.
	StockOf(productID string) int

	// CanPurchase reports whether the store service is available.
	CanPurchase() bool

	// Purchase buys one unit of productID.
	Purchase(productID string, cb PurchaseCallback)

	// PurchaseQuantity buys quantity units of productID.
	PurchaseQuantity(productID string, quantity int, cb PurchaseCallback)

	// Consume consumes up to quantity units of an owned consumable and
	// reports how many units the vendor confirmed.
	Consume(productID string, quantity int, cb ConsumeCallback)

	// RestorePurchases re-validates every purchase granted to the user
	// account. The callback fires only after every individual validation
	// has resolved.
	RestorePurchases(cb RestoreCallback)

	// AddPurchaseObserver subscribes an observer to purchase lifecycle
	// events. Adding the same observer twice is a no-op.
	AddPurchaseObserver(o PurchaseObserver)

	// RemovePurchaseObserver unsubscribes an observer.
	RemovePurchaseObserver(o PurchaseObserver)

	// SetValidationHandler installs a custom receipt validation strategy.
	// Passing nil clears it, which makes every receipt accepted as is.
	SetValidationHandler(h ValidationHandler)

	// SetRemoteValidationHandler installs the managed remote validation
	// strategy against the configured verification service.
	SetRemoteValidationHandler()

	// Close releases the vendor connection and stops the main context.
	Close() error
}
