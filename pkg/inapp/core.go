package inapp

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Core carries the state and collaborators shared by every vendor
// adapter: the product cache, the ciphered stock map, the observer bus,
// the per-product purchase callbacks, the validation strategy and the
// dispatch context. Adapters embed a *Core and layer the vendor protocol
// on top of it instead of inheriting from an abstract base.
//
// Mutation of the product cache, the stock map, observers and callbacks
// happens only on the dispatch context. The lock exists for the
// synchronous read surface (Products, StockOf, IsPurchased), which is
// callable from any goroutine.
type Core struct {
	platform   Platform
	config     Config
	dispatcher *Dispatcher

	stateMu   sync.RWMutex
	products  []Product
	stock     map[string]int
	validator ValidationHandler

	// dispatch-context only
	observers observerList
	callbacks map[string]PurchaseCallback

	log     Logger
	metrics Metrics
	kv      KeyValueStore
	device  DeviceIdentity
}

// NewCore builds the shared adapter state, loading the product cache and
// the ciphered stock snapshot from the key-value store. Absent or corrupt
// snapshots load as empty, never as an error.
func NewCore(platform Platform, config Config) (*Core, error) {
	if config.Store == nil {
		return nil, ErrStoreRequired
	}
	cfg := config.withDefaults()

	c := &Core{
		platform:   platform,
		config:     cfg,
		dispatcher: NewDispatcher(),
		stock:      make(map[string]int),
		callbacks:  make(map[string]PurchaseCallback),
		log:        cfg.Logger,
		metrics:    cfg.Metrics,
		kv:         cfg.Store,
		device:     cfg.Device,
	}
	c.loadProducts()
	c.loadStock()
	return c, nil
}

// Platform returns the vendor platform this core serves.
func (c *Core) Platform() Platform {
	return c.platform
}

// Context returns the base context for vendor and network calls.
func (c *Core) Context() context.Context {
	return c.config.Context
}

// Logger returns the configured logger.
func (c *Core) Logger() Logger {
	return c.log
}

// Metrics returns the configured metrics sink.
func (c *Core) Metrics() Metrics {
	return c.metrics
}

// HTTPClient returns the client used for remote validation.
func (c *Core) HTTPClient() *http.Client {
	return c.config.HTTPClient
}

// Dispatch queues fn on the main context.
func (c *Core) Dispatch(fn func()) {
	c.dispatcher.Dispatch(fn)
}

// Sync blocks until every task queued on the main context before the
// call has run. Intended for teardown and tests.
func (c *Core) Sync() {
	c.dispatcher.Sync()
}

// RunBackground runs fn on a one-shot worker goroutine for blocking
// vendor or network work. fn must hand its results back via Dispatch
// before touching shared state.
func (c *Core) RunBackground(fn func()) {
	go fn()
}

// Close persists nothing (every mutation already saved its snapshot) and
// stops the main context after draining queued work.
func (c *Core) Close() error {
	c.dispatcher.Sync()
	c.dispatcher.Close()
	return nil
}

// Products returns a copy of the cached product catalog.
func (c *Core) Products() []Product {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// ProductForID returns the cached product with the given id, or nil.
func (c *Core) ProductForID(productID string) *Product {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	for i := range c.products {
		if c.products[i].ProductID == productID {
			p := c.products[i]
			return &p
		}
	}
	return nil
}

// MergeProducts replaces cached entries that share an id with the fetched
// ones (replace, not merge), appends the rest, and saves the cache. Must
// run on the dispatch context.
func (c *Core) MergeProducts(products []Product) {
	c.stateMu.Lock()
	for _, p := range products {
		replaced := false
		for i := range c.products {
			if c.products[i].ProductID == p.ProductID {
				c.products[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			c.products = append(c.products, p)
		}
	}
	c.stateMu.Unlock()
	c.saveProducts()
}

// FinishFetch merges a successful fetch into the product cache and then
// invokes the caller's callback. Must run on the dispatch context.
func (c *Core) FinishFetch(products []Product, fetchErr *Error, cb FetchCallback) {
	if fetchErr == nil && products != nil {
		c.MergeProducts(products)
	}
	c.metrics.RecordFetch(c.platform.String(), len(products), fetchErr == nil)
	if cb != nil {
		cb(products, fetchErr)
	}
}

// StockOf returns the locally cached stock count for productID.
func (c *Core) StockOf(productID string) int {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.stock[productID]
}

// IsPurchased reports whether the local stock of productID is positive.
func (c *Core) IsPurchased(productID string) bool {
	return c.StockOf(productID) > 0
}

// AddStock grants quantity units of productID and saves the snapshot.
// Must run on the dispatch context, after validation accepted.
func (c *Core) AddStock(productID string, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	c.stateMu.Lock()
	c.stock[productID] += quantity
	c.stateMu.Unlock()
	c.saveStock()
}

// ReduceStock removes up to quantity units of productID, clamping at
// zero, and saves the snapshot. Must run on the dispatch context, after
// a vendor-confirmed consume.
func (c *Core) ReduceStock(productID string, quantity int) {
	c.stateMu.Lock()
	remaining := c.stock[productID] - quantity
	if remaining < 0 {
		remaining = 0
	}
	c.stock[productID] = remaining
	c.stateMu.Unlock()
	c.saveStock()
}

// AddPurchaseObserver subscribes o to purchase lifecycle events. Adding
// the same observer twice is a no-op.
func (c *Core) AddPurchaseObserver(o PurchaseObserver) {
	c.Dispatch(func() { c.observers.add(o) })
}

// RemovePurchaseObserver unsubscribes o.
func (c *Core) RemovePurchaseObserver(o PurchaseObserver) {
	c.Dispatch(func() { c.observers.remove(o) })
}

// PutPurchaseCallback registers the caller's completion callback for an
// in-flight purchase of productID. Must run on the dispatch context.
func (c *Core) PutPurchaseCallback(productID string, cb PurchaseCallback) {
	c.callbacks[productID] = cb
}

func (c *Core) takePurchaseCallback(productID string) PurchaseCallback {
	cb, ok := c.callbacks[productID]
	if !ok {
		return nil
	}
	delete(c.callbacks, productID)
	return cb
}

// NotifyPurchaseStarted broadcasts the start of a purchase flow. Must run
// on the dispatch context, before the vendor round trip begins.
func (c *Core) NotifyPurchaseStarted(sender Service, productID string) {
	c.metrics.RecordPurchase(c.platform.String(), productID, PurchaseOutcomeStarted)
	for _, o := range c.observers.snapshot() {
		o.OnPurchaseStart(sender, productID)
	}
}

// NotifyPurchaseFailed broadcasts a failed purchase to observers and then
// completes the registered caller callback. Must run on the dispatch
// context.
func (c *Core) NotifyPurchaseFailed(sender Service, productID string, err *Error) {
	c.log.Debug("purchase failed",
		Field{Key: "platform", Value: c.platform.String()},
		Field{Key: "product_id", Value: productID},
		Field{Key: "error", Value: err.Message})
	c.metrics.RecordPurchase(c.platform.String(), productID, PurchaseOutcomeFailed)
	for _, o := range c.observers.snapshot() {
		o.OnPurchaseFail(sender, productID, err)
	}
	if cb := c.takePurchaseCallback(productID); cb != nil {
		cb(nil, err)
	}
}

// NotifyPurchaseCompleted broadcasts a validated purchase to observers
// and then completes the registered caller callback. Must run on the
// dispatch context.
func (c *Core) NotifyPurchaseCompleted(sender Service, purchase *Purchase) {
	c.log.Debug("purchase completed",
		Field{Key: "platform", Value: c.platform.String()},
		Field{Key: "product_id", Value: purchase.ProductID},
		Field{Key: "transaction_id", Value: purchase.TransactionID})
	c.metrics.RecordPurchase(c.platform.String(), purchase.ProductID, PurchaseOutcomeCompleted)
	for _, o := range c.observers.snapshot() {
		o.OnPurchaseComplete(sender, purchase)
	}
	if cb := c.takePurchaseCallback(purchase.ProductID); cb != nil {
		cb(purchase, nil)
	}
}

// SetValidationHandler installs a custom receipt validation strategy.
// Passing nil clears it.
func (c *Core) SetValidationHandler(h ValidationHandler) {
	c.stateMu.Lock()
	c.validator = h
	c.stateMu.Unlock()
}

// SetRemoteValidationHandler installs the managed remote validation
// strategy against the configured verification service.
func (c *Core) SetRemoteValidationHandler() {
	c.SetValidationHandler(newRemoteValidation(c))
}

// Validate runs the configured validation strategy. With no strategy
// installed the receipt is accepted immediately.
func (c *Core) Validate(receipt, productID string, completion *ValidationCompletion) {
	c.stateMu.RLock()
	h := c.validator
	c.stateMu.RUnlock()
	if h == nil {
		completion.Finish(nil)
		return
	}
	h.Validate(receipt, productID, completion)
}

// FinishPurchase runs a vendor-approved purchase through the validation
// strategy. On accept it grants stock and completes the purchase; on
// reject it fails it. Only validation's outcome, not the vendor's
// successful status, determines whether the purchase is granted. The
// terminal work runs on the dispatch context; cb, when non-nil, is
// invoked there after the observer bus.
func (c *Core) FinishPurchase(sender Service, purchase *Purchase, receipt string, cb PurchaseCallback) {
	started := time.Now()
	completion := NewValidationCompletion(func(validationErr *Error) {
		c.metrics.RecordValidation(c.platform.String(), time.Since(started), validationErr == nil)
		c.Dispatch(func() {
			if validationErr != nil {
				c.NotifyPurchaseFailed(sender, purchase.ProductID, validationErr)
				if cb != nil {
					cb(nil, validationErr)
				}
				return
			}
			c.AddStock(purchase.ProductID, purchase.Quantity)
			c.NotifyPurchaseCompleted(sender, purchase)
			if cb != nil {
				cb(purchase, nil)
			}
		})
	})
	c.Validate(receipt, purchase.ProductID, completion)
}
