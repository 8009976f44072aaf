package amazon

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/mihaimyh/goinapp/pkg/inapp"
)

// Error codes reported for Amazon purchase failures.
const (
	errCodeRequestFailed = 1
	errCodeInvalidSKU    = 2
)

var (
	_ inapp.Service      = (*Service)(nil)
	_ PurchasingListener = (*Service)(nil)
)

// Service implements inapp.Service on top of the Amazon Appstore
// purchasing service. Every store call returns a request id immediately;
// the service implements PurchasingListener and matches responses back to
// their callers through those ids. Responses arrive on store threads and
// are hopped onto the main context before touching state.
type Service struct {
	*inapp.Core

	client PurchasingClient
	ready  atomic.Bool

	pendingFetch   *inapp.PendingRequests[inapp.FetchCallback]
	pendingBuy     *inapp.PendingRequests[pendingBuy]
	pendingUpdates *inapp.PendingRequests[*updatesState]

	// The purchasing service keeps a single pagination cursor, so only one
	// purchase-history walk may run at a time; later walks queue up until
	// the active one resolves. Dispatch-context only.
	walking     bool
	queuedWalks []*updatesState
}

type pendingBuy struct {
	quantity int
}

type updatesMode int

const (
	updatesRecover updatesMode = iota
	updatesRestore
	updatesConsume
)

// updatesState accumulates a multi-page purchase-updates walk and
// remembers what the walk was started for.
type updatesState struct {
	mode      updatesMode
	productID string
	quantity  int

	user     UserData
	receipts []Receipt

	restoreCb inapp.RestoreCallback
	consumeCb inapp.ConsumeCallback
}

// New creates an Amazon Appstore purchase service. The purchasing client
// is required; everything else defaults through the config.
func New(client PurchasingClient, config inapp.Config) (*Service, error) {
	if client == nil {
		return nil, inapp.ErrClientRequired
	}
	core, err := inapp.NewCore(inapp.PlatformAmazon, config)
	if err != nil {
		return nil, err
	}
	return &Service{
		Core:           core,
		client:         client,
		pendingFetch:   inapp.NewPendingRequests[inapp.FetchCallback](),
		pendingBuy:     inapp.NewPendingRequests[pendingBuy](),
		pendingUpdates: inapp.NewPendingRequests[*updatesState](),
	}, nil
}

// Init registers the response listener. The Amazon purchasing service
// needs no connection handshake, so readiness is immediate.
func (s *Service) Init(cb inapp.InitCallback) {
	s.client.RegisterListener(s)
	s.ready.Store(true)
	s.Dispatch(func() {
		s.Logger().Info("purchasing service ready")
		if cb != nil {
			cb(nil)
		}
	})
}

// CanPurchase reports whether the purchasing service is ready.
func (s *Service) CanPurchase() bool {
	return s.ready.Load()
}

// FetchProducts requests catalog metadata for the given skus.
func (s *Service) FetchProducts(productIDs []string, cb inapp.FetchCallback) {
	ids := make([]string, len(productIDs))
	copy(ids, productIDs)
	s.Dispatch(func() {
		if !s.ready.Load() {
			if cb != nil {
				cb(nil, inapp.ServiceUnavailableError())
			}
			return
		}
		requestID, err := s.client.GetProductData(ids)
		if err != nil {
			s.FinishFetch(nil, inapp.WrapError(err), cb)
			return
		}
		s.pendingFetch.Put(requestID, "", cb)
	})
}

// OnProductDataResponse implements PurchasingListener.
func (s *Service) OnProductDataResponse(resp ProductDataResponse) {
	s.Dispatch(func() {
		_, cb, ok := s.pendingFetch.Take(resp.RequestID)
		if !ok {
			return
		}
		if resp.Status != StatusSuccessful {
			s.FinishFetch(nil, statusError(resp.Status), cb)
			return
		}
		if len(resp.UnavailableSKUs) > 0 {
			s.Logger().Debug("skus unavailable in catalog",
				inapp.Field{Key: "skus", Value: strings.Join(resp.UnavailableSKUs, ",")})
		}
		products := make([]inapp.Product, 0, len(resp.Products))
		for _, p := range resp.Products {
			products = append(products, inapp.Product{
				ProductID:      p.SKU,
				Title:          p.Title,
				Description:    p.Description,
				Price:          parsePrice(p.Price),
				LocalizedPrice: p.Price,
			})
		}
		s.FinishFetch(products, nil, cb)
	})
}

// Purchase buys one unit of productID.
func (s *Service) Purchase(productID string, cb inapp.PurchaseCallback) {
	s.PurchaseQuantity(productID, 1, cb)
}

// PurchaseQuantity starts the store purchase dialog for productID. The
// store sells single units; the requested quantity is granted to local
// stock once the one purchase validates.
func (s *Service) PurchaseQuantity(productID string, quantity int, cb inapp.PurchaseCallback) {
	if quantity < 1 {
		quantity = 1
	}
	s.Dispatch(func() {
		if cb != nil {
			s.PutPurchaseCallback(productID, cb)
		}
		s.NotifyPurchaseStarted(s, productID)
		if !s.ready.Load() {
			s.NotifyPurchaseFailed(s, productID, inapp.ServiceUnavailableError())
			return
		}
		requestID, err := s.client.Purchase(productID)
		if err != nil {
			s.NotifyPurchaseFailed(s, productID, inapp.WrapError(err))
			return
		}
		s.pendingBuy.Put(requestID, productID, pendingBuy{quantity: quantity})
	})
}

// OnPurchaseResponse implements PurchasingListener. Duplicate responses
// for an already consumed request id are no-ops.
func (s *Service) OnPurchaseResponse(resp PurchaseResponse) {
	s.Dispatch(func() {
		productID, buy, ok := s.pendingBuy.Take(resp.RequestID)
		if !ok {
			return
		}
		switch resp.Status {
		case StatusSuccessful:
			purchase := purchaseFromReceipt(resp.Receipt, buy.quantity)
			s.FinishPurchase(s, purchase, receiptPayload(resp.UserData.UserID, resp.Receipt.ReceiptID), nil)
		case StatusAlreadyPurchased:
			// The store refuses to sell an owned entitlement again; walk the
			// purchase history and run the owned receipt through validation
			// as if it had just completed.
			s.startUpdates(&updatesState{mode: updatesRecover, productID: productID, quantity: buy.quantity})
		case StatusInvalidSKU:
			s.NotifyPurchaseFailed(s, productID, inapp.NewError(errCodeInvalidSKU, "invalid sku: "+productID))
		default:
			s.NotifyPurchaseFailed(s, productID, inapp.NewError(errCodeRequestFailed, "purchase request failed"))
		}
	})
}

// Consume fulfills up to quantity owned consumable receipts of productID
// and reduces local stock by the confirmed count.
func (s *Service) Consume(productID string, quantity int, cb inapp.ConsumeCallback) {
	if quantity < 1 {
		quantity = 1
	}
	s.Dispatch(func() {
		if !s.ready.Load() {
			if cb != nil {
				cb(0, inapp.ServiceUnavailableError())
			}
			return
		}
		s.startUpdates(&updatesState{mode: updatesConsume, productID: productID, quantity: quantity, consumeCb: cb})
	})
}

// RestorePurchases re-validates every receipt in the user's purchase
// history. The callback fires once after the last validation resolves.
func (s *Service) RestorePurchases(cb inapp.RestoreCallback) {
	s.Dispatch(func() {
		if !s.ready.Load() {
			if cb != nil {
				cb(inapp.ServiceUnavailableError())
			}
			return
		}
		s.startUpdates(&updatesState{mode: updatesRestore, restoreCb: cb})
	})
}

// startUpdates begins a purchase-history walk from the start, or queues
// it while another walk holds the pagination cursor. Must run on the
// dispatch context.
func (s *Service) startUpdates(state *updatesState) {
	if s.walking {
		s.queuedWalks = append(s.queuedWalks, state)
		return
	}
	s.beginWalk(state)
}

func (s *Service) beginWalk(state *updatesState) {
	s.walking = true
	requestID, err := s.client.GetPurchaseUpdates(true)
	if err != nil {
		s.endWalk()
		s.failUpdates(state, inapp.WrapError(err))
		return
	}
	s.pendingUpdates.Put(requestID, state.productID, state)
}

// endWalk releases the pagination cursor and starts the next queued walk.
// Must run on the dispatch context.
func (s *Service) endWalk() {
	s.walking = false
	if len(s.queuedWalks) == 0 {
		return
	}
	next := s.queuedWalks[0]
	s.queuedWalks = s.queuedWalks[1:]
	s.beginWalk(next)
}

// OnPurchaseUpdatesResponse implements PurchasingListener. Multi-page
// walks re-register the accumulated state under each follow-up request
// id.
func (s *Service) OnPurchaseUpdatesResponse(resp PurchaseUpdatesResponse) {
	s.Dispatch(func() {
		_, state, ok := s.pendingUpdates.Take(resp.RequestID)
		if !ok {
			return
		}
		if resp.Status != StatusSuccessful {
			s.endWalk()
			s.failUpdates(state, statusError(resp.Status))
			return
		}
		state.user = resp.UserData
		for _, r := range resp.Receipts {
			if r.Canceled {
				continue
			}
			state.receipts = append(state.receipts, r)
		}
		if resp.HasMore {
			requestID, err := s.client.GetPurchaseUpdates(false)
			if err != nil {
				s.endWalk()
				s.failUpdates(state, inapp.WrapError(err))
				return
			}
			s.pendingUpdates.Put(requestID, state.productID, state)
			return
		}
		s.endWalk()
		s.finishUpdates(state)
	})
}

// failUpdates reports a failed purchase-history walk through the channel
// the walk was started for. Must run on the dispatch context.
func (s *Service) failUpdates(state *updatesState, err *inapp.Error) {
	switch state.mode {
	case updatesRecover:
		s.NotifyPurchaseFailed(s, state.productID, err)
	case updatesRestore:
		if state.restoreCb != nil {
			state.restoreCb(err)
		}
	case updatesConsume:
		if state.consumeCb != nil {
			state.consumeCb(0, err)
		}
	}
}

// finishUpdates resolves a completed purchase-history walk. Must run on
// the dispatch context.
func (s *Service) finishUpdates(state *updatesState) {
	switch state.mode {
	case updatesRecover:
		for _, r := range state.receipts {
			if r.SKU != state.productID {
				continue
			}
			purchase := purchaseFromReceipt(r, state.quantity)
			s.FinishPurchase(s, purchase, receiptPayload(state.user.UserID, r.ReceiptID), nil)
			return
		}
		s.NotifyPurchaseFailed(s, state.productID,
			inapp.NewError(errCodeRequestFailed, "no owned receipt found for product "+state.productID))

	case updatesRestore:
		if len(state.receipts) == 0 {
			if state.restoreCb != nil {
				state.restoreCb(nil)
			}
			return
		}
		remaining := len(state.receipts)
		var lastErr *inapp.Error
		done := func(_ *inapp.Purchase, err *inapp.Error) {
			if err != nil {
				lastErr = err
			}
			remaining--
			if remaining == 0 && state.restoreCb != nil {
				state.restoreCb(lastErr)
			}
		}
		for _, r := range state.receipts {
			purchase := purchaseFromReceipt(r, 1)
			s.FinishPurchase(s, purchase, receiptPayload(state.user.UserID, r.ReceiptID), done)
		}

	case updatesConsume:
		consumed := 0
		var fulfillErr error
		for _, r := range state.receipts {
			if consumed >= state.quantity || r.SKU != state.productID {
				continue
			}
			if err := s.client.NotifyFulfillment(r.ReceiptID); err != nil {
				fulfillErr = err
				break
			}
			consumed++
		}
		if consumed > 0 {
			s.ReduceStock(state.productID, consumed)
		}
		if state.consumeCb == nil {
			return
		}
		if fulfillErr != nil && consumed == 0 {
			state.consumeCb(0, inapp.WrapError(fulfillErr))
			return
		}
		state.consumeCb(consumed, nil)
	}
}

// Close stops the main context. The Amazon purchasing service holds no
// connection to release.
func (s *Service) Close() error {
	s.ready.Store(false)
	return s.Core.Close()
}

func purchaseFromReceipt(r Receipt, quantity int) *inapp.Purchase {
	return &inapp.Purchase{
		TransactionID: r.ReceiptID,
		ProductID:     r.SKU,
		PurchaseDate:  r.PurchaseDate,
		Quantity:      quantity,
		PurchaseToken: r.ReceiptID,
	}
}

// receiptPayload is the document sent to receipt validation: Amazon
// receipts verify by user id plus receipt id.
func receiptPayload(userID, receiptID string) string {
	return fmt.Sprintf(`{"userId": %q, "purchaseToken": %q}`, userID, receiptID)
}

func statusError(status RequestStatus) *inapp.Error {
	if status == StatusInvalidSKU {
		return inapp.NewError(errCodeInvalidSKU, "invalid sku")
	}
	return inapp.NewError(errCodeRequestFailed, "request failed: "+status.String())
}

// parsePrice extracts a numeric amount from a localized price string such
// as "$0.99". Unparseable strings yield 0.
func parsePrice(price string) float64 {
	var b strings.Builder
	for _, r := range price {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return v
}
