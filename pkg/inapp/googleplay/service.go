package googleplay

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mihaimyh/goinapp/pkg/inapp"
)

const maxSkusPerQuery = 20

var _ inapp.Service = (*Service)(nil)

// Service implements inapp.Service on top of the Google Play billing
// service. The buy flow is split in two: Purchase launches the store
// dialog, and the host delivers its outcome through HandleActivityResult.
type Service struct {
	*inapp.Core

	client    BillingClient
	connected atomic.Bool
	pending   *inapp.PendingRequests[pendingBuy]

	// lastLaunch is the developer payload of the most recently launched
	// buy dialog. Canceled and failed dialogs deliver no purchase data to
	// correlate by, so their results resolve against it. The store shows
	// one dialog at a time. Dispatch-context only.
	lastLaunch string
}

type pendingBuy struct {
	quantity int
}

// New creates a Google Play purchase service. The billing client is
// required; everything else defaults through the config.
func New(client BillingClient, config inapp.Config) (*Service, error) {
	if client == nil {
		return nil, inapp.ErrClientRequired
	}
	core, err := inapp.NewCore(inapp.PlatformGooglePlay, config)
	if err != nil {
		return nil, err
	}
	return &Service{
		Core:    core,
		client:  client,
		pending: inapp.NewPendingRequests[pendingBuy](),
	}, nil
}

// Init binds to the billing service and checks that in-app billing is
// supported.
func (s *Service) Init(cb inapp.InitCallback) {
	s.RunBackground(func() {
		err := s.client.Connect(s.Context())
		if err == nil {
			err = s.client.IsBillingSupported(s.Context(), productTypeInApp)
		}
		s.Dispatch(func() {
			if err != nil {
				s.Logger().Warn("billing service init failed", inapp.Field{Key: "error", Value: err.Error()})
				if cb != nil {
					cb(inapp.WrapError(err))
				}
				return
			}
			s.connected.Store(true)
			s.Logger().Info("billing service connected")
			if cb != nil {
				cb(nil)
			}
		})
	})
}

// CanPurchase reports whether the billing service is connected and
// supports in-app billing.
func (s *Service) CanPurchase() bool {
	return s.connected.Load()
}

// FetchProducts queries sku details in batches of 20, the most the
// billing service accepts per call.
func (s *Service) FetchProducts(productIDs []string, cb inapp.FetchCallback) {
	if !s.connected.Load() {
		s.Dispatch(func() {
			if cb != nil {
				cb(nil, inapp.ServiceUnavailableError())
			}
		})
		return
	}
	ids := make([]string, len(productIDs))
	copy(ids, productIDs)

	s.RunBackground(func() {
		var products []inapp.Product
		var lastErr error
		for start := 0; start < len(ids); start += maxSkusPerQuery {
			end := start + maxSkusPerQuery
			if end > len(ids) {
				end = len(ids)
			}
			details, err := s.client.GetSkuDetails(s.Context(), productTypeInApp, ids[start:end])
			if err != nil {
				lastErr = err
				continue
			}
			for _, d := range details {
				products = append(products, productFromSku(d))
			}
		}
		s.Dispatch(func() {
			if lastErr != nil {
				// Products from the chunks that did succeed are still
				// delivered; only the cache merge is withheld on failure.
				s.FinishFetch(products, inapp.NewError(responseCodeOf(lastErr), lastErr.Error()), cb)
				return
			}
			s.FinishFetch(products, nil, cb)
		})
	})
}

func productFromSku(d SkuDetails) inapp.Product {
	return inapp.Product{
		ProductID:      d.ProductID,
		Title:          d.Title,
		Description:    d.Description,
		Price:          float64(d.PriceAmountMicros) / 1e6,
		LocalizedPrice: d.Price,
		Currency:       d.PriceCurrencyCode,
	}
}

// Purchase buys one unit of productID.
func (s *Service) Purchase(productID string, cb inapp.PurchaseCallback) {
	s.PurchaseQuantity(productID, 1, cb)
}

// PurchaseQuantity launches the store buy dialog for productID. The
// billing service sells single units; the requested quantity is granted
// to local stock once the one purchase validates.
func (s *Service) PurchaseQuantity(productID string, quantity int, cb inapp.PurchaseCallback) {
	if quantity < 1 {
		quantity = 1
	}
	s.Dispatch(func() {
		if cb != nil {
			s.PutPurchaseCallback(productID, cb)
		}
		s.NotifyPurchaseStarted(s, productID)
		if !s.connected.Load() {
			s.NotifyPurchaseFailed(s, productID, inapp.ServiceUnavailableError())
			return
		}

		payload := uuid.NewString()
		s.pending.Put(payload, productID, pendingBuy{quantity: quantity})
		s.lastLaunch = payload

		s.RunBackground(func() {
			err := s.client.LaunchBuyIntent(s.Context(), productTypeInApp, productID, payload)
			if err == nil {
				return
			}
			s.Dispatch(func() {
				if _, _, ok := s.pending.Take(payload); !ok {
					return
				}
				if s.lastLaunch == payload {
					s.lastLaunch = ""
				}
				if responseCodeOf(err) == ResponseItemAlreadyOwned {
					s.recoverOwnedPurchase(productID, quantity)
					return
				}
				s.NotifyPurchaseFailed(s, productID, inapp.NewError(responseCodeOf(err), err.Error()))
			})
		})
	})
}

// HandleActivityResult feeds a store dialog outcome back into the buy
// flow. It reports whether the result belonged to this service; results
// with a foreign request code are left untouched. Results carrying no
// purchase data, the way a dismissed dialog arrives, resolve against the
// most recent launch. Duplicate deliveries of the same result are no-ops.
func (s *Service) HandleActivityResult(requestCode, resultCode int, result ActivityResult) bool {
	if requestCode != BuyIntentRequestCode {
		return false
	}
	s.Dispatch(func() {
		var data PurchaseData
		parseErr := json.Unmarshal([]byte(result.PurchaseData), &data)

		payload := data.DeveloperPayload
		if payload == "" {
			payload = s.lastLaunch
		}
		productID, buy, ok := s.pending.Take(payload)
		if !ok {
			// Unknown payload: either a duplicate delivery or a result we
			// never asked for. Without a pending entry there is no caller
			// to answer.
			s.Logger().Debug("ignoring unmatched buy result")
			return
		}
		if s.lastLaunch == payload {
			s.lastLaunch = ""
		}

		if result.ResponseCode == ResponseItemAlreadyOwned {
			s.recoverOwnedPurchase(productID, buy.quantity)
			return
		}
		if resultCode != ResultOK || result.ResponseCode != ResponseOK {
			s.NotifyPurchaseFailed(s, productID, inapp.NewError(result.ResponseCode, ResponseDescription(result.ResponseCode)))
			return
		}
		if parseErr != nil {
			s.NotifyPurchaseFailed(s, productID, inapp.WrapError(parseErr))
			return
		}
		if data.ProductID != productID {
			s.NotifyPurchaseFailed(s, productID, inapp.Errorf("buy result is for product %q, expected %q", data.ProductID, productID))
			return
		}

		purchase := purchaseFromData(data, result.PurchaseData, result.Signature, buy.quantity)
		s.FinishPurchase(s, purchase, result.PurchaseData, nil)
	})
	return true
}

// recoverOwnedPurchase handles the already-owned response: the store
// refuses to sell an item the user still owns, so the owned purchase is
// looked up and run through validation as if it had just completed.
// Must be entered on the dispatch context.
func (s *Service) recoverOwnedPurchase(productID string, quantity int) {
	s.Logger().Debug("recovering already owned purchase", inapp.Field{Key: "product_id", Value: productID})
	s.RunBackground(func() {
		owned, err := s.ownedPurchase(productID)
		s.Dispatch(func() {
			if err != nil {
				s.NotifyPurchaseFailed(s, productID, inapp.WrapError(err))
				return
			}
			if owned == nil {
				s.NotifyPurchaseFailed(s, productID, inapp.NewError(ResponseItemAlreadyOwned, ResponseDescription(ResponseItemAlreadyOwned)))
				return
			}
			var data PurchaseData
			if err := json.Unmarshal([]byte(owned.Data), &data); err != nil {
				s.NotifyPurchaseFailed(s, productID, inapp.WrapError(err))
				return
			}
			purchase := purchaseFromData(data, owned.Data, owned.Signature, quantity)
			s.FinishPurchase(s, purchase, owned.Data, nil)
		})
	})
}

// ownedPurchase pages through the user's owned purchases and returns the
// first one for productID, or nil.
func (s *Service) ownedPurchase(productID string) (*SignedPurchase, error) {
	token := ""
	for {
		page, err := s.client.GetPurchases(s.Context(), productTypeInApp, token)
		if err != nil {
			return nil, err
		}
		for i, sp := range page.Purchases {
			var data PurchaseData
			if err := json.Unmarshal([]byte(sp.Data), &data); err != nil {
				continue
			}
			if data.ProductID == productID {
				return &page.Purchases[i], nil
			}
		}
		token = page.ContinuationToken
		if token == "" {
			return nil, nil
		}
	}
}

func purchaseFromData(data PurchaseData, raw, signature string, quantity int) *inapp.Purchase {
	transactionID := data.OrderID
	if transactionID == "" {
		transactionID = data.PurchaseToken
	}
	return &inapp.Purchase{
		TransactionID:    transactionID,
		ProductID:        data.ProductID,
		PurchaseDate:     time.UnixMilli(data.PurchaseTime),
		Quantity:         quantity,
		Signature:        signature,
		PurchaseData:     raw,
		PurchaseToken:    data.PurchaseToken,
		DeveloperPayload: data.DeveloperPayload,
		PurchaseState:    data.PurchaseState,
	}
}

// Consume consumes up to quantity owned units of productID, one owned
// purchase per unit, and reduces local stock by the confirmed count.
func (s *Service) Consume(productID string, quantity int, cb inapp.ConsumeCallback) {
	if quantity < 1 {
		quantity = 1
	}
	if !s.connected.Load() {
		s.Dispatch(func() {
			if cb != nil {
				cb(0, inapp.ServiceUnavailableError())
			}
		})
		return
	}
	s.RunBackground(func() {
		consumed, err := s.consumeOwned(productID, quantity)
		s.Dispatch(func() {
			if consumed > 0 {
				s.ReduceStock(productID, consumed)
			}
			if cb == nil {
				return
			}
			if err != nil && consumed == 0 {
				cb(0, inapp.WrapError(err))
				return
			}
			cb(consumed, nil)
		})
	})
}

func (s *Service) consumeOwned(productID string, quantity int) (int, error) {
	consumed := 0
	token := ""
	for consumed < quantity {
		page, err := s.client.GetPurchases(s.Context(), productTypeInApp, token)
		if err != nil {
			return consumed, err
		}
		for _, sp := range page.Purchases {
			if consumed >= quantity {
				break
			}
			var data PurchaseData
			if err := json.Unmarshal([]byte(sp.Data), &data); err != nil {
				continue
			}
			if data.ProductID != productID {
				continue
			}
			if err := s.client.ConsumePurchase(s.Context(), data.PurchaseToken); err != nil {
				return consumed, err
			}
			consumed++
		}
		token = page.ContinuationToken
		if token == "" {
			break
		}
	}
	return consumed, nil
}

// RestorePurchases re-validates every purchase the user still owns. The
// callback fires once after the last validation resolves; any rejection
// surfaces as the final error.
func (s *Service) RestorePurchases(cb inapp.RestoreCallback) {
	if !s.connected.Load() {
		s.Dispatch(func() {
			if cb != nil {
				cb(inapp.ServiceUnavailableError())
			}
		})
		return
	}
	s.RunBackground(func() {
		var owned []SignedPurchase
		token := ""
		var fetchErr error
		for {
			page, err := s.client.GetPurchases(s.Context(), productTypeInApp, token)
			if err != nil {
				fetchErr = err
				break
			}
			owned = append(owned, page.Purchases...)
			token = page.ContinuationToken
			if token == "" {
				break
			}
		}

		s.Dispatch(func() {
			if fetchErr != nil {
				if cb != nil {
					cb(inapp.WrapError(fetchErr))
				}
				return
			}
			if len(owned) == 0 {
				if cb != nil {
					cb(nil)
				}
				return
			}

			remaining := len(owned)
			var lastErr *inapp.Error
			done := func(_ *inapp.Purchase, err *inapp.Error) {
				if err != nil {
					lastErr = err
				}
				remaining--
				if remaining == 0 && cb != nil {
					cb(lastErr)
				}
			}
			for _, sp := range owned {
				var data PurchaseData
				if err := json.Unmarshal([]byte(sp.Data), &data); err != nil {
					done(nil, inapp.WrapError(err))
					continue
				}
				purchase := purchaseFromData(data, sp.Data, sp.Signature, 1)
				s.FinishPurchase(s, purchase, sp.Data, done)
			}
		})
	})
}

// Close disconnects from the billing service and stops the main context.
func (s *Service) Close() error {
	s.connected.Store(false)
	err := s.client.Disconnect()
	if coreErr := s.Core.Close(); err == nil {
		err = coreErr
	}
	return err
}
