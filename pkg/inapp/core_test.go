package inapp_test

import (
	"context"
	"testing"
	"time"

	"github.com/mihaimyh/goinapp/pkg/inapp"
	"github.com/mihaimyh/goinapp/storage/memory"
)

type eventRecorder struct {
	events []string
}

func (r *eventRecorder) OnPurchaseStart(_ inapp.Service, productID string) {
	r.events = append(r.events, "start:"+productID)
}

func (r *eventRecorder) OnPurchaseFail(_ inapp.Service, productID string, _ *inapp.Error) {
	r.events = append(r.events, "fail:"+productID)
}

func (r *eventRecorder) OnPurchaseComplete(_ inapp.Service, p *inapp.Purchase) {
	r.events = append(r.events, "complete:"+p.ProductID)
}

func newTestCore(t *testing.T, store inapp.KeyValueStore) *inapp.Core {
	t.Helper()
	core, err := inapp.NewCore(inapp.PlatformGooglePlay, inapp.Config{Store: store})
	if err != nil {
		t.Fatalf("NewCore: %v", err)
	}
	t.Cleanup(func() { core.Close() })
	return core
}

func TestNewCore_RequiresStore(t *testing.T) {
	if _, err := inapp.NewCore(inapp.PlatformGooglePlay, inapp.Config{}); err != inapp.ErrStoreRequired {
		t.Fatalf("err = %v, want ErrStoreRequired", err)
	}
}

func TestCore_StockAccumulates(t *testing.T) {
	core := newTestCore(t, memory.New())

	core.Dispatch(func() {
		core.AddStock("coins", 3)
		core.AddStock("coins", 2)
	})
	core.Sync()

	if got := core.StockOf("coins"); got != 5 {
		t.Fatalf("StockOf = %d, want 5", got)
	}
	if !core.IsPurchased("coins") {
		t.Fatal("IsPurchased must be true with positive stock")
	}
	if core.IsPurchased("gems") {
		t.Fatal("IsPurchased must be false for unowned product")
	}
}

func TestCore_ReduceStockClampsAtZero(t *testing.T) {
	core := newTestCore(t, memory.New())

	core.Dispatch(func() {
		core.AddStock("coins", 2)
		core.ReduceStock("coins", 5)
	})
	core.Sync()

	if got := core.StockOf("coins"); got != 0 {
		t.Fatalf("StockOf = %d, want 0", got)
	}
}

func TestCore_StockSurvivesRestart(t *testing.T) {
	store := memory.New()

	first := newTestCore(t, store)
	first.Dispatch(func() { first.AddStock("remove_ads", 1) })
	first.Sync()

	second := newTestCore(t, store)
	if !second.IsPurchased("remove_ads") {
		t.Fatal("stock must be restored from the store")
	}
}

func TestCore_CorruptStockLoadsEmpty(t *testing.T) {
	store := memory.New()
	if err := store.Set(context.Background(), "inappservice_stock", "not a snapshot"); err != nil {
		t.Fatal(err)
	}

	core := newTestCore(t, store)
	if core.IsPurchased("coins") {
		t.Fatal("corrupt snapshot must load as empty stock")
	}
}

func TestCore_MergeProductsReplacesWholesale(t *testing.T) {
	core := newTestCore(t, memory.New())

	core.Dispatch(func() {
		core.MergeProducts([]inapp.Product{
			{ProductID: "coins", Title: "Coins", Price: 0.99, Currency: "USD"},
			{ProductID: "gems", Title: "Gems", Price: 1.99, Currency: "USD"},
		})
		core.MergeProducts([]inapp.Product{
			{ProductID: "coins", Title: "Bag of Coins", Price: 1.49},
		})
	})
	core.Sync()

	products := core.Products()
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	coins := core.ProductForID("coins")
	if coins == nil {
		t.Fatal("coins missing")
	}
	if coins.Title != "Bag of Coins" || coins.Price != 1.49 {
		t.Fatalf("refetched entry not replaced: %+v", coins)
	}
	if coins.Currency != "" {
		t.Fatalf("stale field survived the replace: %q", coins.Currency)
	}
	if core.ProductForID("gems") == nil {
		t.Fatal("untouched product must survive the merge")
	}
}

func TestCore_ProductsSurviveRestart(t *testing.T) {
	store := memory.New()

	first := newTestCore(t, store)
	first.Dispatch(func() {
		first.MergeProducts([]inapp.Product{{ProductID: "coins", Title: "Coins"}})
	})
	first.Sync()

	second := newTestCore(t, store)
	if second.ProductForID("coins") == nil {
		t.Fatal("product cache must be restored from the store")
	}
}

func TestCore_ObserverAddIsIdempotent(t *testing.T) {
	core := newTestCore(t, memory.New())
	rec := &eventRecorder{}

	core.AddPurchaseObserver(rec)
	core.AddPurchaseObserver(rec)
	core.Dispatch(func() { core.NotifyPurchaseStarted(nil, "coins") })
	core.Sync()

	if len(rec.events) != 1 {
		t.Fatalf("observer notified %d times, want 1", len(rec.events))
	}
}

func TestCore_RemovedObserverStopsReceiving(t *testing.T) {
	core := newTestCore(t, memory.New())
	rec := &eventRecorder{}

	core.AddPurchaseObserver(rec)
	core.RemovePurchaseObserver(rec)
	core.Dispatch(func() { core.NotifyPurchaseStarted(nil, "coins") })
	core.Sync()

	if len(rec.events) != 0 {
		t.Fatalf("removed observer still notified: %v", rec.events)
	}
}

func TestCore_FinishPurchaseAccepted(t *testing.T) {
	core := newTestCore(t, memory.New())
	rec := &eventRecorder{}
	core.AddPurchaseObserver(rec)

	result := make(chan *inapp.Purchase, 1)
	purchase := &inapp.Purchase{TransactionID: "tx-1", ProductID: "coins", Quantity: 2}

	core.Dispatch(func() {
		core.PutPurchaseCallback("coins", func(p *inapp.Purchase, err *inapp.Error) {
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			result <- p
		})
		core.NotifyPurchaseStarted(nil, "coins")
		core.FinishPurchase(nil, purchase, "receipt", nil)
	})

	select {
	case p := <-result:
		if p.TransactionID != "tx-1" {
			t.Fatalf("callback got %+v", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("purchase never completed")
	}
	core.Sync()

	if got := core.StockOf("coins"); got != 2 {
		t.Fatalf("StockOf = %d, want 2", got)
	}
	if len(rec.events) != 2 || rec.events[0] != "start:coins" || rec.events[1] != "complete:coins" {
		t.Fatalf("observer events = %v", rec.events)
	}
}

func TestCore_FinishPurchaseRejected(t *testing.T) {
	core := newTestCore(t, memory.New())
	rec := &eventRecorder{}
	core.AddPurchaseObserver(rec)
	core.SetValidationHandler(inapp.ValidationHandlerFunc(func(_, _ string, completion *inapp.ValidationCompletion) {
		completion.Finish(inapp.Errorf("forged receipt"))
	}))

	result := make(chan *inapp.Error, 1)
	core.Dispatch(func() {
		core.PutPurchaseCallback("coins", func(_ *inapp.Purchase, err *inapp.Error) {
			result <- err
		})
		core.NotifyPurchaseStarted(nil, "coins")
		core.FinishPurchase(nil, &inapp.Purchase{ProductID: "coins", Quantity: 1}, "receipt", nil)
	})

	select {
	case err := <-result:
		if err == nil || err.Message != "forged receipt" {
			t.Fatalf("callback err = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("purchase never resolved")
	}
	core.Sync()

	if core.IsPurchased("coins") {
		t.Fatal("rejected purchase must not grant stock")
	}
	if len(rec.events) != 2 || rec.events[1] != "fail:coins" {
		t.Fatalf("observer events = %v", rec.events)
	}
}

func TestCore_ClearedValidationHandlerAcceptsEverything(t *testing.T) {
	core := newTestCore(t, memory.New())
	core.SetValidationHandler(inapp.ValidationHandlerFunc(func(_, _ string, completion *inapp.ValidationCompletion) {
		completion.Finish(inapp.Errorf("reject"))
	}))
	core.SetValidationHandler(nil)

	var got *inapp.Error = inapp.Errorf("sentinel")
	core.Validate("receipt", "coins", inapp.NewValidationCompletion(func(err *inapp.Error) {
		got = err
	}))
	if got != nil {
		t.Fatalf("cleared handler must accept, got %v", got)
	}
}
