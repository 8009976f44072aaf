package inapp

// PurchaseObserver receives purchase lifecycle events, decoupled from the
// per-call completion callbacks. For every purchase the start event
// strictly precedes the terminal event, and the terminal event strictly
// precedes the original caller's callback.
type PurchaseObserver interface {
	OnPurchaseStart(sender Service, productID string)
	OnPurchaseFail(sender Service, productID string, err *Error)
	OnPurchaseComplete(sender Service, purchase *Purchase)
}

// observerList is confined to the dispatch context.
type observerList struct {
	observers []PurchaseObserver
}

func (l *observerList) add(o PurchaseObserver) {
	for _, existing := range l.observers {
		if existing == o {
			return
		}
	}
	l.observers = append(l.observers, o)
}

func (l *observerList) remove(o PurchaseObserver) {
	for i, existing := range l.observers {
		if existing == o {
			l.observers = append(l.observers[:i], l.observers[i+1:]...)
			return
		}
	}
}

func (l *observerList) snapshot() []PurchaseObserver {
	out := make([]PurchaseObserver, len(l.observers))
	copy(out, l.observers)
	return out
}
