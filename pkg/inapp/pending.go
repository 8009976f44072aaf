package inapp

import "sync"

// PendingRequests correlates vendor-issued request ids to the callbacks
// waiting on them. Entries are consumed on first delivery: Take removes
// the entry it returns, so a duplicate or late vendor callback for the
// same id finds nothing and becomes a no-op.
//
// This is the one structure touched from vendor callback threads, so it
// carries its own lock.
type PendingRequests[T any] struct {
	mu      sync.Mutex
	entries map[string]pendingEntry[T]
}

type pendingEntry[T any] struct {
	productID string
	value     T
}

// NewPendingRequests creates an empty correlation table.
func NewPendingRequests[T any]() *PendingRequests[T] {
	return &PendingRequests[T]{entries: make(map[string]pendingEntry[T])}
}

// Put registers value (and the product id the request was for) under a
// vendor request id. A second Put for the same id replaces the first.
func (p *PendingRequests[T]) Put(id, productID string, value T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[id] = pendingEntry[T]{productID: productID, value: value}
}

// Take removes and returns the entry for id. ok is false when the id is
// unknown or was already consumed.
func (p *PendingRequests[T]) Take(id string) (productID string, value T, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[id]
	if !ok {
		var zero T
		return "", zero, false
	}
	delete(p.entries, id)
	return entry.productID, entry.value, true
}

// Len reports how many requests are still in flight.
func (p *PendingRequests[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
