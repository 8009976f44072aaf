package inapp

import "context"

// KeyValueStore is the persistence collaborator backing the product
// cache and the ciphered stock snapshot. Implementations live under
// storage/.
type KeyValueStore interface {
	// Get returns the value stored under key. ok is false when the key is
	// absent; an absent key is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}
