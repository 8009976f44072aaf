// Package firestore provides a Firestore implementation of the
// inapp.KeyValueStore interface, one document per key.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Storage implements inapp.KeyValueStore using Google Cloud Firestore.
type Storage struct {
	client     *firestore.Client
	collection string
}

// Config holds Firestore storage configuration.
type Config struct {
	// Collection is the Firestore collection holding the key-value
	// documents. Default: "inapp_kv".
	Collection string
}

type kvDocument struct {
	Value string `firestore:"value"`
}

// New creates a new Firestore storage adapter.
func New(client *firestore.Client, config Config) (*Storage, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client is required")
	}
	if config.Collection == "" {
		config.Collection = "inapp_kv"
	}
	return &Storage{client: client, collection: config.Collection}, nil
}

// Get implements inapp.KeyValueStore.
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	snap, err := s.client.Collection(s.collection).Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("firestore get: %w", err)
	}
	var doc kvDocument
	if err := snap.DataTo(&doc); err != nil {
		return "", false, fmt.Errorf("firestore decode: %w", err)
	}
	return doc.Value, true, nil
}

// Set implements inapp.KeyValueStore.
func (s *Storage) Set(ctx context.Context, key, value string) error {
	_, err := s.client.Collection(s.collection).Doc(key).Set(ctx, kvDocument{Value: value})
	if err != nil {
		return fmt.Errorf("firestore set: %w", err)
	}
	return nil
}

// Delete implements inapp.KeyValueStore.
func (s *Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.Collection(s.collection).Doc(key).Delete(ctx)
	if err != nil {
		return fmt.Errorf("firestore delete: %w", err)
	}
	return nil
}
