package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
)

// DefaultBucket is the KV bucket used when none is configured.
const DefaultBucket = "NIGHTLIFE_STATE"

// KVStore is a Store backed by a NATS JetStream key/value bucket.
type KVStore struct {
	kv jetstream.KeyValue
}

// NewKVStore opens the bucket, creating it if it doesn't exist.
func NewKVStore(ctx context.Context, js jetstream.JetStream, bucket string) (*KVStore, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("create %s bucket: %w", bucket, err)
	}
	return &KVStore{kv: kv}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Nightlife %s state", strings.ToLower(name)),
		History:     5, // Keep last 5 revisions
	})
}

// Get returns the latest revision of key.
func (s *KVStore) Get(ctx context.Context, key Key) ([]byte, error) {
	entry, err := s.kv.Get(ctx, string(key))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return entry.Value(), nil
}

// Put writes a new revision of key.
func (s *KVStore) Put(ctx context.Context, key Key, value []byte) error {
	if _, err := s.kv.Put(ctx, string(key), value); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Delete places a delete marker for key.
func (s *KVStore) Delete(ctx context.Context, key Key) error {
	if err := s.kv.Delete(ctx, string(key)); err != nil && !isNotFound(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, jetstream.ErrKeyNotFound) || strings.Contains(err.Error(), "key not found")
}
