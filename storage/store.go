// Package storage provides the key/value persistence port used by the planner
// stores, with memory, file, NATS KV and Redis backends.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Key identifies one persisted entry.
type Key string

// Fixed keys for every persisted entry.
const (
	KeyFavorites      Key = "favorites"
	KeyDaySaves       Key = "day-saves"
	KeySavedPlans     Key = "saved-plans"
	KeySharedPlans    Key = "shared-plans"
	KeyManualLocation Key = "manual-location"
	KeyProfile        Key = "profile"
	KeyFriends        Key = "friends"
	KeyVenueCatalog   Key = "venue-catalog"
)

// Store is a JSON-agnostic byte store. Get returns ErrNotFound for missing keys.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Put(ctx context.Context, key Key, value []byte) error
	Delete(ctx context.Context, key Key) error
}

// LoadJSON decodes the entry at key into v.
//
// It reports whether a stored value was decoded. A missing key leaves v
// untouched. A corrupt entry is deleted and logged, and v is left untouched
// so callers keep their defaults.
func LoadJSON(ctx context.Context, s Store, key Key, v any, logger *slog.Logger) (bool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn("Discarding corrupt persisted entry", "key", key, "error", err)
		if delErr := s.Delete(ctx, key); delErr != nil && !errors.Is(delErr, ErrNotFound) {
			logger.Warn("Failed to delete corrupt entry", "key", key, "error", delErr)
		}
		return false, nil
	}

	return true, nil
}

// SaveJSON encodes v and writes it under key.
func SaveJSON(ctx context.Context, s Store, key Key, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.Put(ctx, key, data); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}
