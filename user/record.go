// Package user holds the per-user persisted state: profile, friends,
// favorites, day saves and the manual location override.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kevinbrodzinski/nightlife/storage"
)

// record is one JSON value persisted under a fixed key. update writes the
// new value to the store before it replaces the in-memory copy.
type record[T any] struct {
	mu    sync.RWMutex
	store storage.Store
	key   storage.Key
	value T
}

func loadRecord[T any](ctx context.Context, store storage.Store, key storage.Key, def T, logger *slog.Logger) (*record[T], error) {
	r := &record[T]{store: store, key: key, value: def}
	var v T
	ok, err := storage.LoadJSON(ctx, store, key, &v, logger)
	if err != nil {
		return nil, err
	}
	if ok {
		r.value = v
	}
	return r, nil
}

func (r *record[T]) get() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

// update applies fn to the current value. fn must not modify its argument.
func (r *record[T]) update(ctx context.Context, fn func(T) (T, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := fn(r.value)
	if err != nil {
		return err
	}
	if err := storage.SaveJSON(ctx, r.store, r.key, next); err != nil {
		return fmt.Errorf("persist %s: %w", r.key, err)
	}
	r.value = next
	return nil
}

// reset deletes the entry and restores def.
func (r *record[T]) reset(ctx context.Context, def T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Delete(ctx, r.key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete %s: %w", r.key, err)
	}
	r.value = def
	return nil
}
