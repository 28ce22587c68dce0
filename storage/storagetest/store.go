// Package storagetest provides Store doubles for tests.
package storagetest

import (
	"context"
	"sync"

	"github.com/kevinbrodzinski/nightlife/storage"
)

// FlakyStore wraps a MemoryStore and fails writes while FailWrites is set.
type FlakyStore struct {
	*storage.MemoryStore

	mu         sync.Mutex
	failWrites error
	puts       int
}

// NewFlakyStore returns a FlakyStore over an empty memory store.
func NewFlakyStore() *FlakyStore {
	return &FlakyStore{MemoryStore: storage.NewMemoryStore()}
}

// FailWrites makes every later Put and Delete return err. Pass nil to recover.
func (f *FlakyStore) FailWrites(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = err
}

// Put implements storage.Store.
func (f *FlakyStore) Put(ctx context.Context, key storage.Key, value []byte) error {
	f.mu.Lock()
	err := f.failWrites
	f.puts++
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryStore.Put(ctx, key, value)
}

// Delete implements storage.Store.
func (f *FlakyStore) Delete(ctx context.Context, key storage.Key) error {
	f.mu.Lock()
	err := f.failWrites
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryStore.Delete(ctx, key)
}

// PutCount returns how many Put calls were attempted.
func (f *FlakyStore) PutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}
