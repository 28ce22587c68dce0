package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores_RoundTrip(t *testing.T) {
	fileStore, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	stores := []struct {
		name  string
		store Store
	}{
		{"memory", NewMemoryStore()},
		{"file", fileStore},
	}

	for _, tt := range stores {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			_, err := tt.store.Get(ctx, KeyProfile)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, tt.store.Put(ctx, KeyProfile, []byte(`{"username":"nova"}`)))
			got, err := tt.store.Get(ctx, KeyProfile)
			require.NoError(t, err)
			assert.JSONEq(t, `{"username":"nova"}`, string(got))

			require.NoError(t, tt.store.Delete(ctx, KeyProfile))
			_, err = tt.store.Get(ctx, KeyProfile)
			assert.ErrorIs(t, err, ErrNotFound)

			// Deleting twice is fine
			assert.NoError(t, tt.store.Delete(ctx, KeyProfile))
		})
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	value := []byte("abc")
	require.NoError(t, s.Put(ctx, KeyFriends, value))
	value[0] = 'z'

	got, err := s.Get(ctx, KeyFriends)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestLoadJSON(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key keeps default", func(t *testing.T) {
		s := NewMemoryStore()
		v := []string{"default"}
		found, err := LoadJSON(ctx, s, KeyFriends, &v, nil)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, []string{"default"}, v)
	})

	t.Run("decodes stored value", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, SaveJSON(ctx, s, KeyFriends, []string{"alex", "sam"}))

		var v []string
		found, err := LoadJSON(ctx, s, KeyFriends, &v, nil)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []string{"alex", "sam"}, v)
	})

	t.Run("corrupt entry is discarded", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Put(ctx, KeyFavorites, []byte("{not json")))

		v := map[string]bool{}
		found, err := LoadJSON(ctx, s, KeyFavorites, &v, nil)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, v)

		_, err = s.Get(ctx, KeyFavorites)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("backend errors propagate", func(t *testing.T) {
		s := &failingStore{err: errors.New("disk gone")}
		var v []string
		_, err := LoadJSON(ctx, s, KeyFriends, &v, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk gone")
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory by default", func(t *testing.T) {
		s, closeFn, err := Open(ctx, Options{}, nil)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("file backend", func(t *testing.T) {
		s, closeFn, err := Open(ctx, Options{Backend: BackendFile, Dir: t.TempDir()}, nil)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &FileStore{}, s)
	})

	t.Run("embedded nats backend", func(t *testing.T) {
		if testing.Short() {
			t.Skip("starts a JetStream server")
		}
		dir := t.TempDir()
		s, closeFn, err := Open(ctx, Options{Backend: BackendNATS, Dir: dir, Bucket: "nightlife_test"}, nil)
		require.NoError(t, err)
		assert.IsType(t, &KVStore{}, s)

		_, err = s.Get(ctx, KeySharedPlans)
		assert.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, s.Put(ctx, KeySharedPlans, []byte(`{"ABC123":{}}`)))
		closeFn()

		// JetStream state survives a restart on the same dir.
		s, closeFn, err = Open(ctx, Options{Backend: BackendNATS, Dir: dir, Bucket: "nightlife_test"}, nil)
		require.NoError(t, err)
		defer closeFn()
		got, err := s.Get(ctx, KeySharedPlans)
		require.NoError(t, err)
		assert.JSONEq(t, `{"ABC123":{}}`, string(got))

		require.NoError(t, s.Delete(ctx, KeySharedPlans))
		_, err = s.Get(ctx, KeySharedPlans)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, closeFn, err := Open(ctx, Options{Backend: "etcd"}, nil)
		assert.ErrorIs(t, err, ErrUnknownBackend)
		assert.NotNil(t, closeFn)
	})
}

func TestIsNotFound(t *testing.T) {
	assert.False(t, isNotFound(nil))
	assert.True(t, isNotFound(errors.New("nats: key not found")))
	assert.False(t, isNotFound(errors.New("timeout")))
}

// failingStore returns err from every call.
type failingStore struct {
	err error
}

func (f *failingStore) Get(context.Context, Key) ([]byte, error) { return nil, f.err }
func (f *failingStore) Put(context.Context, Key, []byte) error   { return f.err }
func (f *failingStore) Delete(context.Context, Key) error        { return f.err }
