// Package storetest provides a conformance suite for store.Store
// implementations.
package storetest

import (
	"bytes"
	mrand "math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weiihann/kvbench/store"
)

// OpenFunc opens a fresh, empty store for one subtest. The suite closes
// it.
type OpenFunc func(t *testing.T) store.Store

// Run exercises the store contract against the stores returned by open.
func Run(t *testing.T, open OpenFunc) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"PutAndGet", testPutAndGet},
		{"LargeValue", testLargeValue},
		{"Exists", testExists},
		{"Delete", testDelete},
		{"DeleteMissing", testDeleteMissing},
		{"Discard", testDiscard},
		{"BatchOrder", testBatchOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			defer func() {
				require.NoError(t, s.Close())
			}()

			tt.fn(t, s)
		})
	}
}

func commit(t *testing.T, s store.Store, fn func(b store.Batch)) {
	t.Helper()

	b, err := s.NewBatch()
	require.NoError(t, err)

	fn(b)

	require.NoError(t, b.Commit())
}

func requireValue(t *testing.T, s store.Store, key, want []byte) {
	t.Helper()

	got, found, err := s.Get(key)
	require.NoError(t, err)
	require.True(t, found, "key %v not found", key)
	require.True(t, bytes.Equal(want, got), "key %v: got %v, want %v", key, got, want)
}

func requireMissing(t *testing.T, s store.Store, key []byte) {
	t.Helper()

	_, found, err := s.Get(key)
	require.NoError(t, err)
	require.False(t, found, "key %v unexpectedly found", key)
}

func testPutAndGet(t *testing.T, s store.Store) {
	commit(t, s, func(b store.Batch) {
		require.NoError(t, b.Put([]byte{0, 0}, []byte{0, 0, 0}))
		require.NoError(t, b.Put([]byte{1, 1}, []byte{1, 1, 1}))
	})

	requireValue(t, s, []byte{0, 0}, []byte{0, 0, 0})
	requireValue(t, s, []byte{1, 1}, []byte{1, 1, 1})
	requireMissing(t, s, []byte{2, 2})
}

func testLargeValue(t *testing.T, s store.Store) {
	rng := mrand.New(mrand.NewSource(1))

	key := make([]byte, 511)
	value := make([]byte, 1<<20)
	rng.Read(key)
	rng.Read(value)

	commit(t, s, func(b store.Batch) {
		require.NoError(t, b.Put(key, value))
	})

	requireValue(t, s, key, value)
}

func testExists(t *testing.T, s store.Store) {
	ok, err := s.Exists([]byte{0, 0})
	require.NoError(t, err)
	require.False(t, ok)

	commit(t, s, func(b store.Batch) {
		require.NoError(t, b.Put([]byte{0, 0}, []byte{0, 0, 0}))
	})

	ok, err = s.Exists([]byte{0, 0})
	require.NoError(t, err)
	require.True(t, ok)
}

func testDelete(t *testing.T, s store.Store) {
	commit(t, s, func(b store.Batch) {
		require.NoError(t, b.Put([]byte{0, 0}, []byte{0, 0, 0}))
	})
	requireValue(t, s, []byte{0, 0}, []byte{0, 0, 0})

	commit(t, s, func(b store.Batch) {
		require.NoError(t, b.Delete([]byte{0, 0}))
	})
	requireMissing(t, s, []byte{0, 0})
}

func testDeleteMissing(t *testing.T, s store.Store) {
	commit(t, s, func(b store.Batch) {
		require.NoError(t, b.Delete([]byte{7, 7}))
	})
	requireMissing(t, s, []byte{7, 7})
}

func testDiscard(t *testing.T, s store.Store) {
	b, err := s.NewBatch()
	require.NoError(t, err)
	require.NoError(t, b.Put([]byte{3}, []byte{3}))
	require.NoError(t, b.Discard())

	requireMissing(t, s, []byte{3})

	// The engine must accept new batches after a discard.
	commit(t, s, func(b store.Batch) {
		require.NoError(t, b.Put([]byte{4}, []byte{4}))
	})
	requireValue(t, s, []byte{4}, []byte{4})
}

func testBatchOrder(t *testing.T, s store.Store) {
	commit(t, s, func(b store.Batch) {
		require.NoError(t, b.Put([]byte{5}, []byte{1}))
		require.NoError(t, b.Delete([]byte{5}))
		require.NoError(t, b.Put([]byte{6}, []byte{1}))
		require.NoError(t, b.Put([]byte{6}, []byte{2}))
	})

	requireMissing(t, s, []byte{5})
	requireValue(t, s, []byte{6}, []byte{2})
}
