package pebblestore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weiihann/kvbench/store"
	"github.com/weiihann/kvbench/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(t.TempDir())
		require.NoError(t, err)

		return s
	})
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()

	s, err := store.Open(EngineName, dir, nil)
	require.NoError(t, err)

	b, err := s.NewBatch()
	require.NoError(t, err)
	require.NoError(t, b.Put([]byte("k"), []byte("v")))
	require.NoError(t, b.Commit())
	require.NoError(t, s.Close())

	s, err = store.Open(EngineName, dir, nil)
	require.NoError(t, err)
	defer s.Close()

	ok, err := s.Exists([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
}
