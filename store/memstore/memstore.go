// Package memstore is an in-process map engine. It has no durability and
// is meant for tests and dry runs of a workload.
package memstore

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/weiihann/kvbench/store"
)

// EngineName is the registry name of this engine.
const EngineName = "memory"

func init() {
	store.Register(EngineName, func(_ string, _ *slog.Logger) (store.Store, error) {
		return New(), nil
	})
}

var errClosed = errors.New("memstore: batch already finished")

// Store is a map guarded by a read-write mutex.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get implements store.Store.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[string(key)]
	if !ok {
		return nil, false, nil
	}

	return append([]byte(nil), v...), true, nil
}

// Exists implements store.Store.
func (s *Store) Exists(key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.data[string(key)]

	return ok, nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}

// NewBatch implements store.Store.
func (s *Store) NewBatch() (store.Batch, error) {
	return &batch{s: s}, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return nil
}

type mutation struct {
	key    string
	value  []byte
	delete bool
}

type batch struct {
	s    *Store
	ops  []mutation
	done bool
}

func (b *batch) Put(key, value []byte) error {
	if b.done {
		return errClosed
	}

	b.ops = append(b.ops, mutation{key: string(key), value: append([]byte(nil), value...)})

	return nil
}

func (b *batch) Delete(key []byte) error {
	if b.done {
		return errClosed
	}

	b.ops = append(b.ops, mutation{key: string(key), delete: true})

	return nil
}

func (b *batch) Commit() error {
	if b.done {
		return errClosed
	}
	b.done = true

	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	for _, m := range b.ops {
		if m.delete {
			delete(b.s.data, m.key)
		} else {
			b.s.data[m.key] = m.value
		}
	}

	return nil
}

func (b *batch) Discard() error {
	b.done = true
	b.ops = nil

	return nil
}
