// Package pebblestore benchmarks CockroachDB's Pebble LSM engine.
package pebblestore

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/pebble"

	"github.com/weiihann/kvbench/store"
)

// EngineName is the registry name of this engine.
const EngineName = "pebble"

func init() {
	store.Register(EngineName, func(path string, _ *slog.Logger) (store.Store, error) {
		return Open(path)
	})
}

// Store wraps a Pebble database. Writes are not synced to disk on
// commit, matching the asynchronous default of the other LSM engines.
type Store struct {
	db *pebble.DB
}

// Open opens or creates a Pebble database in the directory path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}

	return &Store{db: db}, nil
}

// Get implements store.Store.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	v, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	return append([]byte(nil), v...), true, nil
}

// Exists implements store.Store.
func (s *Store) Exists(key []byte) (bool, error) {
	_, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, closer.Close()
}

// NewBatch implements store.Store.
func (s *Store) NewBatch() (store.Batch, error) {
	return &batch{b: s.db.NewBatch()}, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

type batch struct {
	b *pebble.Batch
}

func (b *batch) Put(key, value []byte) error {
	return b.b.Set(key, value, nil)
}

func (b *batch) Delete(key []byte) error {
	return b.b.Delete(key, nil)
}

func (b *batch) Commit() error {
	if b.b == nil {
		return errors.New("pebblestore: batch already finished")
	}

	err := b.b.Commit(pebble.NoSync)
	closeErr := b.b.Close()
	b.b = nil

	if err != nil {
		return err
	}

	return closeErr
}

func (b *batch) Discard() error {
	if b.b == nil {
		return nil
	}

	err := b.b.Close()
	b.b = nil

	return err
}
