// Package boltstore benchmarks bbolt, a single-file copy-on-write B+tree.
package boltstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/weiihann/kvbench/store"
)

// EngineName is the registry name of this engine.
const EngineName = "bolt"

const fileName = "kvbench.bolt"

var bucket = []byte("kvbench")

func init() {
	store.Register(EngineName, func(path string, _ *slog.Logger) (store.Store, error) {
		return Open(path)
	})
}

// Store wraps a bbolt database holding all keys in one bucket. Commits
// skip fsync.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database file inside the directory path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create dir %s: %w", path, err)
	}

	db, err := bolt.Open(filepath.Join(path, fileName), 0o600, &bolt.Options{
		Timeout: time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}

	db.NoSync = true

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)

		return err
	}); err != nil {
		db.Close()

		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Get implements store.Store.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucket).Get(key)
		if v != nil {
			found = true
			value = append([]byte{}, v...)
		}

		return nil
	})

	return value, found, err
}

// Exists implements store.Store.
func (s *Store) Exists(key []byte) (bool, error) {
	var found bool

	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucket).Get(key) != nil

		return nil
	})

	return found, err
}

// NewBatch implements store.Store. The batch holds bbolt's single writer
// lock until it is committed or discarded.
func (s *Store) NewBatch() (store.Batch, error) {
	tx, err := s.db.Begin(true)
	if err != nil {
		return nil, err
	}

	return &batch{tx: tx, b: tx.Bucket(bucket)}, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

type batch struct {
	tx *bolt.Tx
	b  *bolt.Bucket
}

func (b *batch) Put(key, value []byte) error {
	return b.b.Put(key, value)
}

func (b *batch) Delete(key []byte) error {
	return b.b.Delete(key)
}

func (b *batch) Commit() error {
	return b.tx.Commit()
}

func (b *batch) Discard() error {
	if err := b.tx.Rollback(); err != nil && !errors.Is(err, bolt.ErrTxClosed) {
		return err
	}

	return nil
}
