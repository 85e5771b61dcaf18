// Package badgerstore benchmarks Dgraph's Badger engine, a pure Go LSM
// tree with a separate value log.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/weiihann/kvbench/store"
)

// EngineName is the registry name of this engine.
const EngineName = "badger"

func init() {
	store.Register(EngineName, func(path string, logger *slog.Logger) (store.Store, error) {
		return Open(path, logger)
	})
}

// Store wraps a Badger database. Each batch is one read-write
// transaction, so its writes become visible atomically.
type Store struct {
	db *badger.DB
}

// Open opens or creates a Badger database in the directory path.
// Badger's own log output is forwarded to logger.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(slogLogger{logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &Store{db: db}, nil
}

// Get implements store.Store.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)

		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return value, true, nil
}

// Exists implements store.Store.
func (s *Store) Exists(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)

		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// NewBatch implements store.Store.
func (s *Store) NewBatch() (store.Batch, error) {
	return &batch{txn: s.db.NewTransaction(true)}, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

type batch struct {
	txn *badger.Txn
}

func (b *batch) Put(key, value []byte) error {
	return b.txn.Set(key, value)
}

func (b *batch) Delete(key []byte) error {
	return b.txn.Delete(key)
}

func (b *batch) Commit() error {
	return b.txn.Commit()
}

// Discard is safe after Commit.
func (b *batch) Discard() error {
	b.txn.Discard()

	return nil
}

// slogLogger adapts badger.Logger to slog.
type slogLogger struct {
	logger *slog.Logger
}

func (l slogLogger) Errorf(format string, args ...any) {
	l.log(slog.LevelError, format, args...)
}

func (l slogLogger) Warningf(format string, args ...any) {
	l.log(slog.LevelWarn, format, args...)
}

func (l slogLogger) Infof(format string, args ...any) {
	l.log(slog.LevelInfo, format, args...)
}

func (l slogLogger) Debugf(format string, args ...any) {
	l.log(slog.LevelDebug, format, args...)
}

func (l slogLogger) log(level slog.Level, format string, args ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}

	l.logger.Log(ctx, level, strings.TrimSpace(fmt.Sprintf(format, args...)))
}
