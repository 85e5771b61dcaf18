//go:build cgo

package mdbxstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/erigontech/mdbx-go/mdbx"

	"github.com/weiihann/kvbench/store"
)

// EngineName is the registry name of this engine.
const EngineName = "mdbx"

const tableName = "kvbench"

func init() {
	store.Register(EngineName, func(path string, _ *slog.Logger) (store.Store, error) {
		return Open(path)
	})
}

// Store wraps an MDBX environment with a single table. The environment
// is opened with SafeNoSync so commits do not wait for fsync, and may
// grow up to 1 TiB.
type Store struct {
	env *mdbx.Env
	dbi mdbx.DBI
}

// Open opens or creates an MDBX environment in the directory path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create dir %s: %w", path, err)
	}

	env, err := mdbx.NewEnv()
	if err != nil {
		return nil, fmt.Errorf("create env: %w", err)
	}

	if err := env.SetOption(mdbx.OptMaxDB, 1); err != nil {
		env.Close()

		return nil, fmt.Errorf("set max dbs: %w", err)
	}

	if err := env.SetGeometry(-1, -1, 1<<40, -1, -1, 4096); err != nil {
		env.Close()

		return nil, fmt.Errorf("set geometry: %w", err)
	}

	flags := uint(mdbx.NoReadahead | mdbx.Coalesce | mdbx.SafeNoSync)
	if err := env.Open(path, flags, 0o644); err != nil {
		env.Close()

		return nil, fmt.Errorf("open: %w", err)
	}

	var dbi mdbx.DBI
	if err := env.Update(func(txn *mdbx.Txn) error {
		dbi, err = txn.OpenDBI(tableName, mdbx.Create, nil, nil)

		return err
	}); err != nil {
		env.Close()

		return nil, fmt.Errorf("create %s: %w", tableName, err)
	}

	return &Store{env: env, dbi: dbi}, nil
}

// Get implements store.Store.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)

	err := s.view(func(txn *mdbx.Txn) error {
		v, err := txn.Get(s.dbi, key)
		if mdbx.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}

		found = true
		value = append([]byte{}, v...)

		return nil
	})

	return value, found, err
}

// Exists implements store.Store.
func (s *Store) Exists(key []byte) (bool, error) {
	var found bool

	err := s.view(func(txn *mdbx.Txn) error {
		_, err := txn.Get(s.dbi, key)
		if mdbx.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}

		found = true

		return nil
	})

	return found, err
}

// view runs fn in a read transaction. Transactions are bound to the OS
// thread that began them.
func (s *Store) view(fn mdbx.TxnOp) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	return s.env.View(fn)
}

// NewBatch implements store.Store. The calling goroutine stays locked to
// its OS thread until the batch is committed or discarded.
func (s *Store) NewBatch() (store.Batch, error) {
	runtime.LockOSThread()

	txn, err := s.env.BeginTxn(nil, 0)
	if err != nil {
		runtime.UnlockOSThread()

		return nil, fmt.Errorf("begin txn: %w", err)
	}

	return &batch{txn: txn, dbi: s.dbi}, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.env.Close()

	return nil
}

var errFinished = errors.New("mdbxstore: batch already finished")

type batch struct {
	txn *mdbx.Txn
	dbi mdbx.DBI
}

func (b *batch) Put(key, value []byte) error {
	if b.txn == nil {
		return errFinished
	}

	return b.txn.Put(b.dbi, key, value, 0)
}

func (b *batch) Delete(key []byte) error {
	if b.txn == nil {
		return errFinished
	}

	err := b.txn.Del(b.dbi, key, nil)
	if mdbx.IsNotFound(err) {
		return nil
	}

	return err
}

func (b *batch) Commit() error {
	if b.txn == nil {
		return errFinished
	}
	defer b.finish()

	_, err := b.txn.Commit()

	return err
}

func (b *batch) Discard() error {
	if b.txn == nil {
		return nil
	}

	b.txn.Abort()
	b.finish()

	return nil
}

func (b *batch) finish() {
	b.txn = nil
	runtime.UnlockOSThread()
}
