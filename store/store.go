// Package store defines the capability contract a storage engine must
// satisfy to be benchmarked, and a registry of named engines.
//
// Engines live in sub-packages and register themselves from init, so a
// binary selects the engines it supports with blank imports:
//
//	import _ "github.com/weiihann/kvbench/store/pebblestore"
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ErrUnknownEngine is returned by Open for a name no engine registered.
var ErrUnknownEngine = errors.New("unknown storage engine")

// Store is an open storage engine handle.
type Store interface {
	// Get returns the value stored under key. found is false if the
	// key does not exist.
	Get(key []byte) (value []byte, found bool, err error)
	// Exists reports whether key is stored.
	Exists(key []byte) (bool, error)
	// NewBatch starts an atomic batch of writes.
	NewBatch() (Batch, error)
	Close() error
}

// Batch collects puts and deletes that are applied atomically on Commit.
// A batch must not be used after Commit or Discard.
type Batch interface {
	Put(key, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key []byte) error
	Commit() error
	// Discard releases an uncommitted batch. It is a no-op after Commit.
	Discard() error
}

// Opener opens the engine stored at path. The logger receives the
// engine's own diagnostics where the engine supports it.
type Opener func(path string, logger *slog.Logger) (Store, error)

var (
	mu      sync.RWMutex
	engines = make(map[string]Opener)
)

// Register makes an engine available under name. It panics if name is
// registered twice or opener is nil.
func Register(name string, opener Opener) {
	mu.Lock()
	defer mu.Unlock()

	if opener == nil {
		panic("store: Register opener is nil")
	}

	if _, dup := engines[name]; dup {
		panic("store: Register called twice for engine " + name)
	}

	engines[name] = opener
}

// Engines returns the sorted names of the registered engines.
func Engines() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Open opens the named engine at path.
func Open(name, path string, logger *slog.Logger) (Store, error) {
	mu.RLock()
	opener, ok := engines[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownEngine, name, Engines())
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s, err := opener(path, logger.With(slog.String("engine", name)))
	if err != nil {
		return nil, fmt.Errorf("open %s at %s: %w", name, path, err)
	}

	return s, nil
}
