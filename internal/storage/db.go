// Package storage provides the key-value databases behind the block store.
package storage

import (
	"errors"
	"fmt"

	"github.com/gscnet/blockcore/config"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// DB is the interface for key-value storage.
type DB interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	// ForEach iterates over all keys with the given prefix in key order.
	// The callback receives a copy of the key and value.
	// Return a non-nil error from fn to stop iteration early.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}

// Batch collects writes that are committed atomically. Discard releases
// the batch without applying pending writes; it is safe to call after
// Commit, so callers can defer it.
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Commit() error
	Discard()
}

// Batcher is implemented by databases that support atomic batches.
type Batcher interface {
	NewBatch() Batch
}

// Open opens the database selected by the store configuration.
func Open(cfg config.StoreConfig, path string) (DB, error) {
	switch cfg.Backend {
	case config.StoreBadger:
		return NewBadger(path)
	case config.StoreMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
