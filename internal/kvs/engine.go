// Package kvs implements spec §4.2: the transaction manager layered
// over an ordered byte-keyed storage engine. The manager itself is
// engine-agnostic; internal/kvs/boltengine supplies the default
// bbolt-backed Engine.
package kvs

import "context"

// KV is a single key/value pair returned by a range scan.
type KV struct {
	Key   []byte
	Value []byte
}

// Snapshot is a read-only view of the keyspace as of one point in
// time, the unit an Engine hands a transaction to read from.
type Snapshot interface {
	// Get returns the value at key, or (nil, false) if absent.
	Get(key []byte) ([]byte, bool, error)
	// Scan iterates [lo, hi) in key order, or reverse order if
	// reverse is true, yielding at most limit pairs (0 = unlimited).
	Scan(lo, hi []byte, reverse bool, limit int) ([]KV, error)
	// Close releases resources the snapshot holds.
	Close() error
}

// Batch is a set of writes an Engine applies atomically.
type Batch interface {
	Set(key, value []byte)
	Delete(key []byte)
	DeleteRange(lo, hi []byte)
}

// Engine is the storage substrate a Transaction reads from and
// writes through. Implementations must provide snapshot isolation:
// a Snapshot's view must not change after it is taken, even while
// concurrent writers commit.
type Engine interface {
	// NewSnapshot opens a consistent read view of the current
	// committed state.
	NewSnapshot(ctx context.Context) (Snapshot, error)
	// Apply commits a batch atomically. checkConflict, if non-nil, is
	// invoked by the engine immediately before the batch is made
	// durable, still holding the engine's write lock, so an
	// optimistic transaction's compare-and-commit check happens
	// without a race against another writer.
	Apply(ctx context.Context, batch Batch, checkConflict func(Snapshot) error) error
	Close() error
}
