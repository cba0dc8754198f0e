// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv defines the key-value storage interface backing durable pool
// state, plus a LevelDB implementation.
package kv

// Getter wraps methods for getting kvs.
type Getter interface {
	// Get returns the value for the given key.
	// An error is returned if the key is not found. Check it via IsNotFound.
	Get(key []byte) (value []byte, err error)
	Has(key []byte) (bool, error)
	IsNotFound(err error) bool

	// NewIterator iterates keys with the given prefix, in ascending order.
	NewIterator(prefix []byte) Iterator
}

// Putter wraps methods for putting kvs.
type Putter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Batch is a set of writes applied atomically.
type Batch interface {
	Putter

	Len() int
	Write() error
}

// Store is the full storage interface.
type Store interface {
	Getter
	Putter

	NewBatch() Batch
	Close() error
}

// Iterator iterates kvs.
type Iterator interface {
	Next() bool
	Release()
	Error() error

	Key() []byte
	Value() []byte
}
