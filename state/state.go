// Copyright (c) 2026 The Collective developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state provides checkpointed access to durable pool state.
//
// Reads and writes go through an in-memory journal stacked on the backing
// store. A top-level operation takes a checkpoint, mutates freely, and either
// commits the journal as one atomic batch or reverts to the checkpoint,
// leaving no partial effect.
package state

import (
	"fmt"

	"github.com/collectivefund/collective/kv"
)

// StorageEncoder defines the interface of a storage value encoder.
// An encoded nil value means the entry is treated as deleted.
type StorageEncoder interface {
	Encode() ([]byte, error)
}

// StorageDecoder defines the interface of a storage value decoder.
// Decode is called with nil data when the entry does not exist.
type StorageDecoder interface {
	Decode(data []byte) error
}

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

type level struct {
	kvs map[string][]byte // nil value marks deletion
}

// State manages durable pool state with save-restore semantics.
type State struct {
	store  kv.Store
	levels []*level
}

// New creates a state instance over the given store.
func New(store kv.Store) *State {
	return &State{
		store:  store,
		levels: []*level{{kvs: make(map[string][]byte)}},
	}
}

// NewCheckpoint makes a checkpoint of the current state.
// It returns a revision to be used with RevertTo.
func (s *State) NewCheckpoint() int {
	s.levels = append(s.levels, &level{kvs: make(map[string][]byte)})
	return len(s.levels) - 1
}

// RevertTo reverts all writes made since the given checkpoint.
func (s *State) RevertTo(revision int) {
	if revision < 1 || revision > len(s.levels) {
		panic(fmt.Sprintf("state: invalid revision %d", revision))
	}
	s.levels = s.levels[:revision]
}

// GetRawStorage returns the raw value for the given key, or nil if absent.
func (s *State) GetRawStorage(key []byte) ([]byte, error) {
	for i := len(s.levels) - 1; i >= 0; i-- {
		if v, ok := s.levels[i].kvs[string(key)]; ok {
			return v, nil
		}
	}
	v, err := s.store.Get(key)
	if err != nil {
		if s.store.IsNotFound(err) {
			return nil, nil
		}
		return nil, &Error{err}
	}
	return v, nil
}

// SetRawStorage stages the raw value for the given key.
// A nil or empty value deletes the entry on commit.
func (s *State) SetRawStorage(key, value []byte) {
	s.levels[len(s.levels)-1].kvs[string(key)] = value
}

// DecodeStorage decodes the stored value for the given key into dec.
func (s *State) DecodeStorage(key []byte, dec StorageDecoder) error {
	raw, err := s.GetRawStorage(key)
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// EncodeStorage encodes enc and stages it under the given key.
func (s *State) EncodeStorage(key []byte, enc StorageEncoder) error {
	raw, err := enc.Encode()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(key, raw)
	return nil
}

// Commit flattens the journal into a single batch and writes it to the
// backing store. The journal is empty afterwards.
func (s *State) Commit() error {
	batch := s.store.NewBatch()
	flat := make(map[string][]byte)
	for _, lvl := range s.levels {
		for k, v := range lvl.kvs {
			flat[k] = v
		}
	}
	for k, v := range flat {
		if len(v) == 0 {
			if err := batch.Delete([]byte(k)); err != nil {
				return &Error{err}
			}
		} else {
			if err := batch.Put([]byte(k), v); err != nil {
				return &Error{err}
			}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}
	s.levels = []*level{{kvs: make(map[string][]byte)}}
	return nil
}

// Iterate walks committed entries with the given key prefix. Staged writes
// are not visited; call Commit first when staged entries must be observed.
func (s *State) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	iter := s.store.NewIterator(prefix)
	defer iter.Release()
	for iter.Next() {
		k := append([]byte(nil), iter.Key()...)
		v := append([]byte(nil), iter.Value()...)
		if err := fn(k, v); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return &Error{err}
	}
	return nil
}
