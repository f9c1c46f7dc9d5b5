// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/kv"
	"github.com/eden-network/eden/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr eden.Address
	key  eden.Bytes32
}

func (k storageKey) encode() []byte {
	b := make([]byte, 0, eden.AddressLength+32)
	b = append(b, k.addr[:]...)
	return append(b, k.key[:]...)
}

// State manages module storage on top of a kv store.
// Writes stay in memory with checkpoint/revert support until staged and committed.
type State struct {
	db kv.Store
	sm *stackedmap.StackedMap[storageKey, []byte]
}

// New create state object.
func New(db kv.Store) *State {
	s := &State{db: db}
	s.reset()
	return s
}

func (s *State) reset() {
	s.sm = stackedmap.New(func(key storageKey) ([]byte, bool, error) {
		val, err := kv.GetOrNil(s.db, key.encode())
		if err != nil {
			return nil, false, &Error{err}
		}
		return val, true, nil
	})
}

// GetRawStorage returns the raw value stored under (addr, key), nil when absent.
func (s *State) GetRawStorage(addr eden.Address, key eden.Bytes32) ([]byte, error) {
	val, _, err := s.sm.Get(storageKey{addr, key})
	return val, err
}

// SetRawStorage sets the raw value of (addr, key). Empty value deletes the entry.
func (s *State) SetRawStorage(addr eden.Address, key eden.Bytes32, raw []byte) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage sets storage value encoded by given enc method.
func (s *State) EncodeStorage(addr eden.Address, key eden.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be passed through.
func (s *State) DecodeStorage(addr eden.Address, key eden.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	return dec(raw)
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	if revision < 0 || revision >= s.sm.Depth() {
		panic(fmt.Errorf("invalid revision %d", revision))
	}
	s.sm.PopTo(revision)
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}

// Stage collects the pending changes. The state keeps them until Commit.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey][]byte)
	s.sm.Journal(func(key storageKey, val []byte) bool {
		changes[key] = val
		return true
	})
	return newStage(s, changes)
}
