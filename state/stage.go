// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"io"
	"slices"

	"github.com/eden-network/eden/eden"
)

// Stage abstracts changes pending on a state.
type Stage struct {
	state *State
	keys  [][]byte
	vals  [][]byte
}

func newStage(s *State, changes map[storageKey][]byte) *Stage {
	type entry struct {
		key []byte
		val []byte
	}
	entries := make([]entry, 0, len(changes))
	for k, v := range changes {
		entries = append(entries, entry{k.encode(), v})
	}
	slices.SortFunc(entries, func(a, b entry) int { return bytes.Compare(a.key, b.key) })

	stage := &Stage{state: s}
	for _, e := range entries {
		stage.keys = append(stage.keys, e.key)
		stage.vals = append(stage.vals, e.val)
	}
	return stage
}

// Len returns the number of changed keys.
func (s *Stage) Len() int {
	return len(s.keys)
}

// Hash computes the digest of the changes in key order.
func (s *Stage) Hash() eden.Bytes32 {
	return eden.Blake2bFn(func(w io.Writer) {
		for i, k := range s.keys {
			w.Write(k)
			w.Write(s.vals[i])
		}
	})
}

// Commit writes the changes into the underlying store and clears the state's pending writes.
func (s *Stage) Commit() error {
	batch := s.state.db.NewBatch()
	for i, k := range s.keys {
		var err error
		if len(s.vals[i]) == 0 {
			err = batch.Delete(k)
		} else {
			err = batch.Put(k, s.vals[i])
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}
	s.state.reset()
	return nil
}
