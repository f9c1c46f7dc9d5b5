// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/eden-network/eden/builtin/staker"
)

// Sink buffers staking events until their block is flushed.
type Sink struct {
	lock    sync.Mutex
	pending []staker.Event
}

var _ staker.EventSink = (*Sink)(nil)

func NewSink() *Sink {
	return &Sink{}
}

// Emit implements staker.EventSink.
func (s *Sink) Emit(ev staker.Event) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.pending = append(s.pending, ev)
}

// Discard drops the buffered events.
func (s *Sink) Discard() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.pending = nil
}

// Flush writes the buffered events as the events of block number.
func (s *Sink) Flush(db *EventDB, number uint32) (int, error) {
	s.lock.Lock()
	events := s.pending
	s.pending = nil
	s.lock.Unlock()

	batch := db.Prepare(number)
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return 0, errors.Wrapf(err, "encode %s", ev.Kind())
		}
		batch.Add(ev.Kind(), ev.Accounts(), data)
	}
	n := batch.Len()
	if n == 0 {
		return 0, nil
	}
	return n, batch.Commit()
}
