// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"encoding/json"

	"github.com/eden-network/eden/eden"
)

// Event is a stored staking event.
type Event struct {
	BlockNumber uint32          `json:"blockNumber"`
	Index       uint32          `json:"index"`
	Kind        string          `json:"kind"`
	Data        json.RawMessage `json:"data"`
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range bounds the block numbers of a query, both ends included.
type Range struct {
	From uint32
	To   uint32
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// Filter selects events. Empty fields match everything.
type Filter struct {
	Account *eden.Address
	Kinds   []string
	Range   *Range
	Options *Options
	Order   Order // default asc
}
