// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/eden-network/eden/builtin/staker/ratio"
	"github.com/eden-network/eden/eden"
)

// Status is the stage of a slash record.
type Status uint8

const (
	StatusReported Status = iota
	StatusVerified
	StatusApplied
	StatusDismissed
)

func (s Status) String() string {
	switch s {
	case StatusReported:
		return "reported"
	case StatusVerified:
		return "verified"
	case StatusApplied:
		return "applied"
	case StatusDismissed:
		return "dismissed"
	}
	return "unknown"
}

// Pending reports whether the record still freezes withdrawals.
func (s Status) Pending() bool {
	return s == StatusReported || s == StatusVerified
}

// Record is a reported offence and its penalty.
type Record struct {
	ID           uint64
	Target       eden.Address
	Reporter     eden.Address
	Era          uint32
	Fraction     ratio.Ratio
	OffenceBlock uint32
	ReportedAt   uint32
	Status       Status
	AppliedAt    uint32
	Slashed      uint256.Int
	// Affected is the target followed by the nominators exposed to it in the era.
	Affected []eden.Address
}

type idKey uint64

func (k idKey) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}
