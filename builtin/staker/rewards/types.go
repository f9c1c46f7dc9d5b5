// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	"github.com/eden-network/eden/eden"
)

// Status is the payout stage of an era.
type Status uint8

const (
	StatusOpen Status = iota
	StatusClosing
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosing:
		return "closing"
	case StatusClosed:
		return "closed"
	}
	return "unknown"
}

// Payee selects where rewards go.
type Payee uint8

const (
	// PayeeStaked compounds rewards into the active stake.
	PayeeStaked Payee = iota
	// PayeeFree credits rewards to the free balance.
	PayeeFree
)

func (p Payee) String() string {
	if p == PayeeFree {
		return "free"
	}
	return "staked"
}

// ParsePayee parses "staked" or "free".
func ParsePayee(s string) (Payee, bool) {
	switch s {
	case "staked", "":
		return PayeeStaked, true
	case "free":
		return PayeeFree, true
	}
	return 0, false
}

// Era is the reward record of EraLength rounds.
type Era struct {
	Index      uint32
	StartBlock uint32
	EndBlock   uint32
	Pot        uint256.Int
	Paid       uint256.Int
	// TotalExposure is the sum of the total exposures of every snapshot of the era.
	TotalExposure uint256.Int
	Status        Status
	Computed      bool
	Abandoned     bool
	Payees        uint64
}

// Remainder returns the part of the pot not paid out.
func (e *Era) Remainder() *uint256.Int {
	if e.Paid.Gt(&e.Pot) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(&e.Pot, &e.Paid)
}

// Owed is the reward of an account for an era.
type Owed struct {
	Amount uint256.Int
	Paid   bool
}

// Payment is a reward paid to an account.
type Payment struct {
	Era     uint32
	Account eden.Address
	Amount  *uint256.Int
	Payee   Payee
}

type eraKey uint32

func (k eraKey) Bytes() []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(k))
}

type owedKey struct {
	era     uint32
	account eden.Address
}

func (k owedKey) Bytes() []byte {
	return append(binary.BigEndian.AppendUint32(nil, k.era), k.account.Bytes()...)
}

type payeeKey struct {
	era   uint32
	index uint64
}

func (k payeeKey) Bytes() []byte {
	b := binary.BigEndian.AppendUint32(nil, k.era)
	return binary.BigEndian.AppendUint64(b, k.index)
}
