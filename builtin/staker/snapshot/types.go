// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package snapshot

import (
	"encoding/binary"
	"io"
	"slices"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/eden-network/eden/eden"
)

// Exposure is the stake of one nominator behind a validator.
type Exposure struct {
	Account eden.Address
	Amount  uint256.Int
}

// Snapshot is the frozen exposure of a validator for a round. Nominators are
// ordered by account and TotalExposure is OwnExposure plus every nominator.
type Snapshot struct {
	Round         uint32
	Account       eden.Address
	TotalExposure uint256.Int
	OwnExposure   uint256.Int
	Nominators    []Exposure
}

// Round is the header of a round's validator set. Snapshots of the set are
// stored under CarriedFrom, which equals Index unless the set was carried forward.
type Round struct {
	Index         uint32
	Validators    []eden.Address
	Degraded      bool
	CarriedFrom   uint32
	TotalExposure uint256.Int
	Root          eden.Bytes32
}

// IsCarried reports whether the round reuses an earlier set.
func (r *Round) IsCarried() bool {
	return r.CarriedFrom != r.Index
}

// SetRoot hashes an ordered validator set.
func SetRoot(validators []eden.Address) eden.Bytes32 {
	return eden.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, validators)
	})
}

// less orders snapshots by total exposure descending, then account ascending.
func less(a, b *Snapshot) int {
	if c := b.TotalExposure.Cmp(&a.TotalExposure); c != 0 {
		return c
	}
	return a.Account.Compare(b.Account)
}

// capNominators keeps the limit largest nominators, ties by account ascending,
// and returns them ordered by account.
func capNominators(noms []Exposure, limit int) []Exposure {
	if len(noms) > limit {
		sorted := slices.Clone(noms)
		slices.SortFunc(sorted, func(a, b Exposure) int {
			if c := b.Amount.Cmp(&a.Amount); c != 0 {
				return c
			}
			return a.Account.Compare(b.Account)
		})
		noms = sorted[:limit]
	}
	slices.SortFunc(noms, func(a, b Exposure) int {
		return a.Account.Compare(b.Account)
	})
	return noms
}

type roundKey uint32

func (k roundKey) Bytes() []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(k))
}

type snapshotKey struct {
	round   uint32
	account eden.Address
}

func (k snapshotKey) Bytes() []byte {
	return append(binary.BigEndian.AppendUint32(nil, k.round), k.account.Bytes()...)
}
