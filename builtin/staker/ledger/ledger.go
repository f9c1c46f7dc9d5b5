// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/holiman/uint256"
)

// Chunk is an amount leaving the ledger once UnlockAt is reached.
type Chunk struct {
	Amount   uint256.Int
	UnlockAt uint32
}

// Ledger is the bonded position of an account.
// Active plus the unlocking amounts always equals Total, and chunks are
// ordered by UnlockAt ascending.
type Ledger struct {
	Total     uint256.Int
	Active    uint256.Int
	Unlocking []Chunk
}

// Unlocked returns the sum of all unlocking chunks.
func (l *Ledger) Unlocked() *uint256.Int {
	sum := new(uint256.Int)
	for i := range l.Unlocking {
		sum.Add(sum, &l.Unlocking[i].Amount)
	}
	return sum
}

// Due returns the sum of chunks unlocked at block.
func (l *Ledger) Due(block uint32) *uint256.Int {
	sum := new(uint256.Int)
	for i := range l.Unlocking {
		if l.Unlocking[i].UnlockAt > block {
			break
		}
		sum.Add(sum, &l.Unlocking[i].Amount)
	}
	return sum
}

// IsEmpty reports whether nothing is bonded.
func (l *Ledger) IsEmpty() bool {
	return l == nil || l.Total.IsZero()
}

// Consistent checks the ledger invariants.
func (l *Ledger) Consistent() bool {
	if l.Active.Cmp(&l.Total) > 0 {
		return false
	}
	sum := new(uint256.Int).Add(&l.Active, l.Unlocked())
	if !sum.Eq(&l.Total) {
		return false
	}
	for i := 1; i < len(l.Unlocking); i++ {
		if l.Unlocking[i-1].UnlockAt >= l.Unlocking[i].UnlockAt {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{Unlocking: make([]Chunk, len(l.Unlocking))}
	c.Total.Set(&l.Total)
	c.Active.Set(&l.Active)
	copy(c.Unlocking, l.Unlocking)
	return c
}
