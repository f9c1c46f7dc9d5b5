// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package candidates

import (
	"slices"

	"github.com/holiman/uint256"

	"github.com/eden-network/eden/eden"
)

// Nomination is stake backing a validator.
type Nomination struct {
	Nominator eden.Address
	Amount    *uint256.Int
}

// Candidate is the exposure view of a validator candidate at the time it is read.
// Nominators are ordered by account.
type Candidate struct {
	Account    eden.Address
	SelfBond   *uint256.Int
	Nominators []Nomination
}

// Total returns the self bond plus every nomination.
func (c *Candidate) Total() *uint256.Int {
	total := new(uint256.Int).Set(c.SelfBond)
	for _, n := range c.Nominators {
		total.Add(total, n.Amount)
	}
	return total
}

// Target is one nomination as stored by the nominator.
type Target struct {
	Validator eden.Address
	Amount    uint256.Int
}

// Nominations are the targets of a nominator, ordered by validator.
type Nominations struct {
	Targets []Target
}

func (n *Nominations) find(validator eden.Address) (int, bool) {
	return slices.BinarySearchFunc(n.Targets, validator, func(t Target, v eden.Address) int {
		return t.Validator.Compare(v)
	})
}

// Sum returns the nominated total.
func (n *Nominations) Sum() *uint256.Int {
	sum := new(uint256.Int)
	for i := range n.Targets {
		sum.Add(sum, &n.Targets[i].Amount)
	}
	return sum
}

// Allocate returns the effective amount backing validator when active is
// spread across the targets in validator order.
func (n *Nominations) Allocate(validator eden.Address, active *uint256.Int) *uint256.Int {
	left := new(uint256.Int).Set(active)
	for i := range n.Targets {
		eff := new(uint256.Int).Set(&n.Targets[i].Amount)
		if eff.Gt(left) {
			eff.Set(left)
		}
		if n.Targets[i].Validator == validator {
			return eff
		}
		left.Sub(left, eff)
	}
	return new(uint256.Int)
}
