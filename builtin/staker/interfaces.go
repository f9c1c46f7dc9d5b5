// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/holiman/uint256"

	"github.com/eden-network/eden/eden"
)

// Balances moves funds between the free and reserved balance of accounts.
type Balances interface {
	Reserve(account eden.Address, amount *uint256.Int) error
	Unreserve(account eden.Address, amount *uint256.Int) error
	Transfer(from, to eden.Address, amount *uint256.Int) error
	MintInto(account eden.Address, amount *uint256.Int) error
	BurnFrom(account eden.Address, amount *uint256.Int) error
	Free(account eden.Address) (*uint256.Int, error)
}

// Clock tells the block being executed.
type Clock interface {
	CurrentBlock() uint32
}

// DegradedAlert is raised for every degraded round once the streak reached the threshold.
type DegradedAlert struct {
	Round       uint32
	CarriedFrom uint32
	Streak      uint32
	Err         error
}

// Governance is notified of conditions needing an operator decision.
type Governance interface {
	OnDegraded(alert DegradedAlert)
}

// Treasury receives the undistributed part of reward pots.
type Treasury interface {
	Deposit(amount *uint256.Int) error
}

// EventSink receives the events of successful calls and of housekeeping.
type EventSink interface {
	Emit(ev Event)
}

// Deps are the collaborators of the staker.
type Deps struct {
	Balances   Balances
	Clock      Clock
	Governance Governance
	Treasury   Treasury
	Sink       EventSink
}

type nopGovernance struct{}

func (nopGovernance) OnDegraded(alert DegradedAlert) {
	logger.Warn("degraded round alert", "round", alert.Round, "streak", alert.Streak, "err", alert.Err)
}

type nopSink struct{}

func (nopSink) Emit(Event) {}
