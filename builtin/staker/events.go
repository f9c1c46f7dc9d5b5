// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/holiman/uint256"

	"github.com/eden-network/eden/builtin/staker/ratio"
	"github.com/eden-network/eden/eden"
)

// Event is one of the staking events below.
type Event interface {
	// Kind names the event.
	Kind() string
	// Accounts lists the accounts the event concerns.
	Accounts() []eden.Address
	event()
}

type Bonded struct {
	Account eden.Address `json:"account"`
	Amount  *uint256.Int `json:"amount"`
	Rebond  bool         `json:"rebond,omitempty"`
}

type Unbonded struct {
	Account  eden.Address `json:"account"`
	Amount   *uint256.Int `json:"amount"`
	UnlockAt uint32       `json:"unlockAt"`
	Forced   bool         `json:"forced,omitempty"`
}

type Withdrawn struct {
	Account eden.Address `json:"account"`
	Amount  *uint256.Int `json:"amount"`
}

type Slashed struct {
	SlashID  uint64       `json:"slashId"`
	Account  eden.Address `json:"account"`
	Fraction ratio.Ratio  `json:"fraction"`
	Amount   *uint256.Int `json:"amount"`
}

type Rewarded struct {
	Era     uint32       `json:"era"`
	Account eden.Address `json:"account"`
	Amount  *uint256.Int `json:"amount"`
	Staked  bool         `json:"staked"`
}

type RoundSnapshotted struct {
	Round         uint32       `json:"round"`
	Validators    int          `json:"validators"`
	TotalExposure *uint256.Int `json:"totalExposure"`
	Root          eden.Bytes32 `json:"root"`
}

type RoundDegraded struct {
	Round       uint32 `json:"round"`
	CarriedFrom uint32 `json:"carriedFrom"`
	Streak      uint32 `json:"streak"`
}

type EraPaid struct {
	Era       uint32       `json:"era"`
	Pot       *uint256.Int `json:"pot"`
	Paid      *uint256.Int `json:"paid"`
	Remainder *uint256.Int `json:"remainder"`
	Abandoned bool         `json:"abandoned,omitempty"`
}

type SlashReported struct {
	SlashID  uint64       `json:"slashId"`
	Target   eden.Address `json:"target"`
	Era      uint32       `json:"era"`
	Fraction ratio.Ratio  `json:"fraction"`
	Affected int          `json:"affected"`
}

type SlashVerified struct {
	SlashID uint64       `json:"slashId"`
	Target  eden.Address `json:"target"`
}

type SlashDismissed struct {
	SlashID uint64       `json:"slashId"`
	Target  eden.Address `json:"target"`
}

type CandidateRegistered struct {
	Account eden.Address `json:"account"`
}

type CandidateLeft struct {
	Account eden.Address `json:"account"`
}

type Nominated struct {
	Nominator eden.Address `json:"nominator"`
	Validator eden.Address `json:"validator"`
	Amount    *uint256.Int `json:"amount"`
}

type Denominated struct {
	Nominator eden.Address `json:"nominator"`
	Validator eden.Address `json:"validator"`
}

func (*Bonded) Kind() string              { return "Bonded" }
func (*Unbonded) Kind() string            { return "Unbonded" }
func (*Withdrawn) Kind() string           { return "Withdrawn" }
func (*Slashed) Kind() string             { return "Slashed" }
func (*Rewarded) Kind() string            { return "Rewarded" }
func (*RoundSnapshotted) Kind() string    { return "RoundSnapshotted" }
func (*RoundDegraded) Kind() string       { return "RoundDegraded" }
func (*EraPaid) Kind() string             { return "EraPaid" }
func (*SlashReported) Kind() string       { return "SlashReported" }
func (*SlashVerified) Kind() string       { return "SlashVerified" }
func (*SlashDismissed) Kind() string      { return "SlashDismissed" }
func (*CandidateRegistered) Kind() string { return "CandidateRegistered" }
func (*CandidateLeft) Kind() string       { return "CandidateLeft" }
func (*Nominated) Kind() string           { return "Nominated" }
func (*Denominated) Kind() string         { return "Denominated" }

func (e *Bonded) Accounts() []eden.Address              { return []eden.Address{e.Account} }
func (e *Unbonded) Accounts() []eden.Address            { return []eden.Address{e.Account} }
func (e *Withdrawn) Accounts() []eden.Address           { return []eden.Address{e.Account} }
func (e *Slashed) Accounts() []eden.Address             { return []eden.Address{e.Account} }
func (e *Rewarded) Accounts() []eden.Address            { return []eden.Address{e.Account} }
func (*RoundSnapshotted) Accounts() []eden.Address      { return nil }
func (*RoundDegraded) Accounts() []eden.Address         { return nil }
func (*EraPaid) Accounts() []eden.Address               { return nil }
func (e *SlashReported) Accounts() []eden.Address       { return []eden.Address{e.Target} }
func (e *SlashVerified) Accounts() []eden.Address       { return []eden.Address{e.Target} }
func (e *SlashDismissed) Accounts() []eden.Address      { return []eden.Address{e.Target} }
func (e *CandidateRegistered) Accounts() []eden.Address { return []eden.Address{e.Account} }
func (e *CandidateLeft) Accounts() []eden.Address       { return []eden.Address{e.Account} }
func (e *Nominated) Accounts() []eden.Address           { return []eden.Address{e.Nominator, e.Validator} }
func (e *Denominated) Accounts() []eden.Address         { return []eden.Address{e.Nominator, e.Validator} }

func (*Bonded) event()              {}
func (*Unbonded) event()            {}
func (*Withdrawn) event()           {}
func (*Slashed) event()             {}
func (*Rewarded) event()            {}
func (*RoundSnapshotted) event()    {}
func (*RoundDegraded) event()       {}
func (*EraPaid) event()             {}
func (*SlashReported) event()       {}
func (*SlashVerified) event()       {}
func (*SlashDismissed) event()      {}
func (*CandidateRegistered) event() {}
func (*CandidateLeft) event()       {}
func (*Nominated) event()           {}
func (*Denominated) event()         {}
