// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/holiman/uint256"

	"github.com/eden-network/eden/builtin/staker/ratio"
	"github.com/eden-network/eden/builtin/staker/rewards"
	"github.com/eden-network/eden/eden"
)

// Origin is who dispatches a call: a signed account or governance.
type Origin struct {
	Signer     eden.Address
	Governance bool
}

// Signed returns the origin of a call signed by account.
func Signed(account eden.Address) Origin {
	return Origin{Signer: account}
}

// Root is the governance origin.
var Root = Origin{Governance: true}

// Call is one of the staking calls below.
type Call interface {
	// Name names the call.
	Name() string
	// Privileged reports whether the call needs the governance origin.
	Privileged() bool
	call()
}

// Bond locks amount of the signer's free balance.
type Bond struct{ Amount *uint256.Int }

// Unbond schedules amount of active stake for withdrawal.
type Unbond struct{ Amount *uint256.Int }

// Rebond returns unlocking stake to active.
type Rebond struct{ Amount *uint256.Int }

// WithdrawUnbonded releases matured unlocking stake.
type WithdrawUnbonded struct{}

// SetPayee chooses where rewards are paid.
type SetPayee struct{ Payee rewards.Payee }

// RegisterCandidate offers the signer as validator.
type RegisterCandidate struct{}

// LeaveCandidates withdraws the signer's candidacy.
type LeaveCandidates struct{}

// Nominate backs a candidate with active stake.
type Nominate struct {
	Validator eden.Address
	Amount    *uint256.Int
}

// Denominate withdraws a nomination.
type Denominate struct{ Validator eden.Address }

// PayoutStakers pays an account's reward for an era.
type PayoutStakers struct {
	Era     uint32
	Account eden.Address
}

// ReportOffence files proven misbehaviour of a validator on behalf of Reporter.
// Only governance may file it.
type ReportOffence struct {
	Reporter     eden.Address
	Target       eden.Address
	Fraction     ratio.Ratio
	OffenceBlock uint32
}

// ApplySlash executes a verified slash.
type ApplySlash struct{ ID uint64 }

// VerifySlash confirms a reported offence.
type VerifySlash struct{ ID uint64 }

// DismissSlash rejects a reported offence.
type DismissSlash struct{ ID uint64 }

// CancelSlash dismisses a slash not yet applied.
type CancelSlash struct{ ID uint64 }

// ForceUnbond moves all active stake of an account to unlocking.
type ForceUnbond struct{ Account eden.Address }

// SetCommission overrides the validator commission.
type SetCommission struct{ Commission ratio.Ratio }

// SetEraRewardPot overrides the reward pot. A nil pot restores the configured one.
type SetEraRewardPot struct{ Pot *uint256.Int }

// Cursor names a cross-block job.
type Cursor uint8

const (
	CursorSnapshot Cursor = iota
	CursorPayout
)

// AbandonCursor drops a stuck cross-block job.
type AbandonCursor struct{ Cursor Cursor }

func (*Bond) Name() string              { return "bond" }
func (*Unbond) Name() string            { return "unbond" }
func (*Rebond) Name() string            { return "rebond" }
func (*WithdrawUnbonded) Name() string  { return "withdrawUnbonded" }
func (*SetPayee) Name() string          { return "setPayee" }
func (*RegisterCandidate) Name() string { return "registerCandidate" }
func (*LeaveCandidates) Name() string   { return "leaveCandidates" }
func (*Nominate) Name() string          { return "nominate" }
func (*Denominate) Name() string        { return "denominate" }
func (*PayoutStakers) Name() string     { return "payoutStakers" }
func (*ReportOffence) Name() string     { return "reportOffence" }
func (*ApplySlash) Name() string        { return "applySlash" }
func (*VerifySlash) Name() string       { return "verifySlash" }
func (*DismissSlash) Name() string      { return "dismissSlash" }
func (*CancelSlash) Name() string       { return "cancelSlash" }
func (*ForceUnbond) Name() string       { return "forceUnbond" }
func (*SetCommission) Name() string     { return "setCommission" }
func (*SetEraRewardPot) Name() string   { return "setEraRewardPot" }
func (*AbandonCursor) Name() string     { return "abandonCursor" }

func (*Bond) Privileged() bool              { return false }
func (*Unbond) Privileged() bool            { return false }
func (*Rebond) Privileged() bool            { return false }
func (*WithdrawUnbonded) Privileged() bool  { return false }
func (*SetPayee) Privileged() bool          { return false }
func (*RegisterCandidate) Privileged() bool { return false }
func (*LeaveCandidates) Privileged() bool   { return false }
func (*Nominate) Privileged() bool          { return false }
func (*Denominate) Privileged() bool        { return false }
func (*PayoutStakers) Privileged() bool     { return false }
func (*ReportOffence) Privileged() bool     { return true }
func (*ApplySlash) Privileged() bool        { return false }
func (*VerifySlash) Privileged() bool       { return true }
func (*DismissSlash) Privileged() bool      { return true }
func (*CancelSlash) Privileged() bool       { return true }
func (*ForceUnbond) Privileged() bool       { return true }
func (*SetCommission) Privileged() bool     { return true }
func (*SetEraRewardPot) Privileged() bool   { return true }
func (*AbandonCursor) Privileged() bool     { return true }

func (*Bond) call()              {}
func (*Unbond) call()            {}
func (*Rebond) call()            {}
func (*WithdrawUnbonded) call()  {}
func (*SetPayee) call()          {}
func (*RegisterCandidate) call() {}
func (*LeaveCandidates) call()   {}
func (*Nominate) call()          {}
func (*Denominate) call()        {}
func (*PayoutStakers) call()     {}
func (*ReportOffence) call()     {}
func (*ApplySlash) call()        {}
func (*VerifySlash) call()       {}
func (*DismissSlash) call()      {}
func (*CancelSlash) call()       {}
func (*ForceUnbond) call()       {}
func (*SetCommission) call()     {}
func (*SetEraRewardPot) call()   {}
func (*AbandonCursor) call()     {}
