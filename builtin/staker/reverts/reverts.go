// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// ErrRevert is a user facing failure of a staking call. A revert discards the
// writes of the failing call only.
type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

var (
	ErrInsufficientFunds       = New("insufficient funds")
	ErrInsufficientActiveStake = New("insufficient active stake")
	ErrInsufficientUnlocking   = New("insufficient unlocking stake")
	ErrTooManyUnlockChunks     = New("too many unlock chunks")
	ErrOutOfRange              = New("ratio out of range")
	ErrAlreadyPaid             = New("already paid")
	ErrNoReward                = New("no reward owed")
	ErrEraNotReady             = New("era not ready for payout")
	ErrDegraded                = New("validator set degraded")
	ErrSlashNotVerified        = New("slash not verified")
	ErrSlashNotPending         = New("slash not pending")
	ErrUnknownSlash            = New("unknown slash")
	ErrNotBonded               = New("account not bonded")
	ErrZeroAmount              = New("zero amount")
	ErrNotCandidate            = New("not a candidate")
	ErrAlreadyCandidate        = New("already a candidate")
	ErrNominating              = New("account is nominating")
	ErrNotNominated            = New("nomination not found")
	ErrBadOrigin               = New("bad origin")
	ErrInvalidEra              = New("invalid era")
	ErrNotExposed              = New("target not exposed in era")
)
