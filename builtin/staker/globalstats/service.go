// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalstats

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/eden-network/eden/builtin/storage"
)

var (
	slotTotalBonded = storage.Slot("total-bonded")
	slotTotalActive = storage.Slot("total-active")
	slotTotalSlash  = storage.Slot("total-slashed")
)

// Service tracks network wide stake totals. Collaborators may only read them.
type Service struct {
	bonded  *storage.Uint256
	active  *storage.Uint256
	slashed *storage.Uint256
}

func New(sctx *storage.Context) *Service {
	return &Service{
		bonded:  storage.NewUint256(sctx, slotTotalBonded),
		active:  storage.NewUint256(sctx, slotTotalActive),
		slashed: storage.NewUint256(sctx, slotTotalSlash),
	}
}

// Totals holds the aggregate stake figures.
type Totals struct {
	Bonded  *uint256.Int
	Active  *uint256.Int
	Slashed *uint256.Int
}

// Totals returns the current aggregate.
func (s *Service) Totals() (*Totals, error) {
	bonded, err := s.bonded.Get()
	if err != nil {
		return nil, err
	}
	active, err := s.active.Get()
	if err != nil {
		return nil, err
	}
	slashed, err := s.slashed.Get()
	if err != nil {
		return nil, err
	}
	return &Totals{Bonded: bonded, Active: active, Slashed: slashed}, nil
}

// Bond records new stake entering the active pool.
func (s *Service) Bond(amount *uint256.Int) error {
	if err := s.bonded.Add(amount); err != nil {
		return errors.Wrap(err, "total bonded")
	}
	return errors.Wrap(s.active.Add(amount), "total active")
}

// Unbond records stake leaving the active pool into the unlocking queue.
func (s *Service) Unbond(amount *uint256.Int) error {
	return errors.Wrap(s.active.Sub(amount), "total active")
}

// Rebond records unlocking stake returning to the active pool.
func (s *Service) Rebond(amount *uint256.Int) error {
	return errors.Wrap(s.active.Add(amount), "total active")
}

// Withdraw records unlocked stake leaving the ledger.
func (s *Service) Withdraw(amount *uint256.Int) error {
	return errors.Wrap(s.bonded.Sub(amount), "total bonded")
}

// Slash records a penalty of total, of which fromActive came from active stake.
func (s *Service) Slash(fromActive, total *uint256.Int) error {
	if err := s.active.Sub(fromActive); err != nil {
		return errors.Wrap(err, "total active")
	}
	if err := s.bonded.Sub(total); err != nil {
		return errors.Wrap(err, "total bonded")
	}
	return errors.Wrap(s.slashed.Add(total), "total slashed")
}
