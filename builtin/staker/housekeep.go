// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/eden-network/eden/builtin/staker/reverts"
	"github.com/eden-network/eden/builtin/staker/rewards"
	"github.com/eden-network/eden/builtin/staker/snapshot"
)

// Housekeep runs the block driven work: opening rounds and eras at their
// boundaries, then one budgeted step of snapshot gathering and of era payout.
// It runs before the calls of the block.
func (s *Staker) Housekeep(block uint32) error {
	if block%s.cfg.RoundLength == 0 {
		round := s.RoundOf(block)
		if round%s.cfg.EraLength == 0 {
			era := s.EraOf(round)
			logger.Info("🏠new era", "era", era, "block", block)
			if era > 0 {
				if err := s.rewardService.Close(era - 1); err != nil {
					return errors.Wrap(err, "close era")
				}
			}
			if err := s.rewardService.Open(era, block); err != nil {
				return errors.Wrap(err, "open era")
			}
		}
		logger.Debug("new round", "round", round, "block", block)
		if err := s.snapshotService.Begin(round); err != nil {
			return errors.Wrap(err, "begin round")
		}
	}

	out, err := s.snapshotService.Step()
	if err != nil {
		return errors.Wrap(err, "snapshot step")
	}
	if out != nil {
		s.emit(s.roundEvents(out)...)
	}

	res, err := s.rewardService.Step()
	if err != nil {
		return errors.Wrap(err, "payout step")
	}
	if res != nil {
		for i := range res.Payments {
			s.emit(rewardedEvent(&res.Payments[i]))
		}
		if res.Closed != nil {
			s.emit(eraPaidEvent(res.Closed))
		}
	}
	return nil
}

func (s *Staker) emit(events ...Event) {
	for _, ev := range events {
		s.deps.Sink.Emit(ev)
	}
}

// roundEvents reports a finalized round and alerts governance on a long degraded streak.
func (s *Staker) roundEvents(out *snapshot.Outcome) []Event {
	r := out.Round
	if !r.Degraded {
		return []Event{&RoundSnapshotted{
			Round:         r.Index,
			Validators:    len(r.Validators),
			TotalExposure: new(uint256.Int).Set(&r.TotalExposure),
			Root:          r.Root,
		}}
	}
	if out.Alert {
		s.deps.Governance.OnDegraded(DegradedAlert{
			Round:       r.Index,
			CarriedFrom: r.CarriedFrom,
			Streak:      out.Streak,
			Err:         reverts.ErrDegraded,
		})
	}
	return []Event{&RoundDegraded{Round: r.Index, CarriedFrom: r.CarriedFrom, Streak: out.Streak}}
}

func rewardedEvent(p *rewards.Payment) Event {
	return &Rewarded{Era: p.Era, Account: p.Account, Amount: p.Amount, Staked: p.Payee == rewards.PayeeStaked}
}

func eraPaidEvent(e *rewards.Era) Event {
	return &EraPaid{
		Era:       e.Index,
		Pot:       new(uint256.Int).Set(&e.Pot),
		Paid:      new(uint256.Int).Set(&e.Paid),
		Remainder: e.Remainder(),
		Abandoned: e.Abandoned,
	}
}
