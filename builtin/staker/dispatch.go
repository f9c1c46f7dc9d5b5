// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"time"

	"github.com/pkg/errors"

	"github.com/eden-network/eden/builtin/staker/reverts"
	"github.com/eden-network/eden/metrics"
)

var (
	metricCalls        = metrics.LazyLoadCounterVec("staker_calls_count", []string{"call", "status"})
	metricCallDuration = metrics.LazyLoadHistogram("staker_call_duration_ms", metrics.BucketBlockMillis)
)

// Dispatch executes call on behalf of origin. A failing call reverts its own
// writes and emits nothing.
func (s *Staker) Dispatch(origin Origin, call Call) (err error) {
	start := time.Now()
	checkpoint := s.state.NewCheckpoint()
	var events []Event
	defer func() {
		status := "ok"
		switch {
		case err == nil:
			for _, ev := range events {
				s.deps.Sink.Emit(ev)
			}
		case reverts.IsRevertErr(err):
			status = "reverted"
			s.state.RevertTo(checkpoint)
			logger.Debug("call reverted", "call", call.Name(), "signer", origin.Signer, "err", err)
		default:
			status = "failed"
			s.state.RevertTo(checkpoint)
			logger.Error("call failed", "call", call.Name(), "signer", origin.Signer, "err", err)
		}
		metricCalls().AddWithLabel(1, map[string]string{"call": call.Name(), "status": status})
		metricCallDuration().Observe(time.Since(start).Milliseconds())
	}()

	if call.Privileged() != origin.Governance {
		return reverts.ErrBadOrigin
	}
	if !origin.Governance && origin.Signer.IsZero() {
		return reverts.ErrBadOrigin
	}
	events, err = s.execute(origin, call)
	return err
}

func (s *Staker) execute(origin Origin, call Call) ([]Event, error) {
	now, err := s.currentBlock()
	if err != nil {
		return nil, err
	}
	who := origin.Signer

	switch c := call.(type) {
	case *Bond:
		if c.Amount == nil {
			return nil, reverts.ErrZeroAmount
		}
		if err := s.ledgerService.Bond(who, c.Amount); err != nil {
			return nil, err
		}
		return []Event{&Bonded{Account: who, Amount: c.Amount}}, nil

	case *Unbond:
		if c.Amount == nil {
			return nil, reverts.ErrZeroAmount
		}
		unlockAt, err := s.ledgerService.Unbond(who, c.Amount, now)
		if err != nil {
			return nil, err
		}
		return []Event{&Unbonded{Account: who, Amount: c.Amount, UnlockAt: unlockAt}}, nil

	case *Rebond:
		if c.Amount == nil {
			return nil, reverts.ErrZeroAmount
		}
		if err := s.ledgerService.Rebond(who, c.Amount); err != nil {
			return nil, err
		}
		return []Event{&Bonded{Account: who, Amount: c.Amount, Rebond: true}}, nil

	case *WithdrawUnbonded:
		amount, err := s.ledgerService.WithdrawUnbonded(who, now)
		if err != nil || amount.IsZero() {
			return nil, err
		}
		return []Event{&Withdrawn{Account: who, Amount: amount}}, nil

	case *SetPayee:
		return nil, s.rewardService.SetPreference(who, c.Payee)

	case *RegisterCandidate:
		if err := s.candidateService.Register(who); err != nil {
			return nil, err
		}
		return []Event{&CandidateRegistered{Account: who}}, nil

	case *LeaveCandidates:
		successor, err := s.candidateService.Leave(who)
		if err != nil {
			return nil, err
		}
		if err := s.snapshotService.OnLeave(who, successor); err != nil {
			return nil, err
		}
		return []Event{&CandidateLeft{Account: who}}, nil

	case *Nominate:
		if c.Amount == nil {
			return nil, reverts.ErrZeroAmount
		}
		if err := s.candidateService.Nominate(who, c.Validator, c.Amount); err != nil {
			return nil, err
		}
		return []Event{&Nominated{Nominator: who, Validator: c.Validator, Amount: c.Amount}}, nil

	case *Denominate:
		if err := s.candidateService.Denominate(who, c.Validator); err != nil {
			return nil, err
		}
		return []Event{&Denominated{Nominator: who, Validator: c.Validator}}, nil

	case *PayoutStakers:
		p, err := s.rewardService.PayoutStakers(c.Era, c.Account)
		if err != nil {
			return nil, err
		}
		return []Event{rewardedEvent(p)}, nil

	case *ReportOffence:
		rec, err := s.slashingService.Report(c.Reporter, c.Target, c.Fraction, c.OffenceBlock, now)
		if err != nil {
			return nil, err
		}
		return []Event{&SlashReported{
			SlashID:  rec.ID,
			Target:   rec.Target,
			Era:      rec.Era,
			Fraction: rec.Fraction,
			Affected: len(rec.Affected),
		}}, nil

	case *ApplySlash:
		rec, penalties, err := s.slashingService.Apply(c.ID, now)
		if err != nil {
			return nil, err
		}
		events := make([]Event, 0, len(penalties))
		for _, p := range penalties {
			events = append(events, &Slashed{SlashID: c.ID, Account: p.Account, Fraction: rec.Fraction, Amount: p.Amount})
		}
		return events, nil

	case *VerifySlash:
		rec, err := s.slashingService.Verify(c.ID)
		if err != nil {
			return nil, err
		}
		return []Event{&SlashVerified{SlashID: rec.ID, Target: rec.Target}}, nil

	case *DismissSlash:
		rec, err := s.slashingService.Dismiss(c.ID)
		if err != nil {
			return nil, err
		}
		return []Event{&SlashDismissed{SlashID: rec.ID, Target: rec.Target}}, nil

	case *CancelSlash:
		rec, err := s.slashingService.Cancel(c.ID)
		if err != nil {
			return nil, err
		}
		return []Event{&SlashDismissed{SlashID: rec.ID, Target: rec.Target}}, nil

	case *ForceUnbond:
		amount, err := s.ledgerService.ForceUnbond(c.Account, now)
		if err != nil || amount.IsZero() {
			return nil, err
		}
		l, err := s.ledgerService.Get(c.Account)
		if err != nil {
			return nil, err
		}
		unlockAt := l.Unlocking[len(l.Unlocking)-1].UnlockAt
		return []Event{&Unbonded{Account: c.Account, Amount: amount, UnlockAt: unlockAt, Forced: true}}, nil

	case *SetCommission:
		return nil, s.rewardService.SetCommission(c.Commission)

	case *SetEraRewardPot:
		if c.Pot == nil {
			s.rewardService.ResetPot()
			return nil, nil
		}
		return nil, s.rewardService.SetPot(c.Pot)

	case *AbandonCursor:
		return s.abandon(c.Cursor)
	}
	return nil, errors.Errorf("unknown call %T", call)
}

func (s *Staker) abandon(cursor Cursor) ([]Event, error) {
	switch cursor {
	case CursorSnapshot:
		out, err := s.snapshotService.Abandon()
		if err != nil || out == nil {
			return nil, err
		}
		return s.roundEvents(out), nil
	case CursorPayout:
		e, err := s.rewardService.Abandon()
		if err != nil || e == nil {
			return nil, err
		}
		return []Event{eraPaidEvent(e)}, nil
	}
	return nil, errors.Wrapf(reverts.ErrOutOfRange, "unknown cursor %d", cursor)
}
