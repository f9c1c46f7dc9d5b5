// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/eden-network/eden/builtin/staker/ledger"
	"github.com/eden-network/eden/builtin/staker/ratio"
	"github.com/eden-network/eden/builtin/staker/reverts"
	"github.com/eden-network/eden/builtin/staker/snapshot"
	"github.com/eden-network/eden/builtin/storage"
	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/log"
	"github.com/eden-network/eden/metrics"
)

var (
	logger = log.WithContext("pkg", "slashing")

	slotNextID  = storage.Slot("slash-next-id")
	slotRecords = storage.Slot("slash-records")

	metricRecords = metrics.LazyLoadCounterVec("slash_records_count", []string{"status"})
)

// Snapshots reads the exposures an offence is charged against.
type Snapshots interface {
	Snapshot(round uint32, account eden.Address) (*snapshot.Snapshot, error)
}

// Ledgers applies penalties.
type Ledgers interface {
	Slash(account eden.Address, fraction ratio.Ratio) (*ledger.SlashResult, error)
}

// Params are the slashing tunables.
type Params struct {
	EraLength   uint32
	RoundLength uint32
}

// Penalty is what one account lost to an applied record.
type Penalty struct {
	Account eden.Address
	Amount  *uint256.Int
}

// Service tracks slash records through Reported, Verified, Applied or Dismissed.
type Service struct {
	snapshots Snapshots
	ledgers   Ledgers
	params    Params
	nextID    *storage.Uint64
	records   *storage.Mapping[idKey, *Record]
	pending   *PendingIndex
}

func New(sctx *storage.Context, snapshots Snapshots, ledgers Ledgers, params Params) *Service {
	return &Service{
		snapshots: snapshots,
		ledgers:   ledgers,
		params:    params,
		nextID:    storage.NewUint64(sctx, slotNextID),
		records:   storage.NewMapping[idKey, *Record](sctx, slotRecords),
		pending:   NewPendingIndex(sctx),
	}
}

// IsFrozen reports whether account is affected by a pending record.
func (s *Service) IsFrozen(account eden.Address) (bool, error) {
	return s.pending.IsFrozen(account)
}

// Get returns the record, nil when unknown.
func (s *Service) Get(id uint64) (*Record, error) {
	r, err := s.records.Get(idKey(id))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get slash record %d", id)
	}
	return r, nil
}

// Count returns the number of records ever reported.
func (s *Service) Count() (uint64, error) {
	return s.nextID.Get()
}

// EraOf returns the era containing block.
func (s *Service) EraOf(block uint32) uint32 {
	return block / (s.params.EraLength * s.params.RoundLength)
}

// exposed lists the target and every nominator backing it in any retained round of era.
// A target without a snapshot in era is not exposed.
func (s *Service) exposed(target eden.Address, era uint32) ([]eden.Address, error) {
	seen := map[eden.Address]bool{target: true}
	affected := []eden.Address{target}
	var (
		nominators []eden.Address
		found      bool
	)
	first := era * s.params.EraLength
	for r := first; r < first+s.params.EraLength; r++ {
		snap, err := s.snapshots.Snapshot(r, target)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			continue
		}
		found = true
		for _, n := range snap.Nominators {
			if !seen[n.Account] {
				seen[n.Account] = true
				nominators = append(nominators, n.Account)
			}
		}
	}
	if !found {
		return nil, reverts.ErrNotExposed
	}
	eden.SortAddresses(nominators)
	return append(affected, nominators...), nil
}

// Report files an offence of target committed at offenceBlock. Withdrawals of
// every affected account freeze until the record is applied or dismissed.
func (s *Service) Report(reporter, target eden.Address, fraction ratio.Ratio, offenceBlock, now uint32) (*Record, error) {
	logger.Debug("reporting offence", "target", target, "fraction", fraction, "offence", offenceBlock)
	if offenceBlock > now {
		return nil, reverts.ErrInvalidEra
	}
	era := s.EraOf(offenceBlock)
	affected, err := s.exposed(target, era)
	if err != nil {
		return nil, err
	}
	id, err := s.nextID.Get()
	if err != nil {
		return nil, err
	}
	rec := &Record{
		ID:           id,
		Target:       target,
		Reporter:     reporter,
		Era:          era,
		Fraction:     fraction,
		OffenceBlock: offenceBlock,
		ReportedAt:   now,
		Status:       StatusReported,
		Affected:     affected,
	}
	for _, account := range affected {
		if err := s.pending.inc(account); err != nil {
			return nil, err
		}
	}
	s.nextID.Set(id + 1)
	if err := s.records.Set(idKey(id), rec); err != nil {
		return nil, err
	}
	metricRecords().AddWithLabel(1, map[string]string{"status": rec.Status.String()})
	logger.Info("offence reported", "id", id, "target", target, "era", era, "affected", len(affected))
	return rec, nil
}

func (s *Service) load(id uint64) (*Record, error) {
	rec, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, reverts.ErrUnknownSlash
	}
	return rec, nil
}

func (s *Service) transition(rec *Record, to Status) error {
	if rec.Status.Pending() && !to.Pending() {
		for _, account := range rec.Affected {
			if err := s.pending.dec(account); err != nil {
				return err
			}
		}
	}
	rec.Status = to
	metricRecords().AddWithLabel(1, map[string]string{"status": to.String()})
	return s.records.Set(idKey(rec.ID), rec)
}

// Verify confirms a reported offence.
func (s *Service) Verify(id uint64) (*Record, error) {
	rec, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if rec.Status != StatusReported {
		return nil, reverts.ErrSlashNotPending
	}
	return rec, s.transition(rec, StatusVerified)
}

// Dismiss rejects a reported offence.
func (s *Service) Dismiss(id uint64) (*Record, error) {
	rec, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if rec.Status != StatusReported {
		return nil, reverts.ErrSlashNotPending
	}
	return rec, s.transition(rec, StatusDismissed)
}

// Cancel dismisses a record which was not applied yet.
func (s *Service) Cancel(id uint64) (*Record, error) {
	rec, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !rec.Status.Pending() {
		return nil, reverts.ErrSlashNotPending
	}
	logger.Info("slash cancelled", "id", id, "status", rec.Status)
	return rec, s.transition(rec, StatusDismissed)
}

// Apply slashes every affected account by the record's fraction. Only verified
// records apply and an applied record never changes again.
func (s *Service) Apply(id uint64, now uint32) (*Record, []Penalty, error) {
	rec, err := s.load(id)
	if err != nil {
		return nil, nil, err
	}
	if rec.Status != StatusVerified {
		return nil, nil, reverts.ErrSlashNotVerified
	}
	var penalties []Penalty
	for _, account := range rec.Affected {
		res, err := s.ledgers.Slash(account, rec.Fraction)
		if err != nil {
			return nil, nil, err
		}
		if res.Total.IsZero() {
			continue
		}
		rec.Slashed.Add(&rec.Slashed, res.Total)
		penalties = append(penalties, Penalty{Account: account, Amount: res.Total})
	}
	rec.AppliedAt = now
	if err := s.transition(rec, StatusApplied); err != nil {
		return nil, nil, err
	}
	logger.Info("slash applied", "id", id, "target", rec.Target, "amount", &rec.Slashed, "accounts", len(penalties))
	return rec, penalties, nil
}
