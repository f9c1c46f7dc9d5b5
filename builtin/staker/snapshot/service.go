// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package snapshot

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/eden-network/eden/builtin/staker/candidates"
	"github.com/eden-network/eden/builtin/storage"
	"github.com/eden-network/eden/cache"
	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/log"
	"github.com/eden-network/eden/metrics"
)

var (
	logger = log.WithContext("pkg", "snapshot")

	slotMeta      = storage.Slot("snapshot-meta")
	slotJob       = storage.Slot("snapshot-job")
	slotRounds    = storage.Slot("rounds")
	slotSnapshots = storage.Slot("snapshots")

	metricValidators = metrics.LazyLoadGauge("snapshot_validators")
	metricVisited    = metrics.LazyLoadCounter("snapshot_candidates_visited_count")
	metricDegraded   = metrics.LazyLoadCounter("snapshot_degraded_rounds_count")
	metricStepSize   = metrics.LazyLoadHistogram("snapshot_step_size", metrics.BucketBatchSize)
)

const cacheSize = 4096

// Source provides the candidates to snapshot.
type Source interface {
	Head() (eden.Address, error)
	Next(account eden.Address) (eden.Address, error)
	Exposure(validator eden.Address) (*candidates.Candidate, error)
}

// Params are the snapshot tunables.
type Params struct {
	MaxValidators     int
	MinValidators     int
	MaxNominators     int
	DegradedThreshold uint32
	Retention         uint32
	Budget            int
}

type meta struct {
	Latest     uint32
	HasLatest  bool
	Pending    uint32
	HasPending bool
	Streak     uint32
	Pruned     uint32
}

// Job is an in-progress gathering of a round's candidates.
type Job struct {
	Round     uint32
	Cursor    eden.Address
	Exhausted bool
	Visited   uint64
	Top       []Snapshot
}

// Outcome reports a finalized round.
type Outcome struct {
	Round *Round
	// Streak counts consecutive degraded rounds including this one.
	Streak uint32
	// Alert is set once the streak reached the degraded threshold.
	Alert bool
}

// Service freezes candidate exposures into per-round validator snapshots.
type Service struct {
	source    Source
	params    Params
	meta      *storage.Value[meta]
	job       *storage.Value[*Job]
	rounds    *storage.Mapping[roundKey, *Round]
	snapshots *storage.Mapping[snapshotKey, *Snapshot]
	cache     *cache.LRU[snapshotKey, *Snapshot]
}

func New(sctx *storage.Context, source Source, params Params) *Service {
	c, _ := cache.NewLRU[snapshotKey, *Snapshot](cacheSize)
	return &Service{
		source:    source,
		params:    params,
		meta:      storage.NewValue[meta](sctx, slotMeta),
		job:       storage.NewValue[*Job](sctx, slotJob),
		rounds:    storage.NewMapping[roundKey, *Round](sctx, slotRounds),
		snapshots: storage.NewMapping[snapshotKey, *Snapshot](sctx, slotSnapshots),
		cache:     c,
	}
}

// Job returns the running job, nil when idle.
func (s *Service) Job() (*Job, error) {
	return s.job.Get()
}

// Latest returns the index of the newest finalized round.
func (s *Service) Latest() (uint32, bool, error) {
	m, err := s.meta.Get()
	if err != nil {
		return 0, false, err
	}
	return m.Latest, m.HasLatest, nil
}

// Streak returns the number of consecutive degraded rounds.
func (s *Service) Streak() (uint32, error) {
	m, err := s.meta.Get()
	return m.Streak, err
}

// Round returns the header of round, nil when unknown or pruned.
func (s *Service) Round(round uint32) (*Round, error) {
	r, err := s.rounds.Get(roundKey(round))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get round %d", round)
	}
	return r, nil
}

// Snapshot returns the snapshot of account in round, nil when account was not
// selected. Carried rounds resolve to the snapshot of the round they reuse.
func (s *Service) Snapshot(round uint32, account eden.Address) (*Snapshot, error) {
	hdr, err := s.Round(round)
	if err != nil || hdr == nil {
		return nil, err
	}
	key := snapshotKey{round: hdr.CarriedFrom, account: account}
	if snap, ok := s.cache.Get(key); ok {
		return snap, nil
	}
	snap, err := s.snapshots.Get(key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get snapshot %d/%s", hdr.CarriedFrom, account)
	}
	if snap != nil {
		s.cache.Add(key, snap)
	}
	return snap, nil
}

// Begin starts gathering round. While another job runs the round is queued,
// replacing any round queued before.
func (s *Service) Begin(round uint32) error {
	job, err := s.job.Get()
	if err != nil {
		return err
	}
	if job != nil {
		m, err := s.meta.Get()
		if err != nil {
			return err
		}
		if m.HasPending {
			logger.Warn("queued round superseded", "round", m.Pending, "by", round)
		}
		m.Pending, m.HasPending = round, true
		return s.meta.Set(m)
	}
	return s.start(round)
}

func (s *Service) start(round uint32) error {
	head, err := s.source.Head()
	if err != nil {
		return err
	}
	logger.Debug("round gathering started", "round", round)
	return s.job.Set(&Job{Round: round, Cursor: head, Exhausted: head.IsZero()})
}

// Step gathers up to Budget candidates of the running job and finalizes it
// when every candidate was visited.
func (s *Service) Step() (*Outcome, error) {
	job, err := s.job.Get()
	if err != nil || job == nil {
		return nil, err
	}

	n := 0
	for ; n < s.params.Budget && !job.Exhausted; n++ {
		account := job.Cursor
		next, err := s.source.Next(account)
		if err != nil {
			return nil, err
		}
		if err := s.visit(job, account); err != nil {
			return nil, err
		}
		job.Cursor = next
		job.Exhausted = next.IsZero()
		job.Visited++
	}
	metricStepSize().Observe(int64(n))
	metricVisited().Add(int64(n))

	if !job.Exhausted {
		return nil, s.job.Set(job)
	}
	return s.finalize(job, false)
}

func (s *Service) visit(job *Job, account eden.Address) error {
	c, err := s.source.Exposure(account)
	if err != nil {
		return err
	}
	noms := make([]Exposure, 0, len(c.Nominators))
	for _, n := range c.Nominators {
		var e Exposure
		e.Account = n.Nominator
		e.Amount.Set(n.Amount)
		noms = append(noms, e)
	}
	snap := Snapshot{
		Round:      job.Round,
		Account:    account,
		Nominators: capNominators(noms, s.params.MaxNominators),
	}
	snap.OwnExposure.Set(c.SelfBond)
	snap.TotalExposure.Set(c.SelfBond)
	for i := range snap.Nominators {
		snap.TotalExposure.Add(&snap.TotalExposure, &snap.Nominators[i].Amount)
	}
	if snap.TotalExposure.IsZero() {
		return nil
	}

	i, _ := slices.BinarySearchFunc(job.Top, &snap, func(a Snapshot, b *Snapshot) int {
		return less(&a, b)
	})
	if i >= s.params.MaxValidators {
		return nil
	}
	job.Top = slices.Insert(job.Top, i, snap)
	if len(job.Top) > s.params.MaxValidators {
		job.Top = job.Top[:s.params.MaxValidators]
	}
	return nil
}

// OnLeave keeps the running job consistent with a candidate leaving. successor
// is the candidate that followed account.
func (s *Service) OnLeave(account, successor eden.Address) error {
	job, err := s.job.Get()
	if err != nil || job == nil {
		return err
	}
	if !job.Exhausted && job.Cursor == account {
		job.Cursor = successor
		job.Exhausted = successor.IsZero()
	}
	job.Top = slices.DeleteFunc(job.Top, func(snap Snapshot) bool {
		return snap.Account == account
	})
	return s.job.Set(job)
}

// Abandon drops the running job. Its round carries the previous set forward as degraded.
func (s *Service) Abandon() (*Outcome, error) {
	job, err := s.job.Get()
	if err != nil || job == nil {
		return nil, err
	}
	logger.Warn("round gathering abandoned", "round", job.Round, "visited", job.Visited)
	return s.finalize(job, true)
}

func carry(prev *Round, index uint32, degraded bool) *Round {
	if prev == nil {
		return &Round{Index: index, Degraded: degraded, CarriedFrom: index, Root: SetRoot(nil)}
	}
	r := &Round{
		Index:       index,
		Validators:  prev.Validators,
		Degraded:    degraded,
		CarriedFrom: prev.CarriedFrom,
		Root:        prev.Root,
	}
	r.TotalExposure.Set(&prev.TotalExposure)
	return r
}

func (s *Service) finalize(job *Job, abandoned bool) (*Outcome, error) {
	m, err := s.meta.Get()
	if err != nil {
		return nil, err
	}
	var prev *Round
	if m.HasLatest {
		if prev, err = s.Round(m.Latest); err != nil {
			return nil, err
		}
		for i := m.Latest + 1; i < job.Round; i++ {
			if err := s.rounds.Set(roundKey(i), carry(prev, i, false)); err != nil {
				return nil, err
			}
		}
	}

	var hdr *Round
	if !abandoned && len(job.Top) > 0 && len(job.Top) >= s.params.MinValidators {
		hdr = &Round{Index: job.Round, CarriedFrom: job.Round}
		for i := range job.Top {
			snap := &job.Top[i]
			if err := s.snapshots.Set(snapshotKey{job.Round, snap.Account}, snap); err != nil {
				return nil, err
			}
			hdr.Validators = append(hdr.Validators, snap.Account)
			hdr.TotalExposure.Add(&hdr.TotalExposure, &snap.TotalExposure)
		}
		hdr.Root = SetRoot(hdr.Validators)
		m.Streak = 0
	} else {
		hdr = carry(prev, job.Round, true)
		m.Streak++
		metricDegraded().Add(1)
	}
	if err := s.rounds.Set(roundKey(job.Round), hdr); err != nil {
		return nil, err
	}
	m.Latest, m.HasLatest = job.Round, true
	if err := s.prune(&m, job.Round); err != nil {
		return nil, err
	}

	s.job.Clear()
	if m.HasPending {
		m.HasPending = false
		if err := s.start(m.Pending); err != nil {
			return nil, err
		}
	}
	if err := s.meta.Set(m); err != nil {
		return nil, err
	}

	metricValidators().Set(int64(len(hdr.Validators)))
	out := &Outcome{Round: hdr, Streak: m.Streak, Alert: hdr.Degraded && m.Streak >= s.params.DegradedThreshold}
	if hdr.Degraded {
		logger.Warn("round degraded", "round", hdr.Index, "selected", len(job.Top), "carried", hdr.CarriedFrom, "streak", m.Streak)
	} else {
		logger.Info("round snapshotted", "round", hdr.Index, "validators", len(hdr.Validators), "exposure", &hdr.TotalExposure)
	}
	return out, nil
}

// prune drops headers older than the retention window. Snapshots go with the
// last header referencing them.
func (s *Service) prune(m *meta, latest uint32) error {
	if s.params.Retention == 0 {
		return nil
	}
	for ; m.Pruned+s.params.Retention <= latest; m.Pruned++ {
		hdr, err := s.Round(m.Pruned)
		if err != nil {
			return err
		}
		if hdr == nil {
			continue
		}
		next, err := s.Round(m.Pruned + 1)
		if err != nil {
			return err
		}
		if next == nil || next.CarriedFrom != hdr.CarriedFrom {
			for _, v := range hdr.Validators {
				key := snapshotKey{hdr.CarriedFrom, v}
				s.snapshots.Delete(key)
				s.cache.Remove(key)
			}
		}
		s.rounds.Delete(roundKey(m.Pruned))
		logger.Debug("round pruned", "round", m.Pruned)
	}
	return nil
}
