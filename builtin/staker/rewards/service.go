// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"slices"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/eden-network/eden/builtin/staker/ratio"
	"github.com/eden-network/eden/builtin/staker/reverts"
	"github.com/eden-network/eden/builtin/staker/snapshot"
	"github.com/eden-network/eden/builtin/storage"
	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/log"
	"github.com/eden-network/eden/metrics"
)

var (
	logger = log.WithContext("pkg", "rewards")

	slotMeta       = storage.Slot("rewards-meta")
	slotJob        = storage.Slot("rewards-job")
	slotEras       = storage.Slot("eras")
	slotOwed       = storage.Slot("owed")
	slotPayees     = storage.Slot("payees")
	slotPreference = storage.Slot("payee-preference")
	slotCommission = storage.Slot("commission")

	metricPaid     = metrics.LazyLoadCounterVec("rewards_paid_count", []string{"payee"})
	metricEraPaid  = metrics.LazyLoadCounter("rewards_era_closed_count")
	metricStepSize = metrics.LazyLoadHistogram("rewards_step_size", metrics.BucketBatchSize)
)

// Snapshots reads frozen validator sets.
type Snapshots interface {
	Latest() (uint32, bool, error)
	Round(round uint32) (*snapshot.Round, error)
	Snapshot(round uint32, account eden.Address) (*snapshot.Snapshot, error)
}

// Minter creates reward funds in a free balance.
type Minter interface {
	MintInto(account eden.Address, amount *uint256.Int) error
}

// Stakes compounds rewards into a ledger.
type Stakes interface {
	Credit(account eden.Address, amount *uint256.Int) error
}

// Treasury receives what an era did not pay out.
type Treasury interface {
	Deposit(amount *uint256.Int) error
}

// Params are the reward tunables.
type Params struct {
	EraLength   uint32
	RoundLength uint32
	Budget      int
	Commission  ratio.Ratio
	Pot         *uint256.Int
}

type phase uint8

const (
	phaseCompute phase = iota
	phasePay
)

// Job is the in-progress payout of an era.
type Job struct {
	Era   uint32
	Phase phase
	Round uint32
	Index uint32
	Payee uint64
}

type meta struct {
	Queue []uint32
}

// StepResult reports the work of one step.
type StepResult struct {
	Payments []Payment
	// Closed is set when the step closed an era.
	Closed *Era
}

// Service computes and pays era rewards from round snapshots.
type Service struct {
	sctx       *storage.Context
	snapshots  Snapshots
	minter     Minter
	stakes     Stakes
	treasury   Treasury
	params     Params
	pot        *storage.ConfigVariable
	commission *storage.Value[*ratio.Ratio]
	meta       *storage.Value[meta]
	job        *storage.Value[*Job]
	eras       *storage.Mapping[eraKey, *Era]
	owed       *storage.Mapping[owedKey, *Owed]
	payees     *storage.Mapping[payeeKey, eden.Address]
	preference *storage.Mapping[eden.Address, Payee]
}

func New(sctx *storage.Context, snapshots Snapshots, minter Minter, stakes Stakes, treasury Treasury, params Params) *Service {
	pot := params.Pot
	if pot == nil {
		pot = new(uint256.Int)
	}
	return &Service{
		sctx:       sctx,
		snapshots:  snapshots,
		minter:     minter,
		stakes:     stakes,
		treasury:   treasury,
		params:     params,
		pot:        storage.NewConfigVariable("era-reward-pot", pot),
		commission: storage.NewValue[*ratio.Ratio](sctx, slotCommission),
		meta:       storage.NewValue[meta](sctx, slotMeta),
		job:        storage.NewValue[*Job](sctx, slotJob),
		eras:       storage.NewMapping[eraKey, *Era](sctx, slotEras),
		owed:       storage.NewMapping[owedKey, *Owed](sctx, slotOwed),
		payees:     storage.NewMapping[payeeKey, eden.Address](sctx, slotPayees),
		preference: storage.NewMapping[eden.Address, Payee](sctx, slotPreference),
	}
}

// Commission returns the validator commission in force.
func (s *Service) Commission() (ratio.Ratio, error) {
	r, err := s.commission.Get()
	if err != nil {
		return ratio.Ratio{}, err
	}
	if r == nil {
		return s.params.Commission, nil
	}
	return *r, nil
}

// SetCommission overrides the configured commission.
func (s *Service) SetCommission(r ratio.Ratio) error {
	return s.commission.Set(&r)
}

// Pot returns the reward pot of the next era to close.
func (s *Service) Pot() (*uint256.Int, error) {
	return s.pot.Get(s.sctx)
}

// SetPot overrides the configured pot. A zero pot pays no rewards.
func (s *Service) SetPot(v *uint256.Int) error {
	return s.pot.Override(s.sctx, v)
}

// ResetPot restores the configured pot.
func (s *Service) ResetPot() {
	s.pot.Reset(s.sctx)
}

// Preference returns the payee preference of account.
func (s *Service) Preference(account eden.Address) (Payee, error) {
	return s.preference.Get(account)
}

// SetPreference sets where rewards of account are paid.
func (s *Service) SetPreference(account eden.Address, payee Payee) error {
	if payee == PayeeStaked {
		s.preference.Delete(account)
		return nil
	}
	return s.preference.Set(account, payee)
}

// Era returns the record of era, nil when unknown.
func (s *Service) Era(era uint32) (*Era, error) {
	e, err := s.eras.Get(eraKey(era))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get era %d", era)
	}
	return e, nil
}

// Owed returns what account earned in era, nil when nothing.
func (s *Service) Owed(era uint32, account eden.Address) (*Owed, error) {
	return s.owed.Get(owedKey{era, account})
}

// Job returns the running payout job, nil when idle.
func (s *Service) Job() (*Job, error) {
	return s.job.Get()
}

// Queue returns the closed eras waiting for payout.
func (s *Service) Queue() ([]uint32, error) {
	m, err := s.meta.Get()
	return m.Queue, err
}

// Open records the start of era.
func (s *Service) Open(era uint32, startBlock uint32) error {
	length := s.params.EraLength * s.params.RoundLength
	return s.eras.Set(eraKey(era), &Era{
		Index:      era,
		StartBlock: startBlock,
		EndBlock:   startBlock + length - 1,
		Status:     StatusOpen,
	})
}

// Close moves era into payout with the pot in force and queues it.
func (s *Service) Close(era uint32) error {
	e, err := s.Era(era)
	if err != nil {
		return err
	}
	if e == nil {
		return errors.Errorf("era %d was never opened", era)
	}
	pot, err := s.Pot()
	if err != nil {
		return err
	}
	e.Pot.Set(pot)
	e.Status = StatusClosing
	if err := s.eras.Set(eraKey(era), e); err != nil {
		return err
	}
	m, err := s.meta.Get()
	if err != nil {
		return err
	}
	m.Queue = append(m.Queue, era)
	logger.Info("era closing", "era", era, "pot", pot, "queued", len(m.Queue))
	return s.meta.Set(m)
}

func (s *Service) firstRound(era uint32) uint32 {
	return era * s.params.EraLength
}

func (s *Service) lastRound(era uint32) uint32 {
	return (era+1)*s.params.EraLength - 1
}

// Step advances the running payout by up to Budget entries, picking the next
// queued era when idle.
func (s *Service) Step() (*StepResult, error) {
	job, err := s.job.Get()
	if err != nil {
		return nil, err
	}
	if job == nil {
		if job, err = s.next(); err != nil || job == nil {
			return nil, err
		}
	}
	e, err := s.Era(job.Era)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errors.Errorf("payout of unknown era %d", job.Era)
	}

	res := &StepResult{}
	budget := s.params.Budget
	if job.Phase == phaseCompute {
		latest, ok, err := s.snapshots.Latest()
		if err != nil {
			return nil, err
		}
		if !ok || latest < s.lastRound(job.Era) {
			return res, s.job.Set(job)
		}
		if job.Round == s.firstRound(job.Era) && job.Index == 0 {
			if err := s.measure(e); err != nil {
				return nil, err
			}
		}
		n, err := s.compute(job, e, budget)
		if err != nil {
			return nil, err
		}
		budget -= n
	}
	if job.Phase == phasePay && budget > 0 {
		if err := s.pay(job, e, budget, res); err != nil {
			return nil, err
		}
	}
	if err := s.eras.Set(eraKey(e.Index), e); err != nil {
		return nil, err
	}
	if e.Status == StatusClosed {
		s.job.Clear()
		res.Closed = e
		return res, nil
	}
	return res, s.job.Set(job)
}

func (s *Service) next() (*Job, error) {
	m, err := s.meta.Get()
	if err != nil || len(m.Queue) == 0 {
		return nil, err
	}
	era := m.Queue[0]
	m.Queue = slices.Delete(m.Queue, 0, 1)
	if err := s.meta.Set(m); err != nil {
		return nil, err
	}
	logger.Debug("era payout started", "era", era)
	return &Job{Era: era, Phase: phaseCompute, Round: s.firstRound(era)}, nil
}

// measure sums the exposure of every retained round of the era.
func (s *Service) measure(e *Era) error {
	e.TotalExposure.Clear()
	for r := s.firstRound(e.Index); r <= s.lastRound(e.Index); r++ {
		hdr, err := s.snapshots.Round(r)
		if err != nil {
			return err
		}
		if hdr == nil {
			logger.Warn("era round missing", "era", e.Index, "round", r)
			continue
		}
		e.TotalExposure.Add(&e.TotalExposure, &hdr.TotalExposure)
	}
	return nil
}

func (s *Service) compute(job *Job, e *Era, budget int) (int, error) {
	commission, err := s.Commission()
	if err != nil {
		return 0, err
	}
	n := 0
	for n < budget && job.Phase == phaseCompute {
		hdr, err := s.snapshots.Round(job.Round)
		if err != nil {
			return n, err
		}
		if hdr == nil || int(job.Index) >= len(hdr.Validators) {
			if job.Round >= s.lastRound(job.Era) {
				job.Phase = phasePay
				e.Computed = true
				logger.Debug("era rewards computed", "era", e.Index, "payees", e.Payees)
				break
			}
			job.Round++
			job.Index = 0
			continue
		}
		snap, err := s.snapshots.Snapshot(job.Round, hdr.Validators[job.Index])
		if err != nil {
			return n, err
		}
		if snap != nil {
			if err := s.share(e, snap, commission); err != nil {
				return n, err
			}
		}
		job.Index++
		n++
	}
	metricStepSize().Observe(int64(n))
	return n, nil
}

// Shares splits the reward of one validator snapshot. P = pot·total/E goes
// to the validator for the commission part, the rest pro rata of exposure.
func Shares(pot, eraExposure *uint256.Int, commission ratio.Ratio, snap *snapshot.Snapshot) (validator *uint256.Int, nominators []*uint256.Int) {
	p := ratio.FromRational(&snap.TotalExposure, eraExposure, ratio.Perquintill).MulBalance(pot)
	c := commission.MulBalance(p)
	rest := new(uint256.Int).Sub(p, c)

	own := ratio.FromRational(&snap.OwnExposure, &snap.TotalExposure, ratio.Perquintill).MulBalance(rest)
	validator = new(uint256.Int).Add(c, own)
	nominators = make([]*uint256.Int, len(snap.Nominators))
	for i := range snap.Nominators {
		nominators[i] = ratio.FromRational(&snap.Nominators[i].Amount, &snap.TotalExposure, ratio.Perquintill).MulBalance(rest)
	}
	return validator, nominators
}

func (s *Service) share(e *Era, snap *snapshot.Snapshot, commission ratio.Ratio) error {
	validator, nominators := Shares(&e.Pot, &e.TotalExposure, commission, snap)
	if err := s.accrue(e, snap.Account, validator); err != nil {
		return err
	}
	for i, amount := range nominators {
		if err := s.accrue(e, snap.Nominators[i].Account, amount); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) accrue(e *Era, account eden.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	key := owedKey{e.Index, account}
	o, err := s.owed.Get(key)
	if err != nil {
		return err
	}
	if o == nil {
		o = &Owed{}
		if err := s.payees.Set(payeeKey{e.Index, e.Payees}, account); err != nil {
			return err
		}
		e.Payees++
	}
	o.Amount.Add(&o.Amount, amount)
	return s.owed.Set(key, o)
}

func (s *Service) pay(job *Job, e *Era, budget int, res *StepResult) error {
	for n := 0; n < budget && job.Payee < e.Payees; n++ {
		account, err := s.payees.Get(payeeKey{e.Index, job.Payee})
		if err != nil {
			return err
		}
		job.Payee++
		p, err := s.payout(e, account)
		if err != nil {
			if errors.Is(err, reverts.ErrAlreadyPaid) {
				continue
			}
			return err
		}
		res.Payments = append(res.Payments, *p)
	}
	if job.Payee < e.Payees {
		return nil
	}
	return s.close(e)
}

func (s *Service) close(e *Era) error {
	if rem := e.Remainder(); !rem.IsZero() {
		if err := s.treasury.Deposit(rem); err != nil {
			return err
		}
	}
	e.Status = StatusClosed
	metricEraPaid().Add(1)
	logger.Info("era paid", "era", e.Index, "pot", &e.Pot, "paid", &e.Paid, "payees", e.Payees)
	return nil
}

func (s *Service) payout(e *Era, account eden.Address) (*Payment, error) {
	key := owedKey{e.Index, account}
	o, err := s.owed.Get(key)
	if err != nil {
		return nil, err
	}
	if o == nil || o.Amount.IsZero() {
		return nil, reverts.ErrNoReward
	}
	if o.Paid {
		return nil, reverts.ErrAlreadyPaid
	}
	if _, overflow := new(uint256.Int).AddOverflow(&e.Paid, &o.Amount); overflow {
		return nil, errors.New("era paid overflow")
	}
	payee, err := s.Preference(account)
	if err != nil {
		return nil, err
	}
	if err := s.minter.MintInto(account, &o.Amount); err != nil {
		return nil, err
	}
	if payee == PayeeStaked {
		if err := s.stakes.Credit(account, &o.Amount); err != nil {
			return nil, err
		}
	}
	o.Paid = true
	if err := s.owed.Set(key, o); err != nil {
		return nil, err
	}
	e.Paid.Add(&e.Paid, &o.Amount)
	metricPaid().AddWithLabel(1, map[string]string{"payee": payee.String()})
	return &Payment{Era: e.Index, Account: account, Amount: new(uint256.Int).Set(&o.Amount), Payee: payee}, nil
}

// PayoutStakers pays the reward of account for era ahead of the payout cursor.
func (s *Service) PayoutStakers(era uint32, account eden.Address) (*Payment, error) {
	e, err := s.Era(era)
	if err != nil {
		return nil, err
	}
	if e == nil || e.Abandoned {
		return nil, reverts.ErrInvalidEra
	}
	if !e.Computed {
		return nil, reverts.ErrEraNotReady
	}
	p, err := s.payout(e, account)
	if err != nil {
		return nil, err
	}
	return p, s.eras.Set(eraKey(era), e)
}

// Abandon drops the running payout. The era closes and its unpaid pot goes to the treasury.
func (s *Service) Abandon() (*Era, error) {
	job, err := s.job.Get()
	if err != nil || job == nil {
		return nil, err
	}
	e, err := s.Era(job.Era)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errors.Errorf("payout of unknown era %d", job.Era)
	}
	logger.Warn("era payout abandoned", "era", job.Era, "payee", job.Payee)
	e.Abandoned = true
	if err := s.close(e); err != nil {
		return nil, err
	}
	s.job.Clear()
	return e, s.eras.Set(eraKey(e.Index), e)
}
