// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/eden-network/eden/builtin/staker/candidates"
	"github.com/eden-network/eden/builtin/staker/globalstats"
	"github.com/eden-network/eden/builtin/staker/ledger"
	"github.com/eden-network/eden/builtin/staker/ratio"
	"github.com/eden-network/eden/builtin/staker/rewards"
	"github.com/eden-network/eden/builtin/staker/slashing"
	"github.com/eden-network/eden/builtin/staker/snapshot"
	"github.com/eden-network/eden/builtin/storage"
	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/log"
	"github.com/eden-network/eden/state"
)

var logger = log.WithContext("pkg", "staker")

// Address is the account owning the staking state.
var Address = eden.BytesToAddress([]byte("staker"))

// Staker is the staking module: bonded ledgers, candidates, round snapshots,
// era rewards and slashing.
type Staker struct {
	cfg   Config
	state *state.State
	deps  Deps

	globalStatsService *globalstats.Service
	ledgerService      *ledger.Service
	candidateService   *candidates.Service
	snapshotService    *snapshot.Service
	rewardService      *rewards.Service
	slashingService    *slashing.Service
}

// New creates the staking module over st. cfg must be valid.
func New(st *state.State, cfg Config, deps Deps) *Staker {
	if deps.Governance == nil {
		deps.Governance = nopGovernance{}
	}
	if deps.Sink == nil {
		deps.Sink = nopSink{}
	}
	sctx := storage.NewContext(Address, st)

	stats := globalstats.New(sctx)
	ledgers := ledger.New(sctx, stats, deps.Balances, slashing.NewPendingIndex(sctx), ledger.Params{
		UnbondingDelay:  cfg.UnbondingDelay,
		MaxUnlockChunks: cfg.MaxUnlockChunks,
	})
	cands := candidates.New(sctx, ledgers)
	snaps := snapshot.New(sctx, cands, snapshot.Params{
		MaxValidators:     cfg.MaxValidators,
		MinValidators:     cfg.MinValidators,
		MaxNominators:     cfg.MaxNominatorsPerValidator,
		DegradedThreshold: cfg.DegradedThreshold,
		Retention:         cfg.SnapshotRetention,
		Budget:            cfg.SnapshotBudget,
	})
	pot := cfg.EraRewardPot
	rws := rewards.New(sctx, snaps, deps.Balances, ledgers, deps.Treasury, rewards.Params{
		EraLength:   cfg.EraLength,
		RoundLength: cfg.RoundLength,
		Budget:      cfg.PayoutBudget,
		Commission:  cfg.Commission,
		Pot:         &pot,
	})
	slash := slashing.New(sctx, snaps, ledgers, slashing.Params{
		EraLength:   cfg.EraLength,
		RoundLength: cfg.RoundLength,
	})

	return &Staker{
		cfg:   cfg,
		state: st,
		deps:  deps,

		globalStatsService: stats,
		ledgerService:      ledgers,
		candidateService:   cands,
		snapshotService:    snaps,
		rewardService:      rws,
		slashingService:    slash,
	}
}

//
// Getters - no state change
//

// Config returns the static configuration.
func (s *Staker) Config() Config {
	return s.cfg
}

// Ledger returns the ledger of account, nil when not bonded.
func (s *Staker) Ledger(account eden.Address) (*ledger.Ledger, error) {
	return s.ledgerService.Get(account)
}

// Totals returns network wide stake totals.
func (s *Staker) Totals() (*globalstats.Totals, error) {
	return s.globalStatsService.Totals()
}

// Candidates lists the registered candidates in registration order.
func (s *Staker) Candidates() ([]eden.Address, error) {
	var out []eden.Address
	err := s.candidateService.Iter(func(a eden.Address) error {
		out = append(out, a)
		return nil
	})
	return out, err
}

// Exposure returns the current exposure of a candidate.
func (s *Staker) Exposure(validator eden.Address) (*candidates.Candidate, error) {
	ok, err := s.candidateService.IsCandidate(validator)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return s.candidateService.Exposure(validator)
}

// Nominations returns the nominations of an account.
func (s *Staker) Nominations(nominator eden.Address) (*candidates.Nominations, error) {
	return s.candidateService.Nominations(nominator)
}

// Round returns a round header, nil when unknown or pruned.
func (s *Staker) Round(round uint32) (*snapshot.Round, error) {
	return s.snapshotService.Round(round)
}

// LatestRound returns the newest finalized round.
func (s *Staker) LatestRound() (uint32, bool, error) {
	return s.snapshotService.Latest()
}

// Snapshot returns the snapshot of a validator in a round.
func (s *Staker) Snapshot(round uint32, account eden.Address) (*snapshot.Snapshot, error) {
	return s.snapshotService.Snapshot(round, account)
}

// SnapshotJob returns the running round gathering, nil when idle.
func (s *Staker) SnapshotJob() (*snapshot.Job, error) {
	return s.snapshotService.Job()
}

// Era returns an era record.
func (s *Staker) Era(era uint32) (*rewards.Era, error) {
	return s.rewardService.Era(era)
}

// Owed returns the reward of account for era.
func (s *Staker) Owed(era uint32, account eden.Address) (*rewards.Owed, error) {
	return s.rewardService.Owed(era, account)
}

// PayoutJob returns the running era payout, nil when idle.
func (s *Staker) PayoutJob() (*rewards.Job, error) {
	return s.rewardService.Job()
}

// Payee returns the payee preference of account.
func (s *Staker) Payee(account eden.Address) (rewards.Payee, error) {
	return s.rewardService.Preference(account)
}

// Commission returns the commission in force.
func (s *Staker) Commission() (ratio.Ratio, error) {
	return s.rewardService.Commission()
}

// EraRewardPot returns the pot in force.
func (s *Staker) EraRewardPot() (*uint256.Int, error) {
	return s.rewardService.Pot()
}

// Slash returns a slash record, nil when unknown.
func (s *Staker) Slash(id uint64) (*slashing.Record, error) {
	return s.slashingService.Get(id)
}

// SlashCount returns the number of slash records.
func (s *Staker) SlashCount() (uint64, error) {
	return s.slashingService.Count()
}

// IsFrozen reports whether withdrawals of account wait for a pending slash.
func (s *Staker) IsFrozen(account eden.Address) (bool, error) {
	return s.slashingService.IsFrozen(account)
}

// RoundOf returns the round containing block.
func (s *Staker) RoundOf(block uint32) uint32 {
	return block / s.cfg.RoundLength
}

// EraOf returns the era containing round.
func (s *Staker) EraOf(round uint32) uint32 {
	return round / s.cfg.EraLength
}

func (s *Staker) currentBlock() (uint32, error) {
	if s.deps.Clock == nil {
		return 0, errors.New("no clock")
	}
	return s.deps.Clock.CurrentBlock(), nil
}
