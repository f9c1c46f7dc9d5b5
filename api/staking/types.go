// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/holiman/uint256"

	"github.com/eden-network/eden/builtin/staker/candidates"
	"github.com/eden-network/eden/builtin/staker/globalstats"
	"github.com/eden-network/eden/builtin/staker/ledger"
	"github.com/eden-network/eden/builtin/staker/ratio"
	"github.com/eden-network/eden/builtin/staker/rewards"
	"github.com/eden-network/eden/builtin/staker/slashing"
	"github.com/eden-network/eden/builtin/staker/snapshot"
	"github.com/eden-network/eden/eden"
)

func amount(v *uint256.Int) *uint256.Int {
	return new(uint256.Int).Set(v)
}

type Chunk struct {
	Amount   *uint256.Int `json:"amount"`
	UnlockAt uint32       `json:"unlockAt"`
}

type Ledger struct {
	Account   eden.Address `json:"account"`
	Total     *uint256.Int `json:"total"`
	Active    *uint256.Int `json:"active"`
	Unlocking []Chunk      `json:"unlocking"`
	Frozen    bool         `json:"frozen"`
	Payee     string       `json:"payee"`
}

func convertLedger(account eden.Address, l *ledger.Ledger, frozen bool, payee rewards.Payee) *Ledger {
	out := &Ledger{
		Account:   account,
		Total:     amount(&l.Total),
		Active:    amount(&l.Active),
		Unlocking: make([]Chunk, 0, len(l.Unlocking)),
		Frozen:    frozen,
		Payee:     payee.String(),
	}
	for i := range l.Unlocking {
		out.Unlocking = append(out.Unlocking, Chunk{amount(&l.Unlocking[i].Amount), l.Unlocking[i].UnlockAt})
	}
	return out
}

type Nomination struct {
	Nominator eden.Address `json:"nominator"`
	Amount    *uint256.Int `json:"amount"`
}

type Target struct {
	Validator eden.Address `json:"validator"`
	Amount    *uint256.Int `json:"amount"`
}

type Candidate struct {
	Account    eden.Address `json:"account"`
	SelfBond   *uint256.Int `json:"selfBond"`
	Total      *uint256.Int `json:"total"`
	Nominators []Nomination `json:"nominators"`
}

func convertCandidate(c *candidates.Candidate) *Candidate {
	out := &Candidate{
		Account:    c.Account,
		SelfBond:   c.SelfBond,
		Total:      c.Total(),
		Nominators: make([]Nomination, 0, len(c.Nominators)),
	}
	for _, n := range c.Nominators {
		out.Nominators = append(out.Nominators, Nomination{n.Nominator, n.Amount})
	}
	return out
}

type Round struct {
	Index         uint32         `json:"index"`
	Validators    []eden.Address `json:"validators"`
	Degraded      bool           `json:"degraded"`
	CarriedFrom   uint32         `json:"carriedFrom"`
	TotalExposure *uint256.Int   `json:"totalExposure"`
	Root          eden.Bytes32   `json:"root"`
}

func convertRound(r *snapshot.Round) *Round {
	validators := r.Validators
	if validators == nil {
		validators = []eden.Address{}
	}
	return &Round{
		Index:         r.Index,
		Validators:    validators,
		Degraded:      r.Degraded,
		CarriedFrom:   r.CarriedFrom,
		TotalExposure: amount(&r.TotalExposure),
		Root:          r.Root,
	}
}

type Exposure struct {
	Account eden.Address `json:"account"`
	Amount  *uint256.Int `json:"amount"`
}

type Snapshot struct {
	Round         uint32       `json:"round"`
	Account       eden.Address `json:"account"`
	TotalExposure *uint256.Int `json:"totalExposure"`
	OwnExposure   *uint256.Int `json:"ownExposure"`
	Nominators    []Exposure   `json:"nominators"`
}

func convertSnapshot(s *snapshot.Snapshot) *Snapshot {
	out := &Snapshot{
		Round:         s.Round,
		Account:       s.Account,
		TotalExposure: amount(&s.TotalExposure),
		OwnExposure:   amount(&s.OwnExposure),
		Nominators:    make([]Exposure, 0, len(s.Nominators)),
	}
	for i := range s.Nominators {
		out.Nominators = append(out.Nominators, Exposure{s.Nominators[i].Account, amount(&s.Nominators[i].Amount)})
	}
	return out
}

type Era struct {
	Index         uint32       `json:"index"`
	StartBlock    uint32       `json:"startBlock"`
	EndBlock      uint32       `json:"endBlock"`
	Pot           *uint256.Int `json:"pot"`
	Paid          *uint256.Int `json:"paid"`
	TotalExposure *uint256.Int `json:"totalExposure"`
	Status        string       `json:"status"`
	Computed      bool         `json:"computed"`
	Abandoned     bool         `json:"abandoned"`
	Payees        uint64       `json:"payees"`
}

func convertEra(e *rewards.Era) *Era {
	return &Era{
		Index:         e.Index,
		StartBlock:    e.StartBlock,
		EndBlock:      e.EndBlock,
		Pot:           amount(&e.Pot),
		Paid:          amount(&e.Paid),
		TotalExposure: amount(&e.TotalExposure),
		Status:        e.Status.String(),
		Computed:      e.Computed,
		Abandoned:     e.Abandoned,
		Payees:        e.Payees,
	}
}

type Slash struct {
	ID           uint64         `json:"id"`
	Target       eden.Address   `json:"target"`
	Reporter     eden.Address   `json:"reporter"`
	Era          uint32         `json:"era"`
	Fraction     ratio.Ratio    `json:"fraction"`
	OffenceBlock uint32         `json:"offenceBlock"`
	ReportedAt   uint32         `json:"reportedAt"`
	Status       string         `json:"status"`
	AppliedAt    uint32         `json:"appliedAt"`
	Slashed      *uint256.Int   `json:"slashed"`
	Affected     []eden.Address `json:"affected"`
}

func convertSlash(r *slashing.Record) *Slash {
	return &Slash{
		ID:           r.ID,
		Target:       r.Target,
		Reporter:     r.Reporter,
		Era:          r.Era,
		Fraction:     r.Fraction,
		OffenceBlock: r.OffenceBlock,
		ReportedAt:   r.ReportedAt,
		Status:       r.Status.String(),
		AppliedAt:    r.AppliedAt,
		Slashed:      amount(&r.Slashed),
		Affected:     r.Affected,
	}
}

type Totals struct {
	Head         uint32       `json:"head"`
	Bonded       *uint256.Int `json:"bonded"`
	Active       *uint256.Int `json:"active"`
	Slashed      *uint256.Int `json:"slashed"`
	Commission   ratio.Ratio  `json:"commission"`
	EraRewardPot *uint256.Int `json:"eraRewardPot"`
	LatestRound  *uint32      `json:"latestRound"`
	Slashes      uint64       `json:"slashes"`
}

func convertTotals(t *globalstats.Totals) *Totals {
	return &Totals{Bonded: t.Bonded, Active: t.Active, Slashed: t.Slashed}
}
