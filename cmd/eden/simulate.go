// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/eden-network/eden/builtin/balances"
	"github.com/eden-network/eden/builtin/staker"
	"github.com/eden-network/eden/builtin/staker/globalstats"
	"github.com/eden-network/eden/eden"
	"github.com/eden-network/eden/genesis"
	"github.com/eden-network/eden/runtime"
)

// workload generates random staking calls from the genesis accounts.
type workload struct {
	rng        *rand.Rand
	accounts   []eden.Address
	candidates []eden.Address
	activity   float64
}

func newWorkload(gene *genesis.Genesis, seed int64, activity float64) *workload {
	w := &workload{
		rng:      rand.New(rand.NewSource(seed)),
		activity: activity,
	}
	for _, a := range gene.Accounts() {
		w.accounts = append(w.accounts, a.Address)
		if a.Candidate {
			w.candidates = append(w.candidates, a.Address)
		}
	}
	return w
}

// next returns the txs of the block executing at head.
func (w *workload) next(s *staker.Staker, head uint32) []runtime.Tx {
	if w.activity <= 0 || len(w.accounts) == 0 || w.rng.Float64() >= w.activity {
		return nil
	}
	who := w.accounts[w.rng.Intn(len(w.accounts))]
	amount := uint256.NewInt(uint64(1 + w.rng.Intn(1000)))

	var call staker.Call
	switch w.rng.Intn(6) {
	case 0:
		call = &staker.Bond{Amount: amount}
	case 1:
		call = &staker.Unbond{Amount: amount}
	case 2:
		call = &staker.Rebond{Amount: amount}
	case 3:
		call = &staker.WithdrawUnbonded{}
	case 4:
		if len(w.candidates) == 0 {
			return nil
		}
		call = &staker.Nominate{Validator: w.candidates[w.rng.Intn(len(w.candidates))], Amount: amount}
	default:
		era := s.EraOf(s.RoundOf(head))
		if era == 0 {
			return nil
		}
		call = &staker.PayoutStakers{Era: era - 1, Account: who}
	}
	return []runtime.Tx{{Origin: staker.Signed(who), Call: call}}
}

type summary struct {
	Blocks      uint64
	Txs         int
	Reverted    int
	Events      int
	Head        uint32
	Totals      *globalstats.Totals
	LatestRound uint32
	HasRound    bool
	Slashes     uint64
	Issuance    *uint256.Int
}

// simulate executes blocks until count is reached or ctx is done.
func simulate(ctx context.Context, rt *runtime.Runtime, w *workload, count uint64, progress bool) (*summary, error) {
	var bar *pb.ProgressBar
	if progress {
		bar = pb.New64(int64(count)).
			SetMaxWidth(90).
			Start()
		defer func() { bar.NotPrint = true }()
	}

	sum := &summary{}
	for sum.Blocks < count {
		if ctx.Err() != nil {
			break
		}
		var txs []runtime.Tx
		head := rt.Head()
		if err := rt.View(func(s *staker.Staker, _ *balances.Balances) error {
			txs = w.next(s, head)
			return nil
		}); err != nil {
			return nil, err
		}
		blk, err := rt.Execute(txs)
		if err != nil {
			return nil, errors.Wrapf(err, "execute block %d", head)
		}
		sum.Blocks++
		sum.Txs += len(blk.Receipts)
		sum.Events += blk.Events
		for _, r := range blk.Receipts {
			if r.Reverted {
				sum.Reverted++
			}
		}
		if bar != nil {
			bar.Add64(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}

	sum.Head = rt.Head()
	err := rt.View(func(s *staker.Staker, b *balances.Balances) (err error) {
		if sum.Totals, err = s.Totals(); err != nil {
			return err
		}
		if sum.LatestRound, sum.HasRound, err = s.LatestRound(); err != nil {
			return err
		}
		if sum.Slashes, err = s.SlashCount(); err != nil {
			return err
		}
		sum.Issuance, err = b.Issuance()
		return err
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

func (s *summary) print(w io.Writer) error {
	latest := "none"
	if s.HasRound {
		latest = fmt.Sprint(s.LatestRound)
	}
	_, err := fmt.Fprintf(w, `Simulated %v blocks
    Next block   [ %v ]
    Txs          [ %v (%v reverted) ]
    Events       [ %v ]
    Latest round [ %v ]
    Bonded       [ %v ]
    Active       [ %v ]
    Slashed      [ %v ]
    Slashes      [ %v ]
    Issuance     [ %v ]
`,
		s.Blocks,
		s.Head,
		s.Txs, s.Reverted,
		s.Events,
		latest,
		s.Totals.Bonded.Dec(),
		s.Totals.Active.Dec(),
		s.Totals.Slashed.Dec(),
		s.Slashes,
		s.Issuance.Dec(),
	)
	return err
}
